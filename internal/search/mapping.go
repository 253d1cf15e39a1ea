package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping maps prompt documents. Prompt text uses the standard
// analyzer because generation prompts are comma-separated keyword soups
// where stemming hurts more than it helps; names get English stemming.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	doc := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = en.AnalyzerName
	name.Store = true
	name.IncludeTermVectors = true
	doc.AddFieldMappingsAt("name", name)

	prompt := bleve.NewTextFieldMapping()
	prompt.Analyzer = standard.Name
	prompt.Store = true
	prompt.IncludeTermVectors = true
	doc.AddFieldMappingsAt("prompt", prompt)

	negative := bleve.NewTextFieldMapping()
	negative.Analyzer = standard.Name
	negative.Store = false
	doc.AddFieldMappingsAt("negative_prompt", negative)

	// Tags are matched exactly, "blue-eyes" stays one token.
	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = keyword.Name
	tags.Store = true
	tags.IncludeTermVectors = true
	doc.AddFieldMappingsAt("tags", tags)

	id := bleve.NewTextFieldMapping()
	id.Analyzer = keyword.Name
	doc.AddFieldMappingsAt("id", id)

	doc.AddFieldMappingsAt("has_preview", bleve.NewBooleanFieldMapping())

	created := bleve.NewDateTimeFieldMapping()
	created.Store = true
	doc.AddFieldMappingsAt("created_at", created)

	indexMapping.DefaultMapping = doc
	return indexMapping
}
