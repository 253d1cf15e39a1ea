package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params configures a prompt search.
type Params struct {
	Query string
	// Tags restricts results to prompts carrying every listed tag.
	Tags   []string
	Limit  int
	Offset int
}

// Result is one page of search hits.
type Result struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"tookMs"`
	Hits   []Hit        `json:"hits"`
	Tags   []FacetCount `json:"tags,omitempty"`
}

// Hit is a matching prompt.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Prompt     string            `json:"prompt"`
	Tags       []string          `json:"tags"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount is a tag and the number of matching prompts carrying it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs a query. An empty query matches every prompt, so a tag-only
// search lists prompts by tag.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	params.Limit = min(params.Limit, MaxLimit)
	params.Offset = max(params.Offset, 0)

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.Fields = []string{"name", "prompt", "tags"}
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"-created_at", "_id"})
	} else {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
		req.Highlight.AddField("prompt")
	}
	req.AddFacet("tags", bleve.NewFacetRequest("tags", 20))

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score, Tags: stringsField(h.Fields["tags"])}
		hit.Name, _ = h.Fields["name"].(string)
		hit.Prompt, _ = h.Fields["prompt"].(string)
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, frags := range h.Fragments {
				if len(frags) > 0 {
					hit.Highlights[field] = frags[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}

	if facet, ok := res.Facets["tags"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			out.Tags = append(out.Tags, FacetCount{Value: term.Term, Count: term.Count})
		}
	}
	return out, nil
}

func buildQuery(params Params) query.Query {
	var must []query.Query

	if text := strings.TrimSpace(params.Query); text != "" {
		name := bleve.NewMatchQuery(text)
		name.SetField("name")
		name.SetBoost(2)

		prompt := bleve.NewMatchQuery(text)
		prompt.SetField("prompt")

		// The last word may still be being typed.
		words := strings.Fields(strings.ToLower(text))
		prefix := bleve.NewPrefixQuery(words[len(words)-1])
		prefix.SetField("prompt")
		prefix.SetBoost(0.5)

		tag := bleve.NewTermQuery(text)
		tag.SetField("tags")
		tag.SetBoost(1.5)

		must = append(must, bleve.NewDisjunctionQuery(name, prompt, prefix, tag))
	}

	for _, t := range params.Tags {
		tq := bleve.NewTermQuery(t)
		tq.SetField("tags")
		must = append(must, tq)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

// stringsField normalizes a stored field that Bleve returns as a string
// for one value and a []any for several.
func stringsField(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
