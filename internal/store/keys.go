package store

const (
	promptPrefix = "prompt:"
	catalogKey   = "catalog:tags"
)

func promptKey(id string) []byte {
	return []byte(promptPrefix + id)
}
