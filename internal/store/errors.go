package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned for IDs that cannot name a record.
	ErrInvalidID = errors.New("invalid record id")
)

// ValidID rejects IDs that would escape a record directory or collide with
// key separators.
func ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		switch r {
		case '/', '\\', ':', 0:
			return false
		}
	}
	return true
}
