// Package normalize canonicalizes user-supplied text before it is stored
// or compared.
package normalize

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tag trims surrounding whitespace and converts to Unicode NFC, so "café"
// typed with a combining accent and with a precomposed one are the same
// tag. Case is preserved; tags compare byte-for-byte.
func Tag(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Tags normalizes every tag, dropping blanks and later duplicates while
// keeping first-seen order.
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		t := Tag(raw)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SortedSet returns a sorted, deduplicated copy of tags. Inputs are
// normalized first.
func SortedSet(tags ...[]string) []string {
	var all []string
	for _, ts := range tags {
		all = append(all, ts...)
	}
	out := Tags(all)
	slices.Sort(out)
	return out
}

// Text converts free text to NFC and trims it.
func Text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
