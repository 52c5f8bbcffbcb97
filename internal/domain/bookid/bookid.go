// Package bookid maps composite result ids back to canonical book ids.
//
// A retrieval engine that ranks passages returns ids of the form
// "<bookId>_<n>", one per passage. Vocabulary and detail lookups are keyed by
// the bare book id.
package bookid

import "strings"

// Canonicalize strips exactly one trailing "_<digits>" suffix.
// Ids without such a suffix are returned unchanged.
func Canonicalize(resultID string) string {
	i := strings.LastIndexByte(resultID, '_')
	if i < 0 || i == len(resultID)-1 {
		return resultID
	}
	for _, c := range resultID[i+1:] {
		if c < '0' || c > '9' {
			return resultID
		}
	}
	return resultID[:i]
}

// IsComposite reports whether the id carries a disambiguation suffix.
func IsComposite(resultID string) bool {
	return Canonicalize(resultID) != resultID
}
