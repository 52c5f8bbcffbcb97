// Package words correlates query tokens with a book's indexed vocabulary.
package words

import "strings"

// Index is a book's indexed vocabulary as returned by the books API.
type Index []string

// Tokenize splits a query on whitespace, dropping empty tokens.
// No stemming or case folding is applied.
func Tokenize(query string) []string {
	return strings.Fields(query)
}

// Match returns the query tokens that occur as a substring of at least one
// indexed word, in query order and without duplicates.
//
// Substring (not whole-word) matching is intentional: "ogre" hits "ogres".
func Match(query string, index Index) []string {
	tokens := Tokenize(query)
	matched := make([]string, 0, len(tokens))
	if len(index) == 0 {
		return matched
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if index.containsSubstring(tok) {
			matched = append(matched, tok)
		}
	}
	return matched
}

func (idx Index) containsSubstring(tok string) bool {
	for _, w := range idx {
		if strings.Contains(w, tok) {
			return true
		}
	}
	return false
}
