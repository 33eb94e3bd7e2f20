package common

import "strings"

// ContainsWord reports whether word occurs in text as a whole, space-delimited word
// (or run of words). Both arguments must already be normalized: lowercase letters
// separated by single spaces. Under that invariant this is equivalent to a
// \b-delimited regular expression match.
func ContainsWord(text, word string) bool {
	if word == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+word+" ")
}
