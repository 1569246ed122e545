package ontology

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// IndexPhrase returns the first index >= from at which phrase occurs as a run
// of consecutive tokens, or -1.
func IndexPhrase(tokens, phrase []string, from int) int {
	if len(phrase) == 0 {
		return -1
	}
	for i := from; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
