// Package tokenizer turns raw text into normalised terms. It lower-cases the
// input and splits on every run of non-alphanumeric characters. The same
// function is used for document content and for queries.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize returns the terms of text in order of appearance. It never
// returns empty terms and does not retain or modify its input, so calling it
// twice on the same text yields identical slices.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
