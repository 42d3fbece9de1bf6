// Package tokenizer turns the output of a word tokenizer into the bag of
// words indexed for one document. It lower-cases the text, splits on Unicode
// whitespace, strips leading and trailing punctuation from each token and
// discards tokens left empty.
package tokenizer

import (
	"sort"
	"strings"
	"unicode"
)

// WordSet returns the distinct words of an already tokenized text in sorted
// order. Two tokens that only differ in surrounding punctuation, such as
// "casa" and "casa.", collapse into one word.
func WordSet(tokenized string) []string {
	fields := strings.Fields(strings.ToLower(tokenized))
	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.TrimFunc(field, unicode.IsPunct)
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}
