// Package metric implements the similarity scores the rescorer appends to
// document alignment candidates. Every metric is symmetric and returns a
// value in [0, 1].
package metric

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/features"
)

// Metric scores a pair of feature values.
type Metric[T any] func(a, b T) float64

// EditDistance is the Levenshtein distance between a and b, counted in
// Unicode code points, divided by the length of the longer string. It is 0
// when either string is empty.
func EditDistance(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(max(la, lb))
}

// Jaccard is |a∩b| / |a∪b|, and 0 when both sets are empty.
func Jaccard(a, b features.LinkSet) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for link := range a {
		if _, ok := b[link]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
