// Package features loads the per-document values the rescorer compares: a
// document's URL, or the hyperlink targets found in its markup. Every source
// is aligned by line position, the n-th record describing document n.
package features

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// Table maps 1-based document ids to feature values. Ids may have gaps.
type Table[T any] struct {
	values  []T
	present []bool
	count   int
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{}
}

// Set stores v under id, growing the table as needed.
func (t *Table[T]) Set(id int, v T) {
	for len(t.values) < id {
		var zero T
		t.values = append(t.values, zero)
		t.present = append(t.present, false)
	}
	if !t.present[id-1] {
		t.count++
	}
	t.values[id-1] = v
	t.present[id-1] = true
}

// Lookup returns the value stored under id. An id that was skipped while
// loading or lies outside the table is ErrDocumentNotFound.
func (t *Table[T]) Lookup(id int) (T, error) {
	if id < 1 || id > len(t.values) || !t.present[id-1] {
		var zero T
		return zero, apperrors.Newf(apperrors.ErrDocumentNotFound, "no feature for document %d", id)
	}
	return t.values[id-1], nil
}

// Len is the number of ids holding a value.
func (t *Table[T]) Len() int {
	return t.count
}
