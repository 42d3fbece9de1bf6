// Package stream defines the positional record streams that the index
// builder and the rescorer consume. A record's position in its stream is its
// document id; parallel streams are read in lockstep and never re-keyed.
package stream

import (
	"bufio"
	"io"
	"strings"
)

// Stream yields records in order. Next returns false once the stream is
// exhausted or has failed; Err reports the failure, if any.
type Stream[T any] interface {
	Next() (T, bool)
	Err() error
}

// Lines streams the lines of r without their trailing newline. Lines of any
// length are supported.
type Lines struct {
	r   *bufio.Reader
	err error
}

func NewLines(r io.Reader) *Lines {
	return &Lines{r: bufio.NewReaderSize(r, 1<<20)}
}

func (l *Lines) Next() (string, bool) {
	if l.err != nil {
		return "", false
	}
	line, err := l.r.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			l.err = err
			return "", false
		}
		l.err = io.EOF
		if line == "" {
			return "", false
		}
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), true
}

func (l *Lines) Err() error {
	if l.err == io.EOF {
		return nil
	}
	return l.err
}

// Slice streams an in-memory sequence.
type Slice[T any] struct {
	items []T
	pos   int
}

func FromSlice[T any](items ...T) *Slice[T] {
	return &Slice[T]{items: items}
}

func (s *Slice[T]) Next() (T, bool) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, false
	}
	item := s.items[s.pos]
	s.pos++
	return item, true
}

func (s *Slice[T]) Err() error { return nil }

// Map decodes each record of src with fn. The first decode error ends the
// stream and is reported by Err.
func Map[S, T any](src Stream[S], fn func(S) (T, error)) Stream[T] {
	return &mapped[S, T]{src: src, fn: fn}
}

type mapped[S, T any] struct {
	src Stream[S]
	fn  func(S) (T, error)
	err error
}

func (m *mapped[S, T]) Next() (T, bool) {
	var zero T
	if m.err != nil {
		return zero, false
	}
	s, ok := m.src.Next()
	if !ok {
		return zero, false
	}
	t, err := m.fn(s)
	if err != nil {
		m.err = err
		return zero, false
	}
	return t, true
}

func (m *mapped[S, T]) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.src.Err()
}

// Collect drains a stream into a slice.
func Collect[T any](s Stream[T]) ([]T, error) {
	var out []T
	for {
		v, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, s.Err()
}
