// Package segment reads and writes postings files: one line per
// (language, word) pair in the form "lang TAB word TAB gap-encoded ids".
package segment

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer/index"
)

// Writer serialises term entries as postings lines.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits one line per entry and flushes.
func (w *Writer) Write(entries []index.TermEntry) error {
	for _, entry := range entries {
		if len(entry.Postings) == 0 {
			return fmt.Errorf("term %q in %s has no postings", entry.Term, entry.Lang)
		}
		if _, err := fmt.Fprintf(w.w, "%s\t%s\t%s\n", entry.Lang, entry.Term, entry.Postings.Encode()); err != nil {
			return fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flushing postings: %w", err)
	}
	return nil
}
