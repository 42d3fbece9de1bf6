package segment

import (
	"io"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// ParseLine decodes one postings line.
func ParseLine(line string) (index.TermEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return index.TermEntry{}, apperrors.Newf(apperrors.ErrInvalidInput, "postings line has %d fields, want 3", len(fields))
	}
	postings, err := index.DecodePostings(fields[2])
	if err != nil {
		return index.TermEntry{}, err
	}
	return index.TermEntry{Lang: fields[0], Term: fields[1], Postings: postings}, nil
}

// NewReader streams the entries of a postings file.
func NewReader(r io.Reader) stream.Stream[index.TermEntry] {
	return stream.Map[string, index.TermEntry](stream.NewLines(r), ParseLine)
}
