package index

import (
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// PostingList is the ascending list of distinct document ids containing a
// word.
type PostingList []uint32

type TermEntry struct {
	Lang     string
	Term     string
	Postings PostingList
}

// Encode serializes the list as its first id followed by the gaps between
// consecutive ids, joined with ':'. A single-id list has no gaps.
func (p PostingList) Encode() string {
	var b strings.Builder
	var prev uint32
	for i, id := range p {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(strconv.FormatUint(uint64(id-prev), 10))
		prev = id
	}
	return b.String()
}

// DecodePostings reverses Encode by summing the gaps.
func DecodePostings(encoded string) (PostingList, error) {
	if encoded == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "empty posting list")
	}
	parts := strings.Split(encoded, ":")
	out := make(PostingList, 0, len(parts))
	var sum uint64
	for i, part := range parts {
		gap, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "posting %d of %q: %v", i, encoded, err)
		}
		sum += gap
		if sum > 1<<32-1 {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "posting list %q overflows document ids", encoded)
		}
		out = append(out, uint32(sum))
	}
	return out, nil
}
