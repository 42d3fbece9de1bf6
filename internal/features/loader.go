package features

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

// lettURLField is the position of the URL in a legacy tab-separated record;
// records with fewer than lettMinFields fields carry no usable URL.
const (
	lettURLField  = 3
	lettMinFields = 5
)

var authorityPattern = regexp.MustCompile(`^https?://[^/:]+`)

// StripAuthority removes every occurrence of url's scheme and host from s.
// If url does not start with an http(s) authority, s is returned unchanged.
func StripAuthority(url, s string) string {
	authority := authorityPattern.FindString(url)
	if authority == "" {
		return s
	}
	return strings.ReplaceAll(s, authority, "")
}

// Loader builds feature tables from line streams.
type Loader struct {
	extractor      LinkExtractor
	stripAuthority bool
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// NewLoader returns a loader that records into m, or into a throwaway
// registry when m is nil.
func NewLoader(extractor LinkExtractor, stripAuthority bool, m *metrics.Metrics) *Loader {
	if m == nil {
		m = metrics.New()
	}
	return &Loader{
		extractor:      extractor,
		stripAuthority: stripAuthority,
		metrics:        m,
		logger:         logger.WithComponent("features"),
	}
}

func (l *Loader) record(source, status string) {
	l.metrics.FeatureRecordsTotal.WithLabelValues(source, status).Inc()
}

func (l *Loader) path(url string) string {
	if !l.stripAuthority {
		return url
	}
	return StripAuthority(url, url)
}

// URLs loads one URL per line.
func (l *Loader) URLs(lines stream.Stream[string]) (*Table[string], error) {
	table := NewTable[string]()
	id := 0
	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		id++
		table.Set(id, l.path(strings.TrimSpace(line)))
		l.record("url", "loaded")
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("reading urls: %w", err)
	}
	l.logger.Info("url features loaded", "docs", table.Len())
	return table, nil
}

// Lett loads URLs from legacy tab-separated records. A record that is too
// short is skipped silently: its id stays empty and later records keep their
// own positions.
func (l *Loader) Lett(lines stream.Stream[string]) (*Table[string], error) {
	table := NewTable[string]()
	id := 0
	skipped := 0
	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		id++
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < lettMinFields {
			skipped++
			l.record("lett", "skipped")
			continue
		}
		table.Set(id, l.path(fields[lettURLField]))
		l.record("lett", "loaded")
	}
	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("reading lett records: %w", err)
	}
	l.logger.Info("lett features loaded", "docs", table.Len(), "skipped", skipped)
	return table, nil
}

func decodeMarkup(id int, line string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(line))
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrInvalidInput, "decoding markup of document %d: %v", id, err)
	}
	return string(raw), nil
}

// LinkStrings loads, per document, the concatenation of its link targets in
// extraction order. When urls is non-nil it is read in lockstep with markup
// and each document's own authority is removed from its concatenation; the
// markup stream must then be at least as long as urls.
func (l *Loader) LinkStrings(markup stream.Stream[string], urls stream.Stream[string]) (*Table[string], error) {
	table := NewTable[string]()
	id := 0
	for {
		var url string
		if urls != nil {
			u, ok := urls.Next()
			if !ok {
				break
			}
			url = strings.TrimSpace(u)
		}
		line, ok := markup.Next()
		if !ok {
			if err := markup.Err(); err != nil {
				return nil, fmt.Errorf("reading markup: %w", err)
			}
			if urls == nil {
				break
			}
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "markup stream ended before document %d", id+1)
		}
		id++
		doc, err := decodeMarkup(id, line)
		if err != nil {
			return nil, err
		}
		links := strings.Join(l.extractor.Extract(doc), "")
		if urls != nil && l.stripAuthority {
			links = StripAuthority(url, links)
		}
		table.Set(id, links)
		l.record("links", "loaded")
	}
	if urls != nil {
		if err := urls.Err(); err != nil {
			return nil, fmt.Errorf("reading urls: %w", err)
		}
	}
	if err := markup.Err(); err != nil {
		return nil, fmt.Errorf("reading markup: %w", err)
	}
	l.logger.Info("link string features loaded", "docs", table.Len())
	return table, nil
}

// LinkSets loads, per document, the set of its link targets.
func (l *Loader) LinkSets(markup stream.Stream[string]) (*Table[LinkSet], error) {
	table := NewTable[LinkSet]()
	id := 0
	for {
		line, ok := markup.Next()
		if !ok {
			break
		}
		id++
		doc, err := decodeMarkup(id, line)
		if err != nil {
			return nil, err
		}
		table.Set(id, NewLinkSet(l.extractor.Extract(doc)...))
		l.record("linkset", "loaded")
	}
	if err := markup.Err(); err != nil {
		return nil, fmt.Errorf("reading markup: %w", err)
	}
	l.logger.Info("link set features loaded", "docs", table.Len())
	return table, nil
}
