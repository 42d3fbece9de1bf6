package indexer

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/transform"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

// Options configures an Engine. Tokenizer1 and Tokenizer2 are required;
// a nil normalizer disables morphological normalization for that language.
type Options struct {
	Lang1          string
	Lang2          string
	Tokenizer1     transform.Transform
	Tokenizer2     transform.Transform
	Normalizer1    transform.Transform
	Normalizer2    transform.Transform
	MaxOccurrences int
}

type pipeline struct {
	normalize transform.Transform
	tokenize  transform.Transform
}

// Engine builds a per-language inverted index over a stream of documents.
// Document ids are assigned from 1 in the order documents are indexed.
type Engine struct {
	memIndex  *index.MemoryIndex
	pipelines map[string]pipeline
	maxOcc    int
	metrics   *metrics.Metrics
	logger    *slog.Logger
	nextID    uint32
}

// NewEngine validates opts and returns an empty engine. m is required.
func NewEngine(opts Options, m *metrics.Metrics) (*Engine, error) {
	if m == nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "metrics are required")
	}
	if opts.Lang1 == "" || opts.Lang2 == "" {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "both languages must be set")
	}
	if opts.Tokenizer1 == nil || opts.Tokenizer2 == nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "a tokenizer is required for each language")
	}
	e := &Engine{
		memIndex:  index.NewMemoryIndex(),
		pipelines: make(map[string]pipeline, 2),
		maxOcc:    opts.MaxOccurrences,
		metrics:   m,
		logger:    logger.WithComponent("indexer"),
	}
	// Registered in reverse so lang1 wins if both codes are equal.
	e.pipelines[opts.Lang2] = e.newPipeline(opts.Normalizer2, opts.Tokenizer2)
	e.pipelines[opts.Lang1] = e.newPipeline(opts.Normalizer1, opts.Tokenizer1)
	return e, nil
}

func (e *Engine) newPipeline(normalizer, tok transform.Transform) pipeline {
	p := pipeline{tokenize: transform.Timed(tok, e.metrics.TransformDuration.WithLabelValues("tokenize"))}
	if normalizer != nil {
		morph := transform.NewMorphological(
			transform.Timed(normalizer, e.metrics.TransformDuration.WithLabelValues("normalize")),
			e.logger,
		)
		morph.OnFallback = func(reason string) {
			e.metrics.NormalizerFallbacks.WithLabelValues(reason).Inc()
		}
		p.normalize = morph
	}
	return p
}

// IndexDocument assigns the next document id to text and records its words
// under lang. Documents in a language with no configured tokenizer still
// consume an id but contribute no postings.
func (e *Engine) IndexDocument(ctx context.Context, lang string, text string) (uint32, error) {
	e.nextID++
	docID := e.nextID
	e.metrics.DocumentsTotal.WithLabelValues(lang).Inc()

	p, ok := e.pipelines[lang]
	if !ok {
		e.memIndex.AddDocument(docID, lang, nil)
		return docID, nil
	}
	if p.normalize != nil {
		normalized, err := p.normalize.Apply(ctx, text)
		if err != nil {
			return docID, fmt.Errorf("normalizing document %d: %w", docID, err)
		}
		text = normalized
	}
	tokenized, err := p.tokenize.Apply(ctx, text)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrDiagnostics) {
			return docID, fmt.Errorf("tokenizing document %d: %w", docID, err)
		}
		e.logger.Debug("tokenizer diagnostics", "doc_id", docID, "error", err)
	}
	words := tokenizer.WordSet(tokenized)
	e.memIndex.AddDocument(docID, lang, words)
	e.logger.Debug("document indexed",
		"doc_id", docID,
		"lang", lang,
		"word_count", len(words),
	)
	return docID, nil
}

// Build consumes two parallel streams in lockstep: document texts and their
// language codes. The language stream running out before the text stream is
// an input error; surplus language lines are ignored.
func (e *Engine) Build(ctx context.Context, texts, langs stream.Stream[string]) error {
	for {
		text, ok := texts.Next()
		if !ok {
			break
		}
		lang, ok := langs.Next()
		if !ok {
			if err := langs.Err(); err != nil {
				return fmt.Errorf("reading languages: %w", err)
			}
			return apperrors.Newf(apperrors.ErrInvalidInput, "language stream ended before document %d", e.nextID+1)
		}
		if _, err := e.IndexDocument(ctx, strings.TrimSpace(lang), text); err != nil {
			return err
		}
	}
	if err := texts.Err(); err != nil {
		return fmt.Errorf("reading documents: %w", err)
	}
	e.logger.Info("documents indexed",
		"docs", e.memIndex.DocCount(),
		"terms", e.memIndex.Terms(),
	)
	return nil
}

// Flush writes every surviving (language, word) posting list to w.
func (e *Engine) Flush(w io.Writer) error {
	entries, pruned := e.memIndex.Snapshot(e.maxOcc)
	if err := segment.NewWriter(w).Write(entries); err != nil {
		return fmt.Errorf("writing postings: %w", err)
	}
	for _, entry := range entries {
		e.metrics.PostingsWrittenTotal.WithLabelValues(entry.Lang).Inc()
	}
	total := 0
	for lang, n := range pruned {
		e.metrics.PostingsPrunedTotal.WithLabelValues(lang).Add(float64(n))
		total += n
	}
	e.logger.Info("postings written",
		"terms", len(entries),
		"pruned", total,
		"max_occurrences", e.maxOcc,
	)
	return nil
}

// Search returns the current posting list of word in lang.
func (e *Engine) Search(lang, word string) index.PostingList {
	return e.memIndex.Search(lang, word)
}

func (e *Engine) DocCount() int {
	return e.memIndex.DocCount()
}

// DecodeText returns the decoder for one line of the text stream.
func DecodeText(encoding string) func(string) (string, error) {
	if encoding == config.EncodingPlain {
		return func(line string) (string, error) { return line, nil }
	}
	return func(line string) (string, error) {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(line))
		if err != nil {
			return "", apperrors.Newf(apperrors.ErrInvalidInput, "decoding document text: %v", err)
		}
		return string(raw), nil
	}
}
