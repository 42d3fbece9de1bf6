// Package rescorer appends a similarity score to every candidate of a
// reverse-index (ridx) file. A ridx line is
//
//	sourceID TAB candidate TAB candidate ...
//
// where each candidate is a document id optionally followed by ':'-separated
// scores from earlier stages. The rescorer keeps every existing annotation
// and appends exactly one more.
package rescorer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/rescorer/metric"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

// Features resolves a document id to its feature value.
type Features[T any] interface {
	Lookup(id int) (T, error)
}

// Rescorer scores candidates with one metric over one feature type.
type Rescorer[T any] struct {
	name     string
	features Features[T]
	score    metric.Metric[T]
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New returns a rescorer that records into m, or into a throwaway registry
// when m is nil.
func New[T any](name string, features Features[T], score metric.Metric[T], m *metrics.Metrics) *Rescorer[T] {
	if m == nil {
		m = metrics.New()
	}
	return &Rescorer[T]{
		name:     name,
		features: features,
		score:    score,
		metrics:  m,
		logger:   logger.WithComponent("rescorer").With("metric", name),
	}
}

// RescoreLine returns the annotated form of one ridx line. ok is false for a
// line without candidates, which produces no output.
func (r *Rescorer[T]) RescoreLine(line string) (out string, ok bool, err error) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) < 2 {
		return "", false, nil
	}
	sourceID, err := parseID(fields[0])
	if err != nil {
		return "", false, err
	}
	source, err := r.features.Lookup(sourceID)
	if err != nil {
		return "", false, fmt.Errorf("source document: %w", err)
	}

	var b strings.Builder
	b.WriteString(fields[0])
	for _, candidate := range fields[1:] {
		id, err := parseID(candidate)
		if err != nil {
			return "", false, err
		}
		target, err := r.features.Lookup(id)
		if err != nil {
			return "", false, fmt.Errorf("candidate of document %d: %w", sourceID, err)
		}
		b.WriteByte('\t')
		b.WriteString(candidate)
		b.WriteByte(':')
		b.WriteString(FormatScore(r.score(source, target)))
	}
	r.metrics.CandidatesScoredTotal.WithLabelValues(r.name).Add(float64(len(fields) - 1))
	return b.String(), true, nil
}

// Run rescores every line of lines and writes the results to w.
func (r *Rescorer[T]) Run(lines stream.Stream[string], w io.Writer) error {
	bw := bufio.NewWriter(w)
	rescored, dropped := 0, 0
	lineNo := 0
	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		lineNo++
		out, keep, err := r.RescoreLine(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !keep {
			dropped++
			r.metrics.CandidateLinesTotal.WithLabelValues("dropped").Inc()
			continue
		}
		rescored++
		r.metrics.CandidateLinesTotal.WithLabelValues("rescored").Inc()
		if _, err := bw.WriteString(out); err != nil {
			return fmt.Errorf("writing line %d: %w", lineNo, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing line %d: %w", lineNo, err)
		}
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("reading candidates: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	r.logger.Info("candidates rescored", "lines", rescored, "dropped", dropped)
	return nil
}

func parseID(token string) (int, error) {
	head, _, _ := strings.Cut(token, ":")
	id, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, "bad document id in %q", token)
	}
	return id, nil
}

// FormatScore prints a score in its shortest round-trip form, keeping a
// decimal point on integral values so that 0 and 1 read as 0.0 and 1.0.
func FormatScore(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
