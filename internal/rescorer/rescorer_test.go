package rescorer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docalign/internal/features"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/rescorer/metric"
	"github.com/Adithya-Monish-Kumar-K/docalign/internal/stream"
	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docalign/pkg/metrics"
)

func urlTable(urls ...string) *features.Table[string] {
	table := features.NewTable[string]()
	for i, u := range urls {
		table.Set(i+1, u)
	}
	return table
}

func run[T any](t *testing.T, r *Rescorer[T], input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := r.Run(stream.NewLines(strings.NewReader(input)), &out)
	return out.String(), err
}

func TestRescoreEditDistance(t *testing.T) {
	m := metrics.New()
	r := New("url-distance", urlTable("/x", "/xy"), metric.EditDistance, m)
	out, err := run(t, r, "1\t2\n")
	require.NoError(t, err)
	assert.Equal(t, "1\t2:0.3333333333333333\n", out)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesScoredTotal.WithLabelValues("url-distance")))
}

func TestRescorePreservesAnnotations(t *testing.T) {
	r := New("url-distance", urlTable("/en/a", "/fr/a", "", "/en/a"), metric.EditDistance, metrics.New())
	out, err := run(t, r, "1\t2:0.5:0.25\t3:0.1\t4\n")
	require.NoError(t, err)
	assert.Equal(t, "1\t2:0.5:0.25:0.4\t3:0.1:0.0\t4:0.0\n", out)
}

func TestRescoreDropsLinesWithoutCandidates(t *testing.T) {
	m := metrics.New()
	r := New("url-distance", urlTable("/a", "/b"), metric.EditDistance, m)
	out, err := run(t, r, "1\n\n2\t1\n1\t\n")
	require.NoError(t, err)
	assert.Equal(t, "2\t1:0.5\n", out)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CandidateLinesTotal.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidateLinesTotal.WithLabelValues("rescored")))
}

func TestRescoreJaccard(t *testing.T) {
	table := features.NewTable[features.LinkSet]()
	table.Set(1, features.NewLinkSet("/a", "/b"))
	table.Set(2, features.NewLinkSet("/b", "/a"))
	table.Set(3, features.NewLinkSet())
	table.Set(4, features.NewLinkSet())
	r := New("link-overlap", table, metric.Jaccard, metrics.New())
	out, err := run(t, r, "1\t2\t3\n3\t4\n")
	require.NoError(t, err)
	assert.Equal(t, "1\t2:1.0\t3:0.0\n3\t4:0.0\n", out)
}

func TestRescoreUnknownDocumentIsFatal(t *testing.T) {
	r := New("url-distance", urlTable("/a", "/b"), metric.EditDistance, metrics.New())

	_, err := run(t, r, "1\t2\n1\t7\n")
	assert.True(t, apperrors.Is(err, apperrors.ErrDocumentNotFound))

	_, err = run(t, r, "9\t1\n")
	assert.True(t, apperrors.Is(err, apperrors.ErrDocumentNotFound))
}

func TestRescoreLegacyGapIsFatal(t *testing.T) {
	table := features.NewTable[string]()
	table.Set(1, "/a")
	table.Set(3, "/c")
	r := New("url-distance", table, metric.EditDistance, metrics.New())
	_, err := run(t, r, "1\t3\n")
	require.NoError(t, err)
	_, err = run(t, r, "1\t2\n")
	assert.True(t, apperrors.Is(err, apperrors.ErrDocumentNotFound))
}

func TestRescoreBadID(t *testing.T) {
	r := New("url-distance", urlTable("/a"), metric.EditDistance, metrics.New())
	_, err := run(t, r, "1\tabc:0.3\n")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestRescoreWithoutMetrics(t *testing.T) {
	r := New("url-distance", urlTable("/x", "/xy"), metric.EditDistance, nil)
	out, err := run(t, r, "1\t2\n3\n")
	require.NoError(t, err)
	assert.Equal(t, "1\t2:0.3333333333333333\n", out)
}

func TestRescoreLine(t *testing.T) {
	r := New("url-distance", urlTable("/x", "/xy"), metric.EditDistance, metrics.New())
	out, ok, err := r.RescoreLine("2\t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2\t1:0.3333333333333333", out)

	_, ok, err = r.RescoreLine("2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.5, "0.5"},
		{1.0 / 3.0, "0.3333333333333333"},
		{0.00001, "1e-05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatScore(tt.in))
	}
}
