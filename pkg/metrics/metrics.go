// Package metrics defines the Prometheus collectors recorded during an index
// build or a rescoring run, and exports them either over HTTP or as a
// textfile for node-exporter style collection once the batch finishes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors for one run. Each instance owns its registry
// so several runs can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	DocumentsTotal        *prometheus.CounterVec
	PostingsWrittenTotal  *prometheus.CounterVec
	PostingsPrunedTotal   *prometheus.CounterVec
	NormalizerFallbacks   *prometheus.CounterVec
	TransformDuration     *prometheus.HistogramVec
	CandidateLinesTotal   *prometheus.CounterVec
	CandidatesScoredTotal *prometheus.CounterVec
	FeatureRecordsTotal   *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_documents_total",
				Help: "Documents consumed by the index builder, by language.",
			},
			[]string{"lang"},
		),
		PostingsWrittenTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_postings_written_total",
				Help: "Posting lines written, by language.",
			},
			[]string{"lang"},
		),
		PostingsPrunedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_postings_pruned_total",
				Help: "Posting lists dropped by the maximum occurrence filter, by language.",
			},
			[]string{"lang"},
		),
		NormalizerFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_normalizer_fallbacks_total",
				Help: "Documents whose morphological normalization was discarded.",
			},
			[]string{"reason"},
		),
		TransformDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docalign_transform_duration_seconds",
				Help:    "Latency of text transform invocations.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"stage"},
		),
		CandidateLinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_candidate_lines_total",
				Help: "Candidate lines read by the rescorer, by result (rescored, dropped).",
			},
			[]string{"result"},
		),
		CandidatesScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_candidates_scored_total",
				Help: "Candidate pairs scored, by metric.",
			},
			[]string{"metric"},
		),
		FeatureRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docalign_feature_records_total",
				Help: "Feature records read, by source and status (loaded, skipped).",
			},
			[]string{"source", "status"},
		),
	}

	m.Registry.MustRegister(
		m.DocumentsTotal,
		m.PostingsWrittenTotal,
		m.PostingsPrunedTotal,
		m.NormalizerFallbacks,
		m.TransformDuration,
		m.CandidateLinesTotal,
		m.CandidatesScoredTotal,
		m.FeatureRecordsTotal,
	)

	return m
}

// Handler returns the scrape handler for this run's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values in the Prometheus text format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
