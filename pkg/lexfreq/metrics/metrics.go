// Package metrics defines the Prometheus collectors for a corpus run and
// an optional HTTP endpoint for scraping them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// File outcome labels.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Metrics holds all collectors for one registry.
type Metrics struct {
	FilesTotal   *prometheus.CounterVec
	TokensTotal  prometheus.Counter
	WordsTotal   prometheus.Counter
	SkippedTotal prometheus.Counter
	FileDuration prometheus.Histogram
	TableKeys    prometheus.Gauge
	registry     *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexfreq_files_total",
				Help: "Corpus files processed, by outcome.",
			},
			[]string{"status"},
		),
		TokensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexfreq_tokens_total",
			Help: "Word elements extracted.",
		}),
		WordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexfreq_words_total",
			Help: "Tokens accepted by the normalizer.",
		}),
		SkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lexfreq_skipped_elements_total",
			Help: "Word elements skipped for lacking text.",
		}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexfreq_file_duration_seconds",
			Help:    "Time to decode and count one file.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		TableKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lexfreq_table_keys",
			Help: "Distinct keys in the run frequency table.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.FilesTotal,
		m.TokensTotal,
		m.WordsTotal,
		m.SkippedTotal,
		m.FileDuration,
		m.TableKeys,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr until the returned shutdown is called.
func (m *Metrics) StartServer(addr string) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
