package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/JvM3d/conversor-de-partituras/internal/pipeline"
)

// metrics tracks conversion outcomes for the /metrics endpoint
type metrics struct {
	registry    *prometheus.Registry
	pages       *prometheus.CounterVec
	jobDuration prometheus.Histogram
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &metrics{
		registry: registry,
		pages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "partituras_pages_total",
			Help: "Pages processed, by terminal status.",
		}, []string{"status"}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "partituras_job_duration_seconds",
			Help:    "Wall time of whole conversion jobs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *metrics) observeJob(result *pipeline.Result, elapsed time.Duration) {
	for _, report := range result.Pages {
		m.pages.WithLabelValues(string(report.Status)).Inc()
	}
	m.jobDuration.Observe(elapsed.Seconds())
}
