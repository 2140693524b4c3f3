package report

import (
	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for crawl runs.
type Metrics struct {
	Registry       *prometheus.Registry
	EventsTotal    *prometheus.CounterVec
	LastRunRecords prometheus.Gauge
	RunDuration    prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frame_scraper_events_total",
			Help: "Crawl lifecycle events by kind.",
		},
		[]string{"kind"},
	)
	lastRunRecords := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "frame_scraper_last_run_records",
			Help: "Records extracted by the most recent run.",
		},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "frame_scraper_run_duration_seconds",
			Help:    "Wall-clock duration of crawl runs.",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10),
		},
	)

	registry.MustRegister(events, lastRunRecords, runDuration)

	return &Metrics{
		Registry:       registry,
		EventsTotal:    events,
		LastRunRecords: lastRunRecords,
		RunDuration:    runDuration,
	}
}

func (m *Metrics) OnEvent(e catalog.Event) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(string(e.Kind)).Inc()

	if e.Kind == catalog.EventRunFinished && e.Stats != nil {
		m.LastRunRecords.Set(float64(e.Stats.Records))
		m.RunDuration.Observe(e.Stats.Elapsed.Seconds())
	}
}
