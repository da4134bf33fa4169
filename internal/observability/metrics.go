package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agroclim"

// Metrics holds the Prometheus counters, histograms, and gauges for extraction runs.
type Metrics struct {
	PointsExtracted   prometheus.Counter
	BatchesDispatched prometheus.Counter
	BatchFailures     prometheus.Counter
	BatchDuration     prometheus.Histogram
	RunDuration       prometheus.Histogram
	DatasetsOpen      prometheus.Gauge

	// Runs by kind={combined,amber,forecast,mask} and outcome={success,empty,error}.
	Runs *prometheus.CounterVec
}

func newMetrics() *Metrics {
	return &Metrics{
		PointsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_extracted_total",
			Help:      "Total grid points extracted.",
		}),
		BatchesDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_dispatched_total",
			Help:      "Total point batches handed to workers.",
		}),
		BatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_failures_total",
			Help:      "Total batches that failed.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of one batch extraction.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extraction run.",
			Buckets:   []float64{1, 10, 30, 60, 300, 600, 1800, 3600, 7200},
		}),
		DatasetsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets_open",
			Help:      "Number of gridded datasets currently open.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Extraction runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PointsExtracted,
		m.BatchesDispatched,
		m.BatchFailures,
		m.BatchDuration,
		m.RunDuration,
		m.DatasetsOpen,
		m.Runs,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can create as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ArchiveMetrics describes the archive loaded by the query server.
type ArchiveMetrics struct {
	Points  prometheus.Gauge
	Created prometheus.Gauge
}

func newArchiveMetrics() *ArchiveMetrics {
	return &ArchiveMetrics{
		Points: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_points",
			Help:      "Number of points in the served archive.",
		}),
		Created: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_created_timestamp_seconds",
			Help:      "Creation time of the served archive as a Unix timestamp.",
		}),
	}
}

// NewArchiveMetrics creates and registers the archive gauges with the default
// Prometheus registry.
func NewArchiveMetrics() *ArchiveMetrics {
	m := newArchiveMetrics()
	prometheus.MustRegister(m.Points, m.Created)
	return m
}

// NewArchiveMetricsForTesting creates unregistered archive gauges.
func NewArchiveMetricsForTesting() *ArchiveMetrics {
	return newArchiveMetrics()
}

// SetArchive records the size and creation time of the served archive.
func (m *ArchiveMetrics) SetArchive(points int, created time.Time) {
	m.Points.Set(float64(points))
	m.Created.Set(float64(created.Unix()))
}
