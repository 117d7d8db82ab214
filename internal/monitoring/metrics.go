package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	QueueDepth   prometheus.Gauge
	DedupedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescout_pipeline_runs_total",
			Help: "The total number of pipeline runs by outcome",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricescout_pipeline_run_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pricescout_queue_depth",
			Help: "Number of submissions waiting in the processing queue",
		}),
		DedupedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pricescout_submissions_deduplicated_total",
			Help: "Submissions skipped because the same image was seen recently",
		}),
	}
}

// ObserveRun records one pipeline run outcome and its duration.
func (m *Metrics) ObserveRun(succeeded bool, elapsed time.Duration) {
	status := "ok"
	if !succeeded {
		status = "failed"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncDeduped() {
	m.DedupedTotal.Inc()
}
