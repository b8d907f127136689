package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	PayloadsBuilt    prometheus.Counter
	PayloadErrors    prometheus.Counter
	RenderFailures   prometheus.Counter
	RenderDuration   prometheus.Histogram
	CheckoutsCreated prometheus.Counter
	StatusChanges    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PayloadsBuilt: f.NewCounter(prometheus.CounterOpts{
			Name: "qris_payloads_built_total",
			Help: "Total number of dynamic QRIS payloads built",
		}),
		PayloadErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "qris_payload_errors_total",
			Help: "Total number of rejected payload builds",
		}),
		RenderFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "qris_render_failures_total",
			Help: "Total number of QR renders that failed after all attempts",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qris_render_duration_seconds",
			Help:    "Time spent rendering QR images, retries included",
			Buckets: prometheus.DefBuckets,
		}),
		CheckoutsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "qris_checkouts_created_total",
			Help: "Total number of pending transactions created by checkout",
		}),
		StatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qris_transaction_status_changes_total",
			Help: "Transaction status changes by target status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementStatusChange(status string) {
	m.StatusChanges.WithLabelValues(status).Inc()
}
