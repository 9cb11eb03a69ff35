package persist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's prometheus collectors. A nil registerer
// builds unregistered collectors, which is what tests use.
type Metrics struct {
	Flushes       *prometheus.CounterVec
	WriteRetries  prometheus.Counter
	Backups       prometheus.Counter
	Recoveries    prometheus.Counter
	DocumentBytes prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Flushes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "habitquest_persist_flushes_total",
			Help: "Document flushes by result.",
		}, []string{"result"}),
		WriteRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "habitquest_persist_write_retries_total",
			Help: "Store writes retried after a failure.",
		}),
		Backups: f.NewCounter(prometheus.CounterOpts{
			Name: "habitquest_persist_backups_total",
			Help: "Backup records written.",
		}),
		Recoveries: f.NewCounter(prometheus.CounterOpts{
			Name: "habitquest_persist_recoveries_total",
			Help: "Loads served from a backup record.",
		}),
		DocumentBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "habitquest_persist_document_bytes",
			Help: "Size of the last stored envelope.",
		}),
	}
}
