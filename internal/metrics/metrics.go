package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	IncomingMessages  *prometheus.CounterVec
	OutgoingMessages  *prometheus.CounterVec
	SheetsRequests    *prometheus.CounterVec
	SheetsLatency     *prometheus.HistogramVec
	DialogTransitions *prometheus.CounterVec
	ReportsBuilt      *prometheus.CounterVec
	Errors            *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			IncomingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incoming_messages_total",
				Help:      "Total incoming chat messages processed.",
			}, []string{"type"}),
			OutgoingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outgoing_messages_total",
				Help:      "Total outgoing chat messages sent.",
			}, []string{"type"}),
			SheetsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sheets_requests_total",
				Help:      "Total Google Sheets API requests by operation and status.",
			}, []string{"operation", "status"}),
			SheetsLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sheets_request_duration_seconds",
				Help:      "Latency distribution for Google Sheets API requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation", "status"}),
			DialogTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dialog_transitions_total",
				Help:      "Total dialogue state transitions by target stage.",
			}, []string{"stage"}),
			ReportsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_built_total",
				Help:      "Total ledger reports built by query kind.",
			}, []string{"kind"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.IncomingMessages,
			metricsInstance.OutgoingMessages,
			metricsInstance.SheetsRequests,
			metricsInstance.SheetsLatency,
			metricsInstance.DialogTransitions,
			metricsInstance.ReportsBuilt,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
