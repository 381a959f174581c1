package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	LedgerTransactions *prometheus.CounterVec
	WebhookEvents      *prometheus.CounterVec
	VideoTasks         *prometheus.CounterVec
	LedgerDrift        prometheus.Counter
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			LedgerTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_transactions_total",
				Help:      "Total credit ledger entries written, by source and type.",
			}, []string{"source", "type"}),
			WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total Stripe webhook events received, by type and outcome.",
			}, []string{"type", "result"}),
			VideoTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "video_tasks_total",
				Help:      "Total video generation tasks, by final status.",
			}, []string{"status"}),
			LedgerDrift: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_drift_total",
				Help:      "Accounts found with a balance that does not match the ledger sum.",
			}),
		}

		prometheus.MustRegister(
			metricsInstance.LedgerTransactions,
			metricsInstance.WebhookEvents,
			metricsInstance.VideoTasks,
			metricsInstance.LedgerDrift,
		)
	})
	return metricsInstance
}
