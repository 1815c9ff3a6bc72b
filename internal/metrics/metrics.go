// Package metrics exposes Prometheus collectors for the reward ledger.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clawearning"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "actions_total",
			Help:      "Ledger actions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	credited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credited_total",
			Help:      "Currency credited, by entry kind.",
		},
		[]string{"kind"},
	)

	debited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "debited_total",
			Help:      "Currency debited, by entry kind.",
		},
		[]string{"kind"},
	)

	storageRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "storage_retries_total",
			Help:      "Transactions retried after a storage failure.",
		},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "daily_sweep_duration_seconds",
			Help:      "Duration of the daily reset sweep.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	sweepResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "daily_sweep_resets_total",
			Help:      "Accounts whose day counters were reset by the sweep.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		actions,
		credited,
		debited,
		storageRetries,
		sweepDuration,
		sweepResets,
		notifications,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordAction counts a dispatched action. Outcome is success, declined or error.
func RecordAction(kind, outcome string) {
	actions.WithLabelValues(kind, outcome).Inc()
}

// RecordEntry counts a committed ledger movement
func RecordEntry(kind string, amount int64) {
	if amount >= 0 {
		credited.WithLabelValues(kind).Add(float64(amount))
		return
	}
	debited.WithLabelValues(kind).Add(float64(-amount))
}

// RecordStorageRetry counts one retried transaction
func RecordStorageRetry() {
	storageRetries.Inc()
}

// RecordSweep records a finished daily sweep
func RecordSweep(d time.Duration, resets int) {
	sweepDuration.Observe(d.Seconds())
	sweepResets.Add(float64(resets))
}

// RecordNotification counts a delivery attempt. Result is delivered or failed.
func RecordNotification(kind, result string) {
	notifications.WithLabelValues(kind, result).Inc()
}
