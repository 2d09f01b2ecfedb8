package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// emailsSentTotal counts per-recipient send outcomes.
	// Labels:
	// - provider: gmail | outlook | yahoo | zoho | custom
	// - status:   success | failed
	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postal",
			Subsystem: "dispatch",
			Name:      "emails_sent_total",
			Help:      "Per-recipient send outcomes by provider and status.",
		},
		[]string{"provider", "status"},
	)

	// dispatchRunsTotal counts completed dispatch runs.
	// Labels:
	// - mode:   sequential | batched
	// - status: success | failed | partial
	dispatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postal",
			Subsystem: "dispatch",
			Name:      "runs_total",
			Help:      "Completed dispatch runs by mode and aggregate status.",
		},
		[]string{"mode", "status"},
	)

	// dispatchRunDuration observes wall-clock duration of dispatch runs.
	dispatchRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "postal",
			Subsystem: "dispatch",
			Name:      "run_duration_seconds",
			Help:      "Duration of a dispatch run in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"mode"},
	)

	// queueJobsTotal counts queue job terminal transitions.
	// Labels:
	// - status: completed | failed | cancelled
	queueJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "postal",
			Subsystem: "queue",
			Name:      "jobs_total",
			Help:      "Queue jobs by terminal status.",
		},
		[]string{"status"},
	)
)

// IncEmailSent increments the per-recipient outcome counter.
func IncEmailSent(provider, status string) {
	if provider == "" {
		provider = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	emailsSentTotal.WithLabelValues(provider, status).Inc()
}

// IncDispatchRun increments the run counter.
func IncDispatchRun(mode, status string) {
	if mode == "" {
		mode = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	dispatchRunsTotal.WithLabelValues(mode, status).Inc()
}

// ObserveDispatchRunDuration records a run duration in seconds.
func ObserveDispatchRunDuration(mode string, seconds float64) {
	if mode == "" {
		mode = "unknown"
	}
	dispatchRunDuration.WithLabelValues(mode).Observe(seconds)
}

// IncQueueJob increments the queue terminal-status counter.
func IncQueueJob(status string) {
	if status == "" {
		status = "unknown"
	}
	queueJobsTotal.WithLabelValues(status).Inc()
}
