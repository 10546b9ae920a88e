package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetryAttemptsTotal tracks individual attempts per operation and outcome.
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_retry_attempts_total",
			Help: "Total number of operation attempts",
		},
		[]string{"operation", "outcome"},
	)

	// DeadLetteredTotal tracks operations filed into the dead-letter store.
	DeadLetteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_dead_lettered_total",
			Help: "Total number of operations dead-lettered after exhausting retries",
		},
		[]string{"kind", "severity"},
	)

	// DeadLetterQueueSize tracks the current dead-letter store size.
	DeadLetterQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "resilience_dead_letter_queue_size",
			Help: "Current number of entries in the dead-letter store",
		},
	)

	// CircuitBreakerState exposes breaker state per operation name
	// (0 = closed, 1 = open, 2 = half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resilience_circuit_breaker_state",
			Help: "Circuit breaker state per operation (0=closed, 1=open, 2=half-open)",
		},
		[]string{"operation"},
	)

	// CircuitOpenRejections tracks fast-fail rejections while a breaker is open.
	CircuitOpenRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_circuit_open_rejections_total",
			Help: "Total number of calls rejected because the circuit was open",
		},
		[]string{"operation"},
	)

	// SweepRunsTotal tracks dead-letter sweep iterations.
	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resilience_sweep_runs_total",
			Help: "Total number of dead-letter sweep runs",
		},
	)

	// SweepReplaysTotal tracks sweep re-attempt outcomes.
	SweepReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resilience_sweep_replays_total",
			Help: "Total number of dead-letter re-attempts by outcome",
		},
		[]string{"outcome"},
	)
)
