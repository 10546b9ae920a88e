// Package manager is the orchestration core: it executes operations under
// per-operation circuit breakers with bounded exponential backoff, and files
// exhausted failures into the dead-letter store for slow re-attempts.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/provenly/resilience/internal/alert"
	"github.com/provenly/resilience/internal/core/domain"
	"github.com/provenly/resilience/internal/metrics"
	"github.com/provenly/resilience/internal/resilience/breaker"
	"github.com/provenly/resilience/internal/resilience/dlq"
)

// Operation is a caller-supplied asynchronous call.
type Operation func(ctx context.Context) (any, error)

// Config holds manager-level settings.
type Config struct {
	// Breaker is the default config for lazily-created circuit breakers.
	Breaker breaker.Config
	// DeadLetterDelay is how far in the future the first re-attempt of a
	// fresh dead-letter entry is scheduled.
	DeadLetterDelay time.Duration
	// SweepInterval is how often due entries are re-attempted.
	SweepInterval time.Duration
	// SweepRetryDelay is how far NextRetryAt is pushed after a failed re-attempt.
	SweepRetryDelay time.Duration
	// MaxDeadLetterAttempts is the hard ceiling; entries past it are evicted.
	MaxDeadLetterAttempts int
}

// DefaultConfig provides production defaults.
var DefaultConfig = Config{
	Breaker:               breaker.DefaultConfig,
	DeadLetterDelay:       5 * time.Minute,
	SweepInterval:         60 * time.Second,
	SweepRetryDelay:       10 * time.Minute,
	MaxDeadLetterAttempts: 10,
}

// Manager owns one circuit breaker per operation name and the dead-letter
// store. Construct one per process at the composition root and inject it;
// there is no hidden singleton.
type Manager struct {
	cfg      Config
	store    dlq.Store
	recorder alert.Recorder
	notifier alert.Notifier
	log      *slog.Logger

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker

	replayMu sync.RWMutex
	replayer Replayer
}

// New creates a Manager. Zero config values fall back to DefaultConfig.
func New(
	cfg Config,
	store dlq.Store,
	recorder alert.Recorder,
	notifier alert.Notifier,
	log *slog.Logger,
) *Manager {
	if cfg.DeadLetterDelay <= 0 {
		cfg.DeadLetterDelay = DefaultConfig.DeadLetterDelay
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultConfig.SweepInterval
	}
	if cfg.SweepRetryDelay <= 0 {
		cfg.SweepRetryDelay = DefaultConfig.SweepRetryDelay
	}
	if cfg.MaxDeadLetterAttempts <= 0 {
		cfg.MaxDeadLetterAttempts = DefaultConfig.MaxDeadLetterAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	if recorder == nil {
		recorder = alert.NewLogRecorder(log)
	}
	if notifier == nil {
		notifier = alert.NewLogNotifier(log)
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		recorder: recorder,
		notifier: notifier,
		log:      log,
		breakers: make(map[string]*breaker.Breaker),
	}
}

// ExecuteWithRetry runs op under the circuit breaker for operationName with
// bounded exponential backoff. The breaker sees the whole retry sequence as a
// single logical call: its failure counter moves once per invocation that
// exhausts retries, not once per attempt. The original error is always the
// one returned, never wrapped, except for the circuit-open rejection.
func (m *Manager) ExecuteWithRetry(
	ctx context.Context,
	op Operation,
	operationName string,
	opCtx domain.OperationContext,
	policy domain.RetryPolicy,
) (any, error) {
	br := m.breakerFor(operationName)

	result, err := br.Execute(ctx, func(ctx context.Context) (any, error) {
		return m.attempt(ctx, op, operationName, opCtx, policy)
	})

	metrics.CircuitBreakerState.WithLabelValues(operationName).Set(float64(br.State()))
	if errors.Is(err, domain.ErrCircuitOpen) {
		metrics.CircuitOpenRejections.WithLabelValues(operationName).Inc()
		m.log.Warn("Call rejected by open circuit", "operation", operationName)
	}
	return result, err
}

// Execute runs op under m with a typed result.
func Execute[T any](
	ctx context.Context,
	m *Manager,
	op func(ctx context.Context) (T, error),
	operationName string,
	opCtx domain.OperationContext,
	policy domain.RetryPolicy,
) (T, error) {
	result, err := m.ExecuteWithRetry(ctx, func(ctx context.Context) (any, error) {
		return op(ctx)
	}, operationName, opCtx, policy)
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (m *Manager) attempt(
	ctx context.Context,
	op Operation,
	operationName string,
	opCtx domain.OperationContext,
	policy domain.RetryPolicy,
) (any, error) {
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			metrics.RetryAttemptsTotal.WithLabelValues(operationName, "success").Inc()
			m.clearDeadLetter(ctx, operationName, opCtx)
			return result, nil
		}

		metrics.RetryAttemptsTotal.WithLabelValues(operationName, "failure").Inc()

		if attempt <= policy.MaxRetries && policy.Retryable(err) {
			delay := policy.Delay(attempt)
			m.log.Warn("Operation failed, retrying",
				"operation", operationName,
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		m.deadLetter(ctx, operationName, opCtx, err, attempt)
		return nil, err
	}
}

// breakerFor returns the breaker for an operation name, creating it lazily.
// Breakers are never removed.
func (m *Manager) breakerFor(operationName string) *breaker.Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	br, ok := m.breakers[operationName]
	if !ok {
		br = breaker.New(m.cfg.Breaker)
		m.breakers[operationName] = br
	}
	return br
}

// clearDeadLetter removes any stale entry for an operation that now succeeds.
func (m *Manager) clearDeadLetter(ctx context.Context, operationName string, opCtx domain.OperationContext) {
	id := domain.EntryID(operationName, opCtx)
	if err := m.store.Remove(ctx, id); err != nil {
		m.log.Warn("Failed to clear dead-letter entry", "id", id, "error", err)
	}
	m.updateQueueSizeMetric(ctx)
}

// deadLetter files an exhausted failure and emits the corresponding alerts.
func (m *Manager) deadLetter(
	ctx context.Context,
	operationName string,
	opCtx domain.OperationContext,
	opErr error,
	attempts int,
) {
	now := time.Now()
	entry := &domain.DeadLetterEntry{
		ID:            domain.EntryID(operationName, opCtx),
		OperationName: operationName,
		Payload:       opCtx.Metadata,
		Context:       opCtx,
		Attempts:      attempts,
		LastError:     opErr.Error(),
		NextRetryAt:   now.Add(m.cfg.DeadLetterDelay),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.store.Put(ctx, entry); err != nil {
		m.log.Error("Failed to store dead-letter entry", "id", entry.ID, "error", err)
	}
	metrics.DeadLetteredTotal.WithLabelValues(string(opCtx.Kind), string(opCtx.Severity)).Inc()
	m.updateQueueSizeMetric(ctx)

	m.log.Error("Operation dead-lettered",
		"operation", operationName,
		"attempts", attempts,
		"severity", opCtx.Severity,
		"error", opErr,
	)

	message := fmt.Sprintf("Operation failed after %d attempts: %s", attempts, entry.LastError)
	if err := m.recorder.CreateSystemAlert(ctx, alert.SystemAlert{
		AlertType: "error",
		Message:   message,
		Severity:  opCtx.Severity,
	}); err != nil {
		m.log.Error("Failed to persist system alert", "operation", operationName, "error", err)
	}

	if opCtx.Severity == domain.SeverityCritical {
		if err := m.notifier.SendSystemAlert(ctx, alert.Notification{
			Type:     "error",
			Title:    fmt.Sprintf("CRITICAL: %s Failed", operationName),
			Message:  message,
			Severity: opCtx.Severity,
		}); err != nil {
			m.log.Error("Failed to send critical notification", "operation", operationName, "error", err)
		}
	}
}

func (m *Manager) updateQueueSizeMetric(ctx context.Context) {
	if count, err := m.store.Count(ctx); err == nil {
		metrics.DeadLetterQueueSize.Set(float64(count))
	}
}

// Stats is the admin-facing health snapshot.
type Stats struct {
	TotalFailed          int                          `json:"total_failed"`
	ByType               map[domain.OperationKind]int `json:"by_type"`
	BySeverity           map[domain.Severity]int      `json:"by_severity"`
	CircuitBreakerStates map[string]string            `json:"circuit_breaker_states"`
}

// Stats returns failed-operation counts grouped by kind and severity, plus
// the current state of every circuit breaker. Counts reflect only entries
// currently in the dead-letter store.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list dead-letter entries: %w", err)
	}

	stats := Stats{
		TotalFailed:          len(entries),
		ByType:               make(map[domain.OperationKind]int),
		BySeverity:           make(map[domain.Severity]int),
		CircuitBreakerStates: make(map[string]string),
	}
	for _, e := range entries {
		stats.ByType[e.Context.Kind]++
		stats.BySeverity[e.Context.Severity]++
	}

	m.mu.Lock()
	for name, br := range m.breakers {
		stats.CircuitBreakerStates[name] = br.State().String()
	}
	m.mu.Unlock()

	return stats, nil
}

// FailedOperations returns the full dead-letter snapshot.
func (m *Manager) FailedOperations(ctx context.Context) ([]*domain.DeadLetterEntry, error) {
	return m.store.List(ctx)
}
