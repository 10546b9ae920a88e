package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/provenly/resilience/internal/alert"
	"github.com/provenly/resilience/internal/core/domain"
	"github.com/provenly/resilience/internal/metrics"
)

// Replayer re-submits a dead-lettered operation. Operation-specific replay is
// the consumer's responsibility; the manager only guarantees scheduling and
// bookkeeping.
type Replayer interface {
	Replay(ctx context.Context, entry *domain.DeadLetterEntry) error
}

// ReplayerFunc adapts a function to the Replayer interface.
type ReplayerFunc func(ctx context.Context, entry *domain.DeadLetterEntry) error

func (f ReplayerFunc) Replay(ctx context.Context, entry *domain.DeadLetterEntry) error {
	return f(ctx, entry)
}

// ErrNoReplayer is reported when a re-attempt is due but no replayer is
// wired in. The entry stays scheduled and is counted as a failed re-attempt.
var ErrNoReplayer = errors.New("no replayer configured")

// SetReplayer wires in the operation-specific replay logic.
func (m *Manager) SetReplayer(r Replayer) {
	m.replayMu.Lock()
	defer m.replayMu.Unlock()
	m.replayer = r
}

func (m *Manager) replay(ctx context.Context, entry *domain.DeadLetterEntry) error {
	m.replayMu.RLock()
	r := m.replayer
	m.replayMu.RUnlock()

	if r == nil {
		return ErrNoReplayer
	}
	return r.Replay(ctx, entry)
}

// Run executes the periodic dead-letter sweep until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sweep(ctx); err != nil {
				m.log.Error("Dead-letter sweep failed", "error", err)
			}
		}
	}
}

// Sweep re-attempts every due entry once. Failed re-attempts are rescheduled
// and counted; entries past the attempts ceiling are evicted with a final
// failure record.
func (m *Manager) Sweep(ctx context.Context) error {
	metrics.SweepRunsTotal.Inc()

	now := time.Now()
	due, err := m.store.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to scan due entries: %w", err)
	}

	for _, entry := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.sweepEntry(ctx, entry, now)
	}

	m.updateQueueSizeMetric(ctx)
	return nil
}

func (m *Manager) sweepEntry(ctx context.Context, entry *domain.DeadLetterEntry, now time.Time) {
	replayErr := m.replay(ctx, entry)
	if replayErr == nil {
		metrics.SweepReplaysTotal.WithLabelValues("success").Inc()
		if err := m.store.Remove(ctx, entry.ID); err != nil {
			m.log.Error("Failed to evict replayed entry", "id", entry.ID, "error", err)
			return
		}
		m.log.Info("Dead-lettered operation replayed",
			"operation", entry.OperationName,
			"id", entry.ID,
			"attempts", entry.Attempts,
		)
		return
	}

	metrics.SweepReplaysTotal.WithLabelValues("failure").Inc()
	entry.Attempts++
	entry.LastError = replayErr.Error()
	entry.UpdatedAt = now

	if entry.Attempts > m.cfg.MaxDeadLetterAttempts {
		if err := m.store.Remove(ctx, entry.ID); err != nil {
			m.log.Error("Failed to evict abandoned entry", "id", entry.ID, "error", err)
			return
		}
		m.log.Error("Dead-lettered operation abandoned",
			"operation", entry.OperationName,
			"id", entry.ID,
			"attempts", entry.Attempts,
			"error", replayErr,
		)
		message := fmt.Sprintf(
			"Operation failed after %d attempts: %s", entry.Attempts, entry.LastError,
		)
		if err := m.recorder.CreateSystemAlert(ctx, alert.SystemAlert{
			AlertType: "error",
			Message:   message,
			Severity:  entry.Context.Severity,
		}); err != nil {
			m.log.Error("Failed to persist final failure record", "id", entry.ID, "error", err)
		}
		return
	}

	entry.NextRetryAt = now.Add(m.cfg.SweepRetryDelay)
	if err := m.store.Put(ctx, entry); err != nil {
		m.log.Error("Failed to reschedule entry", "id", entry.ID, "error", err)
	}
}
