package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
)

func putEntry(t *testing.T, m *Manager, id string, attempts int, nextRetryAt time.Time) *domain.DeadLetterEntry {
	t.Helper()
	entry := &domain.DeadLetterEntry{
		ID:            id,
		OperationName: "blockchain_transaction",
		Context: domain.OperationContext{
			Kind:     domain.KindBlockchainTransaction,
			Severity: domain.SeverityHigh,
		},
		Attempts:    attempts,
		LastError:   "timeout",
		NextRetryAt: nextRetryAt,
		CreatedAt:   time.Now().Add(-time.Hour),
		UpdatedAt:   time.Now().Add(-time.Hour),
	}
	if err := m.store.Put(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	return entry
}

func TestSweep_SuccessfulReplayEvicts(t *testing.T) {
	m, store, _, _ := newTestManager(Config{})
	ctx := context.Background()

	putEntry(t, m, "entry-ok", 4, time.Now().Add(-time.Minute))
	m.SetReplayer(ReplayerFunc(func(ctx context.Context, entry *domain.DeadLetterEntry) error {
		return nil
	}))

	if err := m.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Errorf("expected entry evicted after successful replay, count=%d", count)
	}
}

func TestSweep_FailedReplayReschedules(t *testing.T) {
	m, store, _, _ := newTestManager(Config{SweepRetryDelay: 10 * time.Minute})
	ctx := context.Background()

	putEntry(t, m, "entry-fail", 4, time.Now().Add(-time.Minute))
	m.SetReplayer(ReplayerFunc(func(ctx context.Context, entry *domain.DeadLetterEntry) error {
		return errors.New("node still unreachable")
	}))

	before := time.Now()
	if err := m.Sweep(ctx); err != nil {
		t.Fatal(err)
	}

	entry, _ := store.Get(ctx, "entry-fail")
	if entry == nil {
		t.Fatal("entry should still be present")
	}
	if entry.Attempts != 5 {
		t.Errorf("expected attempts incremented to 5, got %d", entry.Attempts)
	}
	if entry.LastError != "node still unreachable" {
		t.Errorf("expected last error updated, got %q", entry.LastError)
	}
	if entry.NextRetryAt.Before(before.Add(9 * time.Minute)) {
		t.Errorf("expected NextRetryAt pushed ~10m forward, got %v", entry.NextRetryAt)
	}
}

func TestSweep_CeilingEvictsWithFinalRecord(t *testing.T) {
	m, store, recorder, _ := newTestManager(Config{MaxDeadLetterAttempts: 10})
	ctx := context.Background()

	// Attempt 11 (> ceiling of 10) after this failed re-attempt.
	putEntry(t, m, "entry-ceiling", 10, time.Now().Add(-time.Minute))
	replays := 0
	m.SetReplayer(ReplayerFunc(func(ctx context.Context, entry *domain.DeadLetterEntry) error {
		replays++
		return errors.New("still failing")
	}))

	if err := m.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Errorf("expected entry evicted at ceiling, count=%d", count)
	}
	if recorder.count() != 1 {
		t.Errorf("expected final failure record, got %d records", recorder.count())
	}

	// Evicted entries get no further attempts.
	if err := m.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if replays != 1 {
		t.Errorf("expected no replay after eviction, got %d", replays)
	}
}

func TestSweep_NoReplayerCountsAsFailure(t *testing.T) {
	m, store, _, _ := newTestManager(Config{})
	ctx := context.Background()

	putEntry(t, m, "entry-noreplay", 4, time.Now().Add(-time.Minute))

	if err := m.Sweep(ctx); err != nil {
		t.Fatal(err)
	}

	entry, _ := store.Get(ctx, "entry-noreplay")
	if entry == nil {
		t.Fatal("entry should remain scheduled")
	}
	if entry.Attempts != 5 {
		t.Errorf("expected attempts incremented, got %d", entry.Attempts)
	}
	if entry.LastError != ErrNoReplayer.Error() {
		t.Errorf("expected ErrNoReplayer recorded, got %q", entry.LastError)
	}
}

func TestSweep_SkipsNotYetDue(t *testing.T) {
	m, _, _, _ := newTestManager(Config{})
	ctx := context.Background()

	putEntry(t, m, "entry-future", 4, time.Now().Add(time.Hour))
	replays := 0
	m.SetReplayer(ReplayerFunc(func(ctx context.Context, entry *domain.DeadLetterEntry) error {
		replays++
		return nil
	}))

	if err := m.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if replays != 0 {
		t.Errorf("expected no replay for future entry, got %d", replays)
	}
}

func TestRun_PeriodicSweep(t *testing.T) {
	m, store, _, _ := newTestManager(Config{SweepInterval: 20 * time.Millisecond})

	putEntry(t, m, "entry-run", 4, time.Now().Add(-time.Minute))
	m.SetReplayer(ReplayerFunc(func(ctx context.Context, entry *domain.DeadLetterEntry) error {
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}

	if count, _ := store.Count(context.Background()); count != 0 {
		t.Errorf("expected periodic sweep to drain the store, count=%d", count)
	}
}
