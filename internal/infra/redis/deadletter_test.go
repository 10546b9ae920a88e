package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/provenly/resilience/internal/core/domain"
)

func newTestRepo(t *testing.T) *DeadLetterRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &DeadLetterRepo{rdb: rdb}
}

func testEntry(id string, nextRetryAt time.Time) *domain.DeadLetterEntry {
	return &domain.DeadLetterEntry{
		ID:            id,
		OperationName: "blockchain_transaction",
		Payload:       map[string]string{"tx": "deadbeef"},
		Context: domain.OperationContext{
			Kind:     domain.KindBlockchainTransaction,
			Severity: domain.SeverityHigh,
			EventID:  "evt-1",
		},
		Attempts:    4,
		LastError:   "timeout",
		NextRetryAt: nextRetryAt,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

func TestDeadLetterRepo_PutGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := testEntry("a", time.Now().Add(5*time.Minute))
	if err := repo.Put(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.OperationName != want.OperationName ||
		got.Attempts != want.Attempts ||
		got.LastError != want.LastError ||
		got.Context.EventID != want.Context.EventID ||
		got.Payload["tx"] != "deadbeef" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if got, _ := repo.Get(ctx, "absent"); got != nil {
		t.Errorf("expected nil for absent entry, got %+v", got)
	}
}

func TestDeadLetterRepo_Due(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	_ = repo.Put(ctx, testEntry("past", now.Add(-time.Minute)))
	_ = repo.Put(ctx, testEntry("future", now.Add(time.Hour)))

	due, err := repo.Due(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != "past" {
		t.Errorf("expected only past entry due, got %v", due)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 entries listed, got %d", len(all))
	}
	if count, _ := repo.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestDeadLetterRepo_PutReschedules(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	entry := testEntry("resched", now.Add(-time.Minute))
	_ = repo.Put(ctx, entry)

	entry.Attempts++
	entry.NextRetryAt = now.Add(10 * time.Minute)
	if err := repo.Put(ctx, entry); err != nil {
		t.Fatal(err)
	}

	due, err := repo.Due(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("rescheduled entry still due: %v", due)
	}
	if count, _ := repo.Count(ctx); count != 1 {
		t.Errorf("expected single queue membership, got %d", count)
	}
}

func TestDeadLetterRepo_Remove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.Put(ctx, testEntry("gone", time.Now()))
	if err := repo.Remove(ctx, "gone"); err != nil {
		t.Fatal(err)
	}

	if got, _ := repo.Get(ctx, "gone"); got != nil {
		t.Errorf("expected entry deleted, got %+v", got)
	}
	if count, _ := repo.Count(ctx); count != 0 {
		t.Errorf("expected empty queue, got %d", count)
	}

	// Removing twice is fine.
	if err := repo.Remove(ctx, "gone"); err != nil {
		t.Errorf("second remove errored: %v", err)
	}
}

func TestDeadLetterRepo_ExpiredValueDropsQueueMember(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	repo := &DeadLetterRepo{rdb: rdb}
	ctx := context.Background()

	_ = repo.Put(ctx, testEntry("stale", time.Now().Add(-time.Minute)))

	// Expire the value while the ID stays queued.
	mr.FastForward(entryTTL + time.Hour)

	due, err := repo.Due(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("expected expired entry skipped, got %v", due)
	}
	if count, _ := repo.Count(ctx); count != 0 {
		t.Errorf("expected stale queue member dropped, got %d", count)
	}
}
