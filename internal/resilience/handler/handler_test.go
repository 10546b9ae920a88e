package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
	"github.com/provenly/resilience/internal/resilience/breaker"
	"github.com/provenly/resilience/internal/resilience/dlq"
	"github.com/provenly/resilience/internal/resilience/manager"
)

func newTestHandler(brCfg breaker.Config) (*Handler, *dlq.MemoryStore) {
	store := dlq.NewMemoryStore()
	m := manager.New(manager.Config{Breaker: brCfg}, store, nil, nil, nil)
	return New(m), store
}

func TestPresets_MatchCategoryTable(t *testing.T) {
	tests := []struct {
		name       string
		policy     domain.RetryPolicy
		maxRetries int
		baseDelay  time.Duration
		maxDelay   time.Duration
	}{
		{"blockchain", BlockchainPolicy, 5, 2 * time.Second, 60 * time.Second},
		{"database", DatabasePolicy, 3, 500 * time.Millisecond, 5 * time.Second},
		{"external_api", ExternalAPIPolicy, 4, time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		if err := tt.policy.Validate(); err != nil {
			t.Errorf("%s: invalid preset: %v", tt.name, err)
		}
		if tt.policy.MaxRetries != tt.maxRetries {
			t.Errorf("%s: MaxRetries = %d, want %d", tt.name, tt.policy.MaxRetries, tt.maxRetries)
		}
		if tt.policy.BaseDelay != tt.baseDelay {
			t.Errorf("%s: BaseDelay = %v, want %v", tt.name, tt.policy.BaseDelay, tt.baseDelay)
		}
		if tt.policy.MaxDelay != tt.maxDelay {
			t.Errorf("%s: MaxDelay = %v, want %v", tt.name, tt.policy.MaxDelay, tt.maxDelay)
		}
	}
}

func TestHandleBlockchainTransaction_FixesKindAndSeverity(t *testing.T) {
	h, store := newTestHandler(breaker.Config{})
	ctx := context.Background()

	// Not in the blockchain retryable list: exactly one attempt, immediate DLQ.
	attempts := 0
	_, err := h.HandleBlockchainTransaction(ctx, CallContext{
		CompanyID: "acme",
		EventID:   "evt-9",
	}, func(ctx context.Context) (any, error) {
		attempts++
		return nil, errors.New("invalid signature")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", attempts)
	}

	entries, _ := store.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.OperationName != OpBlockchainTransaction {
		t.Errorf("operation name = %q, want %q", e.OperationName, OpBlockchainTransaction)
	}
	if e.Context.Kind != domain.KindBlockchainTransaction {
		t.Errorf("kind = %q", e.Context.Kind)
	}
	if e.Context.Severity != domain.SeverityHigh {
		t.Errorf("severity = %q, want high", e.Context.Severity)
	}
	if e.Context.CompanyID != "acme" || e.Context.EventID != "evt-9" {
		t.Errorf("correlation fields not passed through: %+v", e.Context)
	}
}

func TestHandleDatabaseOperation_MediumSeverity(t *testing.T) {
	h, store := newTestHandler(breaker.Config{})
	ctx := context.Background()

	_, _ = h.HandleDatabaseOperation(ctx, CallContext{}, func(ctx context.Context) (any, error) {
		return nil, errors.New("duplicate key value")
	})

	entries, _ := store.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Context.Severity != domain.SeverityMedium {
		t.Errorf("severity = %q, want medium", entries[0].Context.Severity)
	}
	if entries[0].OperationName != OpDatabaseOperation {
		t.Errorf("operation name = %q", entries[0].OperationName)
	}
}

func TestCategory_SharesOneBreaker(t *testing.T) {
	h, _ := newTestHandler(breaker.Config{FailureThreshold: 2, ResetTimeout: time.Minute})
	ctx := context.Background()

	// Two different logical calls in the same category; both non-retryable.
	for _, msg := range []string{"invalid signature", "malformed payload"} {
		failure := msg
		_, _ = h.HandleBlockchainTransaction(ctx, CallContext{EventID: failure}, func(ctx context.Context) (any, error) {
			return nil, errors.New(failure)
		})
	}

	// The shared category breaker is now open for a third, unrelated call.
	invoked := false
	_, err := h.HandleBlockchainTransaction(ctx, CallContext{EventID: "evt-3"}, func(ctx context.Context) (any, error) {
		invoked = true
		return nil, nil
	})
	if !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if invoked {
		t.Error("operation ran despite open category breaker")
	}

	// Another category is untouched.
	if _, err := h.HandleExternalAPI(ctx, CallContext{}, func(ctx context.Context) (any, error) {
		return "ok", nil
	}); err != nil {
		t.Errorf("external_api affected by blockchain breaker: %v", err)
	}
}

func TestGetStats_ExposesBreakersAndCounts(t *testing.T) {
	h, _ := newTestHandler(breaker.Config{})
	ctx := context.Background()

	_, _ = h.HandleExternalAPI(ctx, CallContext{Endpoint: "https://api.partner.example"}, func(ctx context.Context) (any, error) {
		return nil, errors.New("unprocessable entity")
	})

	stats, err := h.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalFailed != 1 {
		t.Errorf("total failed = %d, want 1", stats.TotalFailed)
	}
	if stats.ByType[domain.KindExternalAPI] != 1 {
		t.Errorf("by_type[external_api] = %d", stats.ByType[domain.KindExternalAPI])
	}
	if state, ok := stats.CircuitBreakerStates[OpExternalAPI]; !ok || state != "CLOSED" {
		t.Errorf("breaker state = %q, ok=%v", state, ok)
	}

	failed, err := h.GetFailedOperations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 {
		t.Errorf("expected 1 failed operation, got %d", len(failed))
	}
}
