// Package dlq holds operations that failed permanently after exhausting
// retries, pending slow out-of-band re-attempts.
package dlq

import (
	"context"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
)

// Store is the dead-letter backing store. The in-memory implementation is the
// default; Redis-backed persistence lives in internal/infra/redis.
type Store interface {
	// Put inserts or replaces an entry keyed by entry.ID.
	Put(ctx context.Context, entry *domain.DeadLetterEntry) error

	// Get returns the entry with the given ID, or nil if absent.
	Get(ctx context.Context, id string) (*domain.DeadLetterEntry, error)

	// Remove deletes an entry. Removing an absent entry is not an error.
	Remove(ctx context.Context, id string) error

	// List returns a snapshot of all entries.
	List(ctx context.Context) ([]*domain.DeadLetterEntry, error)

	// Due returns entries whose NextRetryAt is at or before now.
	Due(ctx context.Context, now time.Time) ([]*domain.DeadLetterEntry, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int, error)
}
