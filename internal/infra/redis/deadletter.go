package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/provenly/resilience/internal/core/domain"
)

// Entries also carry a TTL as a safety net so a dead store cannot grow
// unbounded if the sweeper stops running.
const entryTTL = 7 * 24 * time.Hour

// DeadLetterRepo implements dlq.Store on Redis. Entries are JSON values keyed
// by ID plus a sorted set scored by NextRetryAt for due-scans, so entries
// survive process restarts.
type DeadLetterRepo struct {
	rdb *redis.Client
}

// NewDeadLetterRepo creates a Redis-backed dead-letter store.
func NewDeadLetterRepo(client *Client) *DeadLetterRepo {
	return &DeadLetterRepo{rdb: client.rdb}
}

// Key helpers
func (r *DeadLetterRepo) queueKey() string {
	return "dead_letters"
}

func (r *DeadLetterRepo) entryKey(id string) string {
	return fmt.Sprintf("dead_letter:%s", id)
}

// Put inserts or replaces an entry and (re)schedules it in the queue.
func (r *DeadLetterRepo) Put(ctx context.Context, entry *domain.DeadLetterEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter entry: %w", err)
	}

	if err := r.rdb.Set(ctx, r.entryKey(entry.ID), data, entryTTL).Err(); err != nil {
		return fmt.Errorf("failed to set dead-letter entry: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(entry.NextRetryAt.Unix()),
		Member: entry.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// Get returns the entry with the given ID, or nil if absent.
func (r *DeadLetterRepo) Get(ctx context.Context, id string) (*domain.DeadLetterEntry, error) {
	data, err := r.rdb.Get(ctx, r.entryKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dead-letter entry: %w", err)
	}

	var entry domain.DeadLetterEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dead-letter entry: %w", err)
	}
	return &entry, nil
}

// Remove deletes an entry and its queue membership.
func (r *DeadLetterRepo) Remove(ctx context.Context, id string) error {
	if err := r.rdb.ZRem(ctx, r.queueKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := r.rdb.Del(ctx, r.entryKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete dead-letter entry: %w", err)
	}
	return nil
}

// List returns all entries ordered by NextRetryAt.
func (r *DeadLetterRepo) List(ctx context.Context) ([]*domain.DeadLetterEntry, error) {
	ids, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	return r.fetch(ctx, ids)
}

// Due returns entries whose NextRetryAt is at or before now.
func (r *DeadLetterRepo) Due(ctx context.Context, now time.Time) ([]*domain.DeadLetterEntry, error) {
	ids, err := r.rdb.ZRangeByScore(ctx, r.queueKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	return r.fetch(ctx, ids)
}

// Count returns the number of entries in the queue.
func (r *DeadLetterRepo) Count(ctx context.Context) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

func (r *DeadLetterRepo) fetch(ctx context.Context, ids []string) ([]*domain.DeadLetterEntry, error) {
	entries := make([]*domain.DeadLetterEntry, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, r.entryKey(id)).Bytes()
		if err == redis.Nil {
			// Value expired but ID still queued, drop it.
			r.rdb.ZRem(ctx, r.queueKey(), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get dead-letter entry: %w", err)
		}

		var entry domain.DeadLetterEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
