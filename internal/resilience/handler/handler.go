// Package handler gives call-sites pre-configured retry policies by category
// so they don't restate retry knobs at every site.
package handler

import (
	"context"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
	"github.com/provenly/resilience/internal/resilience/manager"
)

// Operation names fixed per category. All calls in a category share one
// circuit breaker, so a failing downstream dependency (one blockchain node,
// one database) is protected regardless of which logical call hammered it.
const (
	OpBlockchainTransaction = "blockchain_transaction"
	OpDatabaseOperation     = "database_operation"
	OpExternalAPI           = "external_api"
)

// BlockchainPolicy is the preset for blockchain submissions.
var BlockchainPolicy = domain.RetryPolicy{
	MaxRetries:    5,
	BaseDelay:     2 * time.Second,
	MaxDelay:      60 * time.Second,
	BackoffFactor: 2,
	RetryableErrors: []string{
		"connection reset",
		"not found",
		"timeout",
		"insufficient funds",
	},
}

// DatabasePolicy is the preset for database operations.
var DatabasePolicy = domain.RetryPolicy{
	MaxRetries:    3,
	BaseDelay:     500 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	BackoffFactor: 2,
	RetryableErrors: []string{
		"connection reset",
		"not found",
		"timeout",
		"lock wait timeout",
	},
}

// ExternalAPIPolicy is the preset for outbound API calls.
var ExternalAPIPolicy = domain.RetryPolicy{
	MaxRetries:    4,
	BaseDelay:     time.Second,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2,
	RetryableErrors: []string{
		"connection reset",
		"not found",
		"timeout",
		"rate limit",
		"502",
		"503",
		"504",
	},
}

// CallContext carries the correlation fields a call-site may attach. Kind and
// severity are fixed by the preset, not the caller.
type CallContext struct {
	CompanyID string
	UserID    string
	EventID   string
	TagID     string
	Endpoint  string
	Metadata  map[string]string
}

func (c CallContext) operationContext(kind domain.OperationKind, severity domain.Severity) domain.OperationContext {
	return domain.OperationContext{
		Kind:      kind,
		Severity:  severity,
		CompanyID: c.CompanyID,
		UserID:    c.UserID,
		EventID:   c.EventID,
		TagID:     c.TagID,
		Endpoint:  c.Endpoint,
		Metadata:  c.Metadata,
	}
}

// Handler is the convenience facade over the retry manager.
type Handler struct {
	m *manager.Manager
}

// New creates a Handler delegating to the given manager.
func New(m *manager.Manager) *Handler {
	return &Handler{m: m}
}

// HandleBlockchainTransaction wraps a blockchain submission (High severity).
func (h *Handler) HandleBlockchainTransaction(
	ctx context.Context,
	cc CallContext,
	op manager.Operation,
) (any, error) {
	opCtx := cc.operationContext(domain.KindBlockchainTransaction, domain.SeverityHigh)
	return h.m.ExecuteWithRetry(ctx, op, OpBlockchainTransaction, opCtx, BlockchainPolicy)
}

// HandleDatabaseOperation wraps a database operation (Medium severity).
func (h *Handler) HandleDatabaseOperation(
	ctx context.Context,
	cc CallContext,
	op manager.Operation,
) (any, error) {
	opCtx := cc.operationContext(domain.KindDatabaseOperation, domain.SeverityMedium)
	return h.m.ExecuteWithRetry(ctx, op, OpDatabaseOperation, opCtx, DatabasePolicy)
}

// HandleExternalAPI wraps an outbound API call (Medium severity).
func (h *Handler) HandleExternalAPI(
	ctx context.Context,
	cc CallContext,
	op manager.Operation,
) (any, error) {
	opCtx := cc.operationContext(domain.KindExternalAPI, domain.SeverityMedium)
	return h.m.ExecuteWithRetry(ctx, op, OpExternalAPI, opCtx, ExternalAPIPolicy)
}

// GetStats returns the manager's failed-operation and breaker snapshot.
func (h *Handler) GetStats(ctx context.Context) (manager.Stats, error) {
	return h.m.Stats(ctx)
}

// GetFailedOperations returns the full dead-letter snapshot.
func (h *Handler) GetFailedOperations(ctx context.Context) ([]*domain.DeadLetterEntry, error) {
	return h.m.FailedOperations(ctx)
}
