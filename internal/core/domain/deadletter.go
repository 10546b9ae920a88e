package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"
)

// DeadLetterEntry is a permanently-failed operation pending slow re-attempt.
// Identity is deterministic over (operation name, context identity fields) so
// repeated failures of the same logical operation collapse into one entry.
type DeadLetterEntry struct {
	ID            string            `json:"id"`
	OperationName string            `json:"operation_name"`
	Payload       map[string]string `json:"payload,omitempty"`
	Context       OperationContext  `json:"context"`
	Attempts      int               `json:"attempts"`
	LastError     string            `json:"last_error"`
	NextRetryAt   time.Time         `json:"next_retry_at"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// EntryID derives the dead-letter identity hash for an operation and its
// context. Metadata is excluded: it is diagnostic, not identity.
func EntryID(operationName string, opCtx OperationContext) string {
	h := sha256.New()
	_, _ = io.WriteString(h, operationName)
	for _, field := range []string{
		string(opCtx.Kind),
		opCtx.CompanyID,
		opCtx.UserID,
		opCtx.EventID,
		opCtx.TagID,
		opCtx.Endpoint,
	} {
		_, _ = io.WriteString(h, "|")
		_, _ = io.WriteString(h, field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns a deep copy safe to hand across goroutines.
func (e *DeadLetterEntry) Clone() *DeadLetterEntry {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Payload != nil {
		clone.Payload = make(map[string]string, len(e.Payload))
		for k, v := range e.Payload {
			clone.Payload[k] = v
		}
	}
	if e.Context.Metadata != nil {
		clone.Context.Metadata = make(map[string]string, len(e.Context.Metadata))
		for k, v := range e.Context.Metadata {
			clone.Context.Metadata[k] = v
		}
	}
	return &clone
}
