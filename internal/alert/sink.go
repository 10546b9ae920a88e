// Package alert defines the collaborators the resilience core reports
// terminal failures to: durable audit records and a push channel for
// critical notifications.
package alert

import (
	"context"
	"time"

	"github.com/provenly/resilience/internal/core/domain"
)

// SystemAlert is the audit record persisted once per dead-lettered operation.
type SystemAlert struct {
	ID             string          `json:"id" db:"id"`
	AlertType      string          `json:"alert_type" db:"alert_type"`
	Message        string          `json:"message" db:"message"`
	Severity       domain.Severity `json:"severity" db:"severity"`
	Acknowledged   bool            `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy string          `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Notification is a push-style alert delivered only for critical failures.
type Notification struct {
	Type     string          `json:"type"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Severity domain.Severity `json:"severity"`
}

// Recorder persists audit records.
type Recorder interface {
	CreateSystemAlert(ctx context.Context, a SystemAlert) error
}

// Notifier delivers critical notifications.
type Notifier interface {
	SendSystemAlert(ctx context.Context, n Notification) error
}
