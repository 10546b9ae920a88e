package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/provenly/resilience/internal/alert"
	"github.com/provenly/resilience/internal/core/domain"
)

// AlertRepo implements alert.Recorder using PostgreSQL, so audit records
// survive process restarts and can back the admin dashboard.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new PostgreSQL alert repository.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// CreateSystemAlert persists one audit record.
func (r *AlertRepo) CreateSystemAlert(ctx context.Context, a alert.SystemAlert) error {
	query := `
		INSERT INTO system_alerts (id, alert_type, message, severity, acknowledged, acknowledged_by, acknowledged_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var acknowledgedBy any
	if a.AcknowledgedBy != "" {
		acknowledgedBy = a.AcknowledgedBy
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		id,
		a.AlertType,
		a.Message,
		string(a.Severity),
		a.Acknowledged,
		acknowledgedBy,
		a.AcknowledgedAt,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert system alert: %w", err)
	}
	return nil
}

type alertRow struct {
	ID             string     `db:"id"`
	AlertType      string     `db:"alert_type"`
	Message        string     `db:"message"`
	Severity       string     `db:"severity"`
	Acknowledged   bool       `db:"acknowledged"`
	AcknowledgedBy *string    `db:"acknowledged_by"`
	AcknowledgedAt *time.Time `db:"acknowledged_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

func (row alertRow) toAlert() alert.SystemAlert {
	a := alert.SystemAlert{
		ID:             row.ID,
		AlertType:      row.AlertType,
		Message:        row.Message,
		Severity:       domain.Severity(row.Severity),
		Acknowledged:   row.Acknowledged,
		AcknowledgedAt: row.AcknowledgedAt,
		CreatedAt:      row.CreatedAt,
	}
	if row.AcknowledgedBy != nil {
		a.AcknowledgedBy = *row.AcknowledgedBy
	}
	return a
}

// ListRecent returns the newest alerts, for the admin API.
func (r *AlertRepo) ListRecent(ctx context.Context, limit int) ([]alert.SystemAlert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, alert_type, message, severity, acknowledged, acknowledged_by, acknowledged_at, created_at
		FROM system_alerts
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list system alerts: %w", err)
	}

	alerts := make([]alert.SystemAlert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toAlert())
	}
	return alerts, nil
}

// Acknowledge marks an alert as seen by an operator.
func (r *AlertRepo) Acknowledge(ctx context.Context, id, by string) error {
	query := `
		UPDATE system_alerts
		SET acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, by)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}
