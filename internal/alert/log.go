package alert

import (
	"context"
	"log/slog"
)

// LogRecorder writes audit records to the structured log. It is the fallback
// when no database is configured.
type LogRecorder struct {
	log *slog.Logger
}

// NewLogRecorder creates a log-backed recorder.
func NewLogRecorder(log *slog.Logger) *LogRecorder {
	if log == nil {
		log = slog.Default()
	}
	return &LogRecorder{log: log}
}

func (r *LogRecorder) CreateSystemAlert(ctx context.Context, a SystemAlert) error {
	r.log.Error("System alert",
		"alert_type", a.AlertType,
		"severity", a.Severity,
		"message", a.Message,
	)
	return nil
}

// LogNotifier writes critical notifications to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendSystemAlert(ctx context.Context, notif Notification) error {
	n.log.Error("CRITICAL notification",
		"type", notif.Type,
		"title", notif.Title,
		"severity", notif.Severity,
		"message", notif.Message,
	)
	return nil
}
