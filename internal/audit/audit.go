package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventFaceEnrolled   EventType = "FACE_ENROLLED"
	EventFaceRecognized EventType = "FACE_RECOGNIZED"
	EventFaceCompared   EventType = "FACE_COMPARED"
)

// Event is one orchestrator invocation. Image refs are not recorded, only
// the identity involved and the outcome.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	PersonID  string            `json:"person_id,omitempty"`
	Strategy  string            `json:"strategy,omitempty"`
	Score     *float64          `json:"score,omitempty"`
	Success   bool              `json:"success"`
	ErrorCode string            `json:"error_code,omitempty"`
	LatencyMS int64             `json:"latency_ms"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}

	l.logger.Log(ctx, level, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Bool("success", event.Success),
		slog.Int64("latency_ms", event.LatencyMS),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
