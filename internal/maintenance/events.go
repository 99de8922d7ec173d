package maintenance

import (
	"context"
	"time"
)

const EventServiceRecorded = "ServiceRecorded"

// ServiceRecordedEvent is published after a routine or repair service commits.
type ServiceRecordedEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   ServiceRecordedPayload `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

type ServiceRecordedPayload struct {
	ReportID      string    `json:"report_id"`
	LogEntryID    string    `json:"log_entry_id"`
	LaboratoryID  int64     `json:"laboratory_id"`
	WorkstationID int64     `json:"workstation_id"`
	Quarter       string    `json:"quarter"`
	ServiceType   string    `json:"service_type"`
	ServiceDate   time.Time `json:"service_date"`
	StatusBefore  string    `json:"status_before"`
	StatusAfter   string    `json:"status_after"`
	ServiceCount  int       `json:"service_count"`
	PerformedBy   string    `json:"performed_by"`
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// ReadCache holds read models. Writes invalidate by workstation.
type ReadCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}
