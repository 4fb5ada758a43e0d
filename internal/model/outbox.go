package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusRetry      OutboxStatus = "retry"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Outbox event types
const (
	EventRecordCreate  = "RECORD_CREATE"
	EventRecordUpdate  = "RECORD_UPDATE"
	EventRecordDelete  = "RECORD_DELETE"
	EventReceiptShared = "RECEIPT_SHARED"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
}

// NewOutboxEvent marshals payload into a pending event.
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		EventType: eventType,
		Payload:   data,
		Status:    string(OutboxStatusPending),
	}, nil
}

// RecordEventPayload is published for record CRUD.
type RecordEventPayload struct {
	RecordID uuid.UUID  `json:"record_id"`
	Kind     RecordKind `json:"kind"`
	SeqID    int64      `json:"seq_id"`
	Actor    string     `json:"actor"`
	// Changed names the fields an update touched.
	Changed []string `json:"changed,omitempty"`
}

// ReceiptSharedPayload is published after a share attempt reaches the
// messaging link.
type ReceiptSharedPayload struct {
	RecordID  uuid.UUID     `json:"record_id"`
	Types     []ReceiptType `json:"types"`
	Filename  string        `json:"filename"`
	SavedPath string        `json:"saved_path,omitempty"`
	Emailed   bool          `json:"emailed"`
	Actor     string        `json:"actor"`
}
