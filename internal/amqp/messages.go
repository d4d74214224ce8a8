package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a change to the ledger.
type EventType string

const (
	EventRecordAdded     EventType = "record.added"
	EventRecordUpdated   EventType = "record.updated"
	EventRecordDeleted   EventType = "record.deleted"
	EventSettingsUpdated EventType = "settings.updated"
	EventCapUpdated      EventType = "cap.updated"
	EventImportCompleted EventType = "import.completed"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventRecordAdded, EventRecordUpdated, EventRecordDeleted,
		EventSettingsUpdated, EventCapUpdated, EventImportCompleted:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notice that the ledger changed.
// Consumers reload the affected slot rather than trusting the message body.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RecordID  string    `json:"recordId,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a new event with a random id and the current time.
func NewLedgerEvent(eventType EventType, recordID string, count int) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		RecordID:  recordID,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", msg.ID, err)
	}
	return &msg, nil
}
