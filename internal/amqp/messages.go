package amqp

import (
	"encoding/json"
	"time"
)

// RecordSavedMessage represents a lightweight message published after a record
// mutation is persisted. Contains only the ID and kind, the worker will re-read
// the full collection from storage.
type RecordSavedMessage struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordSavedMessage creates a new saved-record message with just ID and kind
func NewRecordSavedMessage(id int64, kind string) *RecordSavedMessage {
	return &RecordSavedMessage{
		ID:        id,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func RecordSavedMessageFromJSON(data []byte) (*RecordSavedMessage, error) {
	var msg RecordSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
