package event

import (
	"encoding/json"
	"time"
)

const (
	SessionUpdatesTopic = "sessions.updates"

	EventSessionCreated = "session.created"
	EventSessionUpdated = "session.updated"
	EventSessionDeleted = "session.deleted"
)

// SessionEvent is published to NATS on every session transition. It carries
// the full session document rather than a delta so that every subscriber can
// re-derive its view from the event alone, regardless of what it saw before.
type SessionEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	SessionID   string    `json:"session_id"`
	TableNumber int       `json:"table_number"`

	// Denormalized fields for dashboard filtering without decoding Session
	SessionStatus string `json:"session_status,omitempty"`
	KitchenStatus string `json:"kitchen_status,omitempty"`

	// Full session document as stored; empty for deletions
	Session json.RawMessage `json:"session,omitempty"`
}
