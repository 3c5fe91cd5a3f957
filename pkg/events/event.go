package events

import "time"

// Debate lifecycle events carried over the in-process bus.
const (
	TypeDocumentIngested = "RAG_DOCUMENT_INGESTED"
	TypeOwnerDocsDeleted = "RAG_OWNER_DOCS_DELETED"
	TypeSessionEvicted   = "RAG_SESSION_EVICTED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "RAG_SESSION_EVICTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation every publisher in this codebase uses.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
