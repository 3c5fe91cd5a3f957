package events

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Topic on the in-process bus carrying every debate lifecycle event. The
// consumer fans out by the event type embedded in the payload.
const TopicDebateEvents = "debate.events"

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt string                 `json:"occurred_at"`
}

// Publisher sends events to the watermill bus. A nil Publisher is safe to
// call and drops everything, so wiring it is optional.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps any watermill publisher (the app uses the in-process
// gochannel one).
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// Publish serializes the event and puts it on the bus.
func (p *Publisher) Publish(event Event) error {
	if p == nil || p.pub == nil {
		return nil
	}

	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := p.pub.Publish(TopicDebateEvents, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.EventType(), err)
	}
	return nil
}
