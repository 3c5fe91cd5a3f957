package service

import (
	"context"
	"encoding/json"

	"ai-debate-be/internal/pkg/logger"
	"ai-debate-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process event bus and writes an audit line per
// debate lifecycle event. It is the single subscriber, so a missing consumer
// would make gochannel publishes pile up.
type consumerService struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, logger logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub: pubSub,
		logger: logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, events.TopicDebateEvents)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload struct {
		Type       string                 `json:"type"`
		Data       map[string]interface{} `json:"data"`
		OccurredAt string                 `json:"occurred_at"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	details := map[string]interface{}{"occurred_at": payload.OccurredAt}
	for k, v := range payload.Data {
		details[k] = v
	}
	cs.logger.Info("CONSUMER", payload.Type, details)

	msg.Ack()
}
