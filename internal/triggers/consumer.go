package triggers

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
	"github.com/journeyos/backend/pkg/events"
	"github.com/journeyos/backend/pkg/logger"
)

const triggerConsumerName = "trigger-notifications"

// Consumer watches the trigger topic and turns domain events into notifications.
type Consumer struct {
	handler      *Handler
	subscription *pubsub.Subscriber
	idempotency  *events.IdempotencyManager
	logg         *logger.Logger
}

// NewConsumer builds the trigger event consumer.
func NewConsumer(handler *Handler, subscription *pubsub.Subscriber, manager *events.IdempotencyManager, logg *logger.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("trigger handler required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("trigger subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		handler:      handler,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes[events.AttrEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	triggerType, err := enums.ParseTriggerType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping non-trigger event")
		return processResult{ack: true}
	}

	var envelope events.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Error(logCtx, "envelope missing event id", nil)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, triggerConsumerName, envelope.EventID, rawType)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	payload, err := DecodePayload(triggerType, envelope.Data)
	if err != nil {
		// Malformed payloads will not improve on redelivery.
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	result, err := c.handler.Handle(ctx, payload)
	if err != nil {
		c.logg.Error(logCtx, "trigger handling failed", err)
		if pkgerrors.Retryable(err) {
			// Clear the processed marker so redelivery runs the handler again.
			_ = c.idempotency.Delete(ctx, triggerConsumerName, envelope.EventID, rawType)
			return processResult{nack: true}
		}
		return processResult{ack: true}
	}

	if result.Skipped {
		c.logg.Info(c.logg.WithField(logCtx, "reason", result.Reason), "trigger skipped")
	} else {
		c.logg.Info(c.logg.WithField(logCtx, "notified", result.Notified), "trigger notifications created")
	}
	return processResult{ack: true}
}
