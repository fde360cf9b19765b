package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/locaops/rental-backend/pkg/enums"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/outbox"
	"github.com/locaops/rental-backend/pkg/outbox/payloads"
	"github.com/locaops/rental-backend/pkg/outbox/registry"
)

const consumerName = "alert-notifier"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Consumer turns published stock alerts into structured operator
// notifications. Each event is logged once; Redis idempotency absorbs
// Pub/Sub redeliveries.
type Consumer struct {
	decoders payloadDecoder
	manager  idempotencyChecker
	logg     *logger.Logger
}

// NewConsumer builds an alert consumer.
func NewConsumer(decoders payloadDecoder, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if decoders == nil {
		return nil, errors.New("decoder registry is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		decoders: decoders,
		manager:  manager,
		logg:     logg,
	}, nil
}

// NewAlertDecoders registers the payload decoders for every alert event type.
func NewAlertDecoders() *registry.DecoderRegistry {
	reg := registry.NewDecoderRegistry()
	reg.Register(enums.EventOverbookingConflict, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.OverbookingConflictEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventStockDriftDetected, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.StockDriftDetectedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventCounterClamped, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.CounterClampedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	return reg
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context, subscription *pubsub.Subscriber) error {
	if subscription == nil {
		return errors.New("alerts subscription is required")
	}
	return subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Process(ctx, enums.OutboxEventType(msg.Attributes["event_type"]), msg.Data) != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Process handles one published alert. A nil return acks the message; poison
// payloads are acked after logging so they do not loop forever.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, data []byte) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(ctx, "failed to decode alert envelope", err)
		return nil
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
		"source":     envelope.Source,
	})

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "alert carries an invalid event id", err)
		return nil
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "alert already notified")
		return nil
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode alert payload", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return nil
	}

	c.notify(logCtx, decoded)
	return nil
}

func (c *Consumer) notify(ctx context.Context, payload interface{}) {
	switch event := payload.(type) {
	case *payloads.OverbookingConflictEvent:
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"item_id":   event.ItemID.String(),
			"date":      event.Date.Format("2006-01-02"),
			"reserved":  event.Reserved,
			"usable":    event.Usable,
			"shortfall": event.Shortfall,
		})
		c.logg.Warn(logCtx, "overbooking conflict: reservations exceed usable stock")
	case *payloads.StockDriftDetectedEvent:
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"item_id":      event.ItemID.String(),
			"condition":    event.Condition,
			"counter_qty":  event.CounterQty,
			"open_log_qty": event.OpenLogQty,
			"ghost":        event.Ghost,
		})
		c.logg.Warn(logCtx, "stock drift detected: counter exceeds open incident logs")
	case *payloads.CounterClampedEvent:
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"item_id":   event.ItemID.String(),
			"condition": event.Condition,
			"requested": event.Requested,
			"applied":   event.Applied,
			"shortfall": event.Shortfall,
		})
		c.logg.Warn(logCtx, "counter decrement clamped at zero")
	default:
		c.logg.Warn(ctx, "alert payload type has no notification mapping")
	}
}
