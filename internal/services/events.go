package services

import (
	"context"
	"encoding/json"
	"time"

	"productapi/pkg/logger"

	"github.com/google/uuid"
)

const (
	EventProductCreated   = "product.created"
	EventProductUpdated   = "product.updated"
	EventProductDeleted   = "product.deleted"
	EventStockDecremented = "stock.decremented"
	EventStockAdded       = "stock.added"
)

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, body []byte) error
}

// Event is the JSON payload published for every product or stock change.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ProductID  int       `json:"product_id"`
	Delta      int       `json:"delta,omitempty"`
	Quantity   *int      `json:"quantity,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// eventEmitter publishes events on a best-effort basis: a broker failure is
// logged and never fails the operation that produced the event.
type eventEmitter struct {
	publisher EventPublisher
	log       *logger.Logger
}

func (e eventEmitter) emit(ctx context.Context, evt Event) {
	if e.publisher == nil {
		return
	}
	evt.ID = uuid.New().String()
	evt.OccurredAt = time.Now().UTC()

	body, err := json.Marshal(evt)
	if err != nil {
		e.log.Ctx(ctx).Error().Err(err).Str("event", evt.Type).Msg("failed to marshal event")
		return
	}
	if err := e.publisher.PublishEvent(ctx, evt.Type, body); err != nil {
		e.log.Ctx(ctx).Warn().Err(err).
			Str("event", evt.Type).
			Int("product_id", evt.ProductID).
			Msg("failed to publish event")
		return
	}
	e.log.Ctx(ctx).Debug().Str("event", evt.Type).Str("event_id", evt.ID).Msg("event published")
}
