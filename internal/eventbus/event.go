package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys published on the events exchange.
const (
	OrderCreated   = "order.created"
	OrderCancelled = "order.cancelled"
	OrderCompleted = "order.completed"
	ReviewChanged  = "review.changed"
)

// Event is the JSON body of every published message.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NopPublisher) Close()                                         {}
