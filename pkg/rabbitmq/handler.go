package rabbitmq

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes the payload of one event type.
type HandlerFunc func(ctx context.Context, id uuid.UUID, payload json.RawMessage) error

// EventHandler routes deliveries to a HandlerFunc by event type. Events of
// unknown types are acknowledged and dropped.
type EventHandler struct {
	routes map[string]HandlerFunc
}

func NewEventHandler() *EventHandler {
	return &EventHandler{
		routes: make(map[string]HandlerFunc),
	}
}

func (h *EventHandler) On(eventType string, fn HandlerFunc) *EventHandler {
	h.routes[eventType] = fn
	return h
}

func (h *EventHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var event EventPayload
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	fn, ok := h.routes[event.Type]
	if !ok {
		return nil // ignore unknown events
	}

	return fn(ctx, event.ID, event.Payload)
}
