package rabbitmq

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type EventPayload struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent wraps payload in an envelope with a fresh id.
func NewEvent(eventType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EventPayload{
		ID:      uuid.New(),
		Type:    eventType,
		Payload: body,
	})
}
