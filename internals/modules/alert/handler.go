package alert

import (
	"context"

	"github.com/darwin-luque/uptime-monitor/pkg/rabbitmq"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewEventHandler routes check.alert events from the broker to notifier.
func NewEventHandler(notifier Notifier, logger *zerolog.Logger) *rabbitmq.EventHandler {
	return rabbitmq.NewEventHandler().On(EventType, func(ctx context.Context, id uuid.UUID, payload json.RawMessage) error {
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}

		if err := notifier.Send(ctx, msg); err != nil {
			return err
		}

		logger.Info().
			Str("event_id", id.String()).
			Str("check_id", msg.CheckID).
			Str("state", msg.State).
			Msg("alert delivered")
		return nil
	})
}
