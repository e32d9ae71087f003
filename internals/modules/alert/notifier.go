package alert

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers a Message to its owner. Failures are reported, never retried.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes alerts to the diagnostic log. Used when no delivery
// channel is configured.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info().
		Str("owner_id", msg.OwnerID).
		Str("check_id", msg.CheckID).
		Str("state", msg.State).
		Msg(msg.Text())
	return nil
}
