package alert

import (
	"context"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/darwin-luque/uptime-monitor/pkg/rabbitmq"
)

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// BrokerNotifier hands alerts to the message broker; delivery to the owner
// happens in the alert consumer.
type BrokerNotifier struct {
	publisher Publisher
}

func NewBrokerNotifier(publisher Publisher) *BrokerNotifier {
	return &BrokerNotifier{publisher: publisher}
}

func (n *BrokerNotifier) Send(ctx context.Context, msg Message) error {
	const op = "alert.broker.send"

	body, err := rabbitmq.NewEvent(EventType, msg)
	if err != nil {
		return apperror.New(apperror.Internal, op, err)
	}
	if err := n.publisher.Publish(ctx, body); err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}
