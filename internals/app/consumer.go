package app

import (
	"context"
	"fmt"

	"github.com/darwin-luque/uptime-monitor/config"
	"github.com/darwin-luque/uptime-monitor/internals/modules/alert"
	"github.com/darwin-luque/uptime-monitor/pkg/httpclient"
	"github.com/darwin-luque/uptime-monitor/pkg/rabbitmq"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AlertConsumer delivers the alerts the engine published to the broker.
type AlertConsumer struct {
	conn     *amqp091.Connection
	Consumer *rabbitmq.Consumer
	Notifier alert.Notifier
	Logger   *zerolog.Logger
}

func NewAlertConsumer(cfg *config.Config, logger *zerolog.Logger) (*AlertConsumer, error) {
	conn, err := rabbitmq.NewConnection(&cfg.RabbitMQ, logger)
	if err != nil {
		return nil, err
	}

	if err := rabbitmq.SetupTopology(conn, &cfg.RabbitMQ); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare rabbitmq topology: %w", err)
	}

	consumer, err := rabbitmq.NewConsumer(conn, cfg.RabbitMQ.QueueName, cfg.RabbitMQ.WorkerCount, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq consumer: %w", err)
	}

	// without twilio credentials alerts are only logged
	var notifier alert.Notifier = alert.NewLogNotifier(logger)
	if cfg.Twilio.AccountSID != "" {
		notifier = alert.NewTwilioNotifier(cfg.Twilio, httpclient.NewHttpClient())
	}

	return &AlertConsumer{
		conn:     conn,
		Consumer: consumer,
		Notifier: notifier,
		Logger:   logger,
	}, nil
}

// StartConsumer runs the consumer in its own goroutine; the returned channel
// is closed once it stops.
func StartConsumer(ctx context.Context, c *AlertConsumer) <-chan struct{} {
	eventHandler := alert.NewEventHandler(c.Notifier, c.Logger)
	done := make(chan struct{})

	// Consume ranges over the delivery channel until ctx is cancelled
	go func() {
		defer close(done)
		if err := c.Consumer.Consume(ctx, eventHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()

	return done
}

func (c *AlertConsumer) Shutdown(ctx context.Context) error {
	err := c.Consumer.Shutdown(ctx)
	if cerr := c.conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
