package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/darwin-luque/uptime-monitor/config"
	"github.com/darwin-luque/uptime-monitor/internals/app"
	"github.com/darwin-luque/uptime-monitor/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "env.yaml", "path to the yaml config file (empty: defaults and environment only)")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RabbitMQ.URL == "" {
		log.Fatalf("failed to load config: rabbitmq.url is required by alertd")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	consumer, err := app.NewAlertConsumer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize alert consumer")
	}

	done := app.StartConsumer(ctx, consumer)
	log.Info().Str("queue", cfg.RabbitMQ.QueueName).Msg("alert consumer started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case <-done:
		log.Warn().Msg("alert consumer stopped on its own")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("alert consumer shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
