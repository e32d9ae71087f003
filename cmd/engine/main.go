package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/darwin-luque/uptime-monitor/config"
	"github.com/darwin-luque/uptime-monitor/internals/app"
	"github.com/darwin-luque/uptime-monitor/internals/server"
	"github.com/darwin-luque/uptime-monitor/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "env.yaml", "path to the yaml config file (empty: defaults and environment only)")
	once := pflag.Bool("once", false, "run one check cycle and one rotation pass, then exit")
	pflag.Parse()

	// Load envs
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// ctx is cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Base/global logger
	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	// Inject Dependencies
	container, err := app.NewContainer(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	container.AlertSvc.Start()

	if *once {
		container.Scheduler.RunNow()
		container.Scheduler.Wait()
		shutdown(container, nil, nil)
		return
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		container.Scheduler.Run()
	}()

	// Register Routes
	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	srv := server.New(&cfg.HTTP, router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdown(container, srv, schedulerDone)
}

// shutdown stops intake first, then lets in-flight checks finish before the
// alert queue is drained and the stores are closed.
func shutdown(container *app.Container, srv *server.Server, schedulerDone <-chan struct{}) {
	log := container.Logger

	// 1. Stop HTTP server (stop accepting requests)
	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}

	// 2. Wait for the scheduler loops, then for in-flight checks
	if schedulerDone != nil {
		<-schedulerDone
	}
	container.Scheduler.Wait()

	// 3. Drain alerts and close infra
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
