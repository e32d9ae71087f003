package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/darwin-luque/uptime-monitor/config"
	middle "github.com/darwin-luque/uptime-monitor/internals/middleware"
	"github.com/darwin-luque/uptime-monitor/internals/modules/alert"
	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/internals/modules/engine"
	"github.com/darwin-luque/uptime-monitor/internals/modules/executor"
	"github.com/darwin-luque/uptime-monitor/internals/modules/ops"
	"github.com/darwin-luque/uptime-monitor/internals/modules/result"
	"github.com/darwin-luque/uptime-monitor/internals/modules/rotation"
	"github.com/darwin-luque/uptime-monitor/internals/modules/scheduler"
	"github.com/darwin-luque/uptime-monitor/pkg/db"
	"github.com/darwin-luque/uptime-monitor/pkg/filestore"
	"github.com/darwin-luque/uptime-monitor/pkg/httpclient"
	"github.com/darwin-luque/uptime-monitor/pkg/logstore"
	"github.com/darwin-luque/uptime-monitor/pkg/rabbitmq"
	"github.com/darwin-luque/uptime-monitor/pkg/redisstore"
	"github.com/darwin-luque/uptime-monitor/pkg/schedule"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RecordStore is what every store driver offers the engine.
type RecordStore interface {
	ListIDs(ctx context.Context, kind string) ([]string, error)
	Read(ctx context.Context, kind, id string) ([]byte, error)
	Update(ctx context.Context, kind, id string, data []byte) error
	Ping(ctx context.Context) error
}

type Container struct {
	DB           *pgxpool.Pool
	RedisClient  *redisstore.Client
	AMQP         *amqp091.Connection
	Records      RecordStore
	Logs         *logstore.Store
	Logger       *zerolog.Logger
	AlertSvc     *alert.AlertService
	Pipeline     *engine.Pipeline
	Scheduler    *scheduler.Scheduler
	RequestStats *middle.RequestStats
	opsHandler   *ops.Handler
	closers      []io.Closer
}

func NewContainer(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {
	c := &Container{Logger: logger}

	if err := c.connectStores(ctx, cfg); err != nil {
		c.closeAll()
		return nil, err
	}

	logs, err := logstore.New(cfg.Logs.Dir)
	if err != nil {
		c.closeAll()
		return nil, fmt.Errorf("open log store: %w", err)
	}

	notifier, err := c.newNotifier(cfg)
	if err != nil {
		c.closeAll()
		return nil, err
	}

	rotationSchedule, err := schedule.Parse(cfg.Rotation.Schedule)
	if err != nil {
		c.closeAll()
		return nil, fmt.Errorf("parse rotation schedule: %w", err)
	}

	// nil guard: overlapping executions of a check are allowed
	var guard scheduler.Guard
	switch {
	case cfg.Scheduler.UsesRedisGuard():
		guard = redisstore.NewInflightGuard(c.RedisClient, cfg.Scheduler.GuardTTL)
	case cfg.Scheduler.Overlap == "skip":
		guard = scheduler.NewLocalGuard()
	}

	validator := check.NewValidator()

	alertSvc := alert.NewAlertService(cfg.Alert.Workers, cfg.Alert.QueueSize, notifier, logger)
	prober := executor.NewProber(httpclient.NewHttpClient(), logger)
	resultPro := result.NewResultProcessor(c.Records, logs, alertSvc, logger)
	pipeline := engine.NewPipeline(c.Records, validator, prober, resultPro, logger)
	rotator := rotation.NewRotator(logs, logger)

	sch := scheduler.NewScheduler(ctx, cfg.Scheduler.CheckInterval, rotationSchedule, c.Records, pipeline, rotator, guard, logger)

	requestStats := middle.NewRequestStats()
	opsSvc := ops.NewService(c.Records, logs, sch, requestStats, validator, cfg.Limits.MaxChecks)

	c.Logs = logs
	c.AlertSvc = alertSvc
	c.Pipeline = pipeline
	c.Scheduler = sch
	c.RequestStats = requestStats
	c.opsHandler = ops.NewHandler(opsSvc)

	return c, nil
}

// connectStores opens the record store of the configured driver, plus redis
// when the in-flight guard lives there.
func (c *Container) connectStores(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Driver == "redis" || cfg.Scheduler.UsesRedisGuard() {
		client, err := redisstore.New(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		c.RedisClient = client
		c.closers = append(c.closers, client)
		c.Logger.Info().Msg("redis client initialized")
	}

	switch cfg.Store.Driver {
	case "redis":
		c.Records = c.RedisClient
	case "postgres":
		pool, err := db.ConnectToDB(ctx, &cfg.DB, c.Logger)
		if err != nil {
			return err
		}
		c.DB = pool
		c.closers = append(c.closers, closerFunc(func() error {
			pool.Close()
			return nil
		}))

		store := db.NewRecordStore(pool, c.Logger)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		c.Records = store
	default:
		store, err := filestore.New(cfg.Store.Dir)
		if err != nil {
			return fmt.Errorf("open record store: %w", err)
		}
		c.Records = store
	}

	c.Logger.Info().Str("driver", cfg.Store.Driver).Msg("record store initialized")
	return nil
}

func (c *Container) newNotifier(cfg *config.Config) (alert.Notifier, error) {
	switch cfg.Alert.Driver {
	case "twilio":
		return alert.NewTwilioNotifier(cfg.Twilio, httpclient.NewHttpClient()), nil
	case "rabbitmq":
		conn, err := rabbitmq.NewConnection(&cfg.RabbitMQ, c.Logger)
		if err != nil {
			return nil, err
		}
		c.AMQP = conn
		c.closers = append(c.closers, conn)

		if err := rabbitmq.SetupTopology(conn, &cfg.RabbitMQ); err != nil {
			return nil, fmt.Errorf("declare rabbitmq topology: %w", err)
		}

		publisher, err := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.ExchangeName, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			return nil, fmt.Errorf("open rabbitmq publisher: %w", err)
		}
		// closed before the connection
		c.closers = append(c.closers, publisher)

		return alert.NewBrokerNotifier(publisher), nil
	default:
		return alert.NewLogNotifier(c.Logger), nil
	}
}

// Shutdown drains the alert queue and releases every connection. The
// scheduler must have been waited on first.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.AlertSvc != nil {
		if err := c.AlertSvc.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain alerts: %w", err))
		}
	}

	if err := c.closeAll(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// closeAll closes in reverse order of opening.
func (c *Container) closeAll() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
