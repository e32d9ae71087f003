package config

import "time"

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type SchedulerConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval" validate:"required,gt=0"`
	// skip: drop the tick for a check still in flight, allow: last write wins
	Overlap  string        `mapstructure:"overlap" validate:"oneof=skip allow"`
	Guard    string        `mapstructure:"guard" validate:"oneof=local redis"`
	GuardTTL time.Duration `mapstructure:"guard_ttl"`
}

// UsesRedisGuard reports whether overlapping ticks are skipped through the
// shared redis guard. With overlap=allow no guard is built at all.
func (c SchedulerConfig) UsesRedisGuard() bool {
	return c.Overlap == "skip" && c.Guard == "redis"
}

type RotationConfig struct {
	// Go duration ("24h") or a standard cron spec ("0 3 * * *")
	Schedule string `mapstructure:"schedule" validate:"required"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file redis postgres"`
	Dir    string `mapstructure:"dir"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

type LogsConfig struct {
	// directory of the per-check outcome logs
	Dir string `mapstructure:"dir" validate:"required"`

	// optional diagnostic log file, rotated by size
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type AlertConfig struct {
	Driver    string `mapstructure:"driver" validate:"oneof=log twilio rabbitmq"`
	Workers   int    `mapstructure:"workers" validate:"gte=1"`
	QueueSize int    `mapstructure:"queue_size" validate:"gte=1"`
}

type TwilioConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	FromPhone   string `mapstructure:"from_phone"`
	CountryCode string `mapstructure:"country_code"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
}

type RabbitMQConfig struct {
	URL          string `mapstructure:"url"`
	ExchangeName string `mapstructure:"exchange_name"`
	ExchangeType string `mapstructure:"exchange_type"`
	QueueName    string `mapstructure:"queue_name"`
	RoutingKey   string `mapstructure:"routing_key"`
	WorkerCount  int    `mapstructure:"worker_count"`
}

type LimitsConfig struct {
	MaxChecks int `mapstructure:"max_checks" validate:"gte=1"`
}

type Config struct {
	Env         string          `mapstructure:"env" validate:"required"`
	ServiceName string          `mapstructure:"service_name" validate:"required"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Rotation    RotationConfig  `mapstructure:"rotation"`
	Store       StoreConfig     `mapstructure:"store"`
	Redis       RedisConfig     `mapstructure:"redis"`
	DB          DBConfig        `mapstructure:"db"`
	Logs        LogsConfig      `mapstructure:"logs"`
	Alert       AlertConfig     `mapstructure:"alert"`
	Twilio      TwilioConfig    `mapstructure:"twilio"`
	RabbitMQ    RabbitMQConfig  `mapstructure:"rabbitmq"`
	Limits      LimitsConfig    `mapstructure:"limits"`
}
