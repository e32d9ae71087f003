package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig reads the yaml file at path, overlays environment variables
// (scheduler.check_interval -> SCHEDULER_CHECK_INTERVAL) and validates the result.
// An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// default first
	setDefaults(v)

	// Env Config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("service_name", "uptime-monitor")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_header_timeout", "5s")
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("scheduler.check_interval", "60s")
	v.SetDefault("scheduler.overlap", "skip")
	v.SetDefault("scheduler.guard", "local")
	v.SetDefault("scheduler.guard_ttl", "30s")

	v.SetDefault("rotation.schedule", "24h")

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", ".data")

	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.conn_max_lifetime", "2m")
	v.SetDefault("redis.conn_max_idle_time", "30s")

	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.min_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.conn_max_idle_time", "30m")
	v.SetDefault("db.health_timeout", "5s")

	v.SetDefault("logs.dir", ".logs")
	v.SetDefault("logs.max_size_mb", 100)
	v.SetDefault("logs.max_backups", 5)
	v.SetDefault("logs.max_age_days", 28)

	v.SetDefault("alert.driver", "log")
	v.SetDefault("alert.workers", 4)
	v.SetDefault("alert.queue_size", 500)

	v.SetDefault("twilio.country_code", "+1")
	v.SetDefault("twilio.base_url", "https://api.twilio.com")

	v.SetDefault("rabbitmq.exchange_name", "uptime.alerts")
	v.SetDefault("rabbitmq.exchange_type", "direct")
	v.SetDefault("rabbitmq.queue_name", "uptime.alerts.sms")
	v.SetDefault("rabbitmq.routing_key", "check.alert")
	v.SetDefault("rabbitmq.worker_count", 10)

	v.SetDefault("limits.max_checks", 5)
}

func validateConfig(cfg *Config) error {

	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return formatValidationErrors(ve)
		}
		return err
	}
	return validateDrivers(cfg)
}

// validateDrivers checks the settings that only matter for the selected drivers.
func validateDrivers(cfg *Config) error {
	var missing []string

	switch cfg.Store.Driver {
	case "file":
		if cfg.Store.Dir == "" {
			missing = append(missing, "store.dir")
		}
	case "redis":
		if cfg.Redis.URL == "" {
			missing = append(missing, "redis.url")
		}
	case "postgres":
		if cfg.DB.URL == "" {
			missing = append(missing, "db.url")
		}
	}

	if cfg.Scheduler.UsesRedisGuard() && cfg.Redis.URL == "" {
		missing = append(missing, "redis.url")
	}

	switch cfg.Alert.Driver {
	case "twilio":
		if cfg.Twilio.AccountSID == "" {
			missing = append(missing, "twilio.account_sid")
		}
		if cfg.Twilio.AuthToken == "" {
			missing = append(missing, "twilio.auth_token")
		}
		if cfg.Twilio.FromPhone == "" {
			missing = append(missing, "twilio.from_phone")
		}
	case "rabbitmq":
		if cfg.RabbitMQ.URL == "" {
			missing = append(missing, "rabbitmq.url")
		}
	}

	if len(missing) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, key := range missing {
		fmt.Fprintf(&sb, "- key '%s' is required by the selected driver\n", key)
	}
	return errors.New(sb.String())
}

func formatValidationErrors(ve validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")

	for _, fe := range ve {
		fmt.Fprintf(&sb, "- field '%s' failed on '%s'\n", fe.Namespace(), fe.Tag())
	}
	return errors.New(sb.String())
}
