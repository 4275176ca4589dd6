// Package config loads runtime settings for the telemetry service: defaults,
// an optional YAML file, and TELEMETRY_* environment overrides, in that
// order of increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	DLQ       DLQConfig       `mapstructure:"dlq"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Health    HealthConfig    `mapstructure:"health"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DLQConfig selects the dead-letter backend. Backend "nats" uses JetStream;
// "file" writes to BasePath; "none" disables dead-lettering entirely.
type DLQConfig struct {
	Backend  string `mapstructure:"backend"`
	NATSURL  string `mapstructure:"nats_url"`
	BasePath string `mapstructure:"base_path"`
}

// IngestionConfig carries the pipeline policy knobs. The defaults are the
// documented constants of the design: five minutes of clock-skew tolerance,
// ninety days of record retention, three delivery attempts.
type IngestionConfig struct {
	ClockSkewTolerance time.Duration `mapstructure:"clock_skew_tolerance"`
	RecordTTL          time.Duration `mapstructure:"record_ttl"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	RateLimitEnabled   bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

type HealthConfig struct {
	DLQDegradedThreshold int64 `mapstructure:"dlq_degraded_threshold"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("dlq.backend", "nats")
	v.SetDefault("dlq.nats_url", "nats://localhost:4222")
	v.SetDefault("dlq.base_path", "/var/lib/charger-telemetry/dlq")
	v.SetDefault("ingestion.clock_skew_tolerance", "5m")
	v.SetDefault("ingestion.record_ttl", "2160h") // 90 days
	v.SetDefault("ingestion.max_attempts", 3)
	v.SetDefault("ingestion.retry_delay", "100ms")
	v.SetDefault("ingestion.rate_limit_enabled", false)
	v.SetDefault("ingestion.rate_limit_requests", 600)
	v.SetDefault("ingestion.rate_limit_window", "1m")
	v.SetDefault("health.dlq_degraded_threshold", 10)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/charger-telemetry")
	}

	// Environment variables override
	v.SetEnvPrefix("TELEMETRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
