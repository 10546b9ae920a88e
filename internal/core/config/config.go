package config

import (
	"time"

	redisclient "github.com/provenly/resilience/internal/infra/redis"
	"github.com/provenly/resilience/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Redis      redisclient.Config `yaml:"redis"`
	Database   postgres.Config    `yaml:"database"`
	Resilience ResilienceConfig   `yaml:"resilience"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"` // debug, info, warn, error
	Format string `yaml:"format"`                 // json, text
}

// ResilienceConfig holds retry and dead-letter tuning. Durations are in
// nanoseconds when set from YAML; zero values fall back to defaults.
type ResilienceConfig struct {
	SweepInterval         time.Duration `yaml:"sweep_interval"`
	DeadLetterDelay       time.Duration `yaml:"dead_letter_delay"`
	SweepRetryDelay       time.Duration `yaml:"sweep_retry_delay"`
	MaxDeadLetterAttempts int           `yaml:"max_dead_letter_attempts"`
	Breaker               BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker defaults applied per operation name.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
	MonitoringWindow time.Duration `yaml:"monitoring_window"`
}
