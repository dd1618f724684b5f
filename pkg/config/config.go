package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps to a BAKERY_-prefixed env var.
type Config struct {
	// Store
	StoreDriver string `mapstructure:"STORE_DRIVER" validate:"oneof=memory postgres"`
	DataDir     string `mapstructure:"DATA_DIR"`
	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`

	// Planning
	ResolveConcurrency int `mapstructure:"RESOLVE_CONCURRENCY" validate:"min=1,max=64"`

	// Commit
	CommitMaxRetries  uint64        `mapstructure:"COMMIT_MAX_RETRIES" validate:"max=10"`
	CommitBackoffBase time.Duration `mapstructure:"COMMIT_BACKOFF_BASE" validate:"gt=0"`
	CommitBackoffMax  time.Duration `mapstructure:"COMMIT_BACKOFF_MAX" validate:"gtefield=CommitBackoffBase"`

	// Observability
	LogLevel        string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat       string `mapstructure:"LOG_FORMAT" validate:"oneof=console json"`
	MetricsTextfile string `mapstructure:"METRICS_TEXTFILE"`
}

// Load reads configuration from environment variables (and an optional .env
// file in the working directory)
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("BAKERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("RESOLVE_CONCURRENCY", 8)
	v.SetDefault("COMMIT_MAX_RETRIES", 3)
	v.SetDefault("COMMIT_BACKOFF_BASE", "100ms")
	v.SetDefault("COMMIT_BACKOFF_MAX", "2s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("METRICS_TEXTFILE", "")

	// Optional .env file for local development, does not fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, for example after command-line overrides
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
