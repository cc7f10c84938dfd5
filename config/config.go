/*
Package config loads server configuration from the environment.

PURPOSE:
  Central place for every knob the server reads. Values come from
  environment variables with the CAPACITY_ prefix; a .env file is
  honoured in development.

USAGE:
  _ = godotenv.Load()
  cfg, err := config.Load()
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "capacity"

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	Seed   SeedConfig
}

type ServerConfig struct {
	Addr            string        `envconfig:"CAPACITY_SERVER_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"CAPACITY_SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"CAPACITY_SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"CAPACITY_SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	Path string `envconfig:"CAPACITY_DB_PATH" default:"capacity.db"`
}

type LogConfig struct {
	Level  string `envconfig:"CAPACITY_LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"CAPACITY_LOG_PRETTY" default:"false"`
}

type SeedConfig struct {
	// Demo loads the bundled demo plant into an empty database.
	Demo bool `envconfig:"CAPACITY_SEED_DEMO" default:"false"`
	// File is a path to a JSON plant definition to load on startup.
	File string `envconfig:"CAPACITY_SEED_FILE"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Seed.Demo && cfg.Seed.File != "" {
		return nil, fmt.Errorf("CAPACITY_SEED_DEMO and CAPACITY_SEED_FILE are mutually exclusive")
	}
	return &cfg, nil
}

// IsValidLevel reports whether the configured log level is one zerolog
// understands.
func (l LogConfig) IsValidLevel() bool {
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
