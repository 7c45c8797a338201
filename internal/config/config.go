// Package config provides configuration management for pomotrack.
//
// Configuration is read from the environment exactly once at startup
// and handed to components by value; nothing else in the process reads
// ambient environment state. Invalid numeric values fail fast here
// rather than surfacing later as odd behavior.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings.
type Config struct {
	Host            string        `envconfig:"HOST" default:"127.0.0.1"`
	Port            int           `envconfig:"PORT" default:"5000"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	SessionLogPath  string        `envconfig:"LOG_FILE_PATH" default:"logs/pomodoro_sessions.log"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	WorkMinutes       int `envconfig:"DEFAULT_WORK_MINUTES" default:"25"`
	ShortBreakMinutes int `envconfig:"DEFAULT_SHORT_BREAK_MINUTES" default:"5"`
	LongBreakMinutes  int `envconfig:"DEFAULT_LONG_BREAK_MINUTES" default:"15"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges envconfig cannot express.
func (c *Config) Validate() error {
	if c.WorkMinutes <= 0 || c.ShortBreakMinutes <= 0 || c.LongBreakMinutes <= 0 {
		return fmt.Errorf("config: timer defaults must be positive (work=%d short=%d long=%d)",
			c.WorkMinutes, c.ShortBreakMinutes, c.LongBreakMinutes)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
