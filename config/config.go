// Package config loads the gateway configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	DefaultPort            = 4000
	DefaultPath            = "/graphql"
	DefaultMaxParallelism  = 10
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config is immutable once loaded.
type Config struct {
	Port            int
	Path            string
	Playground      bool
	MaxParallelism  int
	LogLevel        string
	// Development switches to a human readable console logger.
	Development     bool
	Tracing         bool
	MetricsPort     int
	ShutdownTimeout time.Duration
}

func Default() *Config {
	return &Config{
		Port:            DefaultPort,
		Path:            DefaultPath,
		Playground:      true,
		MaxParallelism:  DefaultMaxParallelism,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

var envKeys = map[string]string{
	"port":             "PORT",
	"path":             "GATEWAY_PATH",
	"playground":       "GATEWAY_PLAYGROUND",
	"max_parallelism":  "GATEWAY_MAX_PARALLELISM",
	"log_level":        "GATEWAY_LOG_LEVEL",
	"development":      "GATEWAY_DEVELOPMENT",
	"tracing":          "GATEWAY_TRACING",
	"metrics_port":     "GATEWAY_METRICS_PORT",
	"shutdown_timeout": "GATEWAY_SHUTDOWN_TIMEOUT",
}

// Load reads the configuration through v, falling back to Default for unset
// keys. A nil v reads the process environment. PORT falls back to
// DefaultPort when it is not a valid port number; other malformed values are
// reported as errors.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.Port = parsePort(v.GetString("port"), DefaultPort)

	if path := v.GetString("path"); path != "" {
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("config: %s must start with '/', got %q", envKeys["path"], path)
		}
		cfg.Path = path
	}

	var err error
	if raw := v.GetString("playground"); raw != "" {
		if cfg.Playground, err = cast.ToBoolE(raw); err != nil {
			return nil, fmt.Errorf("config: %s: %w", envKeys["playground"], err)
		}
	}
	if raw := v.GetString("development"); raw != "" {
		if cfg.Development, err = cast.ToBoolE(raw); err != nil {
			return nil, fmt.Errorf("config: %s: %w", envKeys["development"], err)
		}
	}
	if raw := v.GetString("tracing"); raw != "" {
		if cfg.Tracing, err = cast.ToBoolE(raw); err != nil {
			return nil, fmt.Errorf("config: %s: %w", envKeys["tracing"], err)
		}
	}
	if raw := v.GetString("max_parallelism"); raw != "" {
		n, ok := parseCount(raw)
		if !ok || n < 1 {
			return nil, fmt.Errorf("config: %s must be a positive integer, got %q", envKeys["max_parallelism"], raw)
		}
		cfg.MaxParallelism = n
	}
	if raw := v.GetString("log_level"); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw := v.GetString("metrics_port"); raw != "" {
		if cfg.MetricsPort = parsePort(raw, 0); cfg.MetricsPort == 0 {
			return nil, fmt.Errorf("config: %s is not a valid port: %q", envKeys["metrics_port"], raw)
		}
	}
	if raw := v.GetString("shutdown_timeout"); raw != "" {
		if cfg.ShutdownTimeout, err = cast.ToDurationE(raw); err != nil || cfg.ShutdownTimeout < 0 {
			return nil, fmt.Errorf("config: %s must be a duration, got %q", envKeys["shutdown_timeout"], raw)
		}
	}

	return cfg, nil
}

// parsePort returns raw as a TCP port, or fallback when raw is empty, not
// a decimal integer, or outside 1..65535.
func parsePort(raw string, fallback int) int {
	port, ok := parseCount(raw)
	if !ok || port < 1 || port > 65535 {
		return fallback
	}
	return port
}

// parseCount accepts only ASCII decimal digits, so "12.5", "-1" and "0x10"
// are rejected instead of being truncated or reinterpreted.
func parseCount(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > 9 {
		return 0, false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, false
		}
	}
	// cast reads a leading zero as an octal prefix.
	if raw = strings.TrimLeft(raw, "0"); raw == "" {
		return 0, true
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// URL returns the address operators use to reach the GraphQL endpoint.
func (c *Config) URL() string {
	return fmt.Sprintf("http://localhost:%d%s", c.Port, c.Path)
}
