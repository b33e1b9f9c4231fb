// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	ListenAddr        string // Server listen address (e.g., ":8080")
	MetricsListenAddr string // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string // SQLite database path
	RedisAddr         string // Redis server address for session state
	BasePath          string // Versioned base path for all API routes
}

// Load parses configuration from environment variables.
// All configuration options have sensible defaults for ease of deployment.
func Load() (*Config, error) {
	logLevel := os.Getenv("LOG_LEVEL")
	listenAddr := os.Getenv("LISTEN_ADDR")
	metricsListenAddr := os.Getenv("METRICS_LISTEN_ADDR")
	databasePath := os.Getenv("DATABASE_PATH")
	redisAddr := os.Getenv("REDIS_ADDR")
	basePath := os.Getenv("BASE_PATH")

	// Set defaults for optional fields
	if logLevel == "" {
		logLevel = "info"
	}

	if listenAddr == "" {
		listenAddr = ":8080"
	}

	if metricsListenAddr == "" {
		metricsListenAddr = "localhost:9090"
	}

	if databasePath == "" {
		databasePath = "/data/opsgate.db"
	}

	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	if basePath == "" {
		basePath = "/api/v1"
	}

	cfg := &Config{
		LogLevel:          logLevel,
		ListenAddr:        listenAddr,
		MetricsListenAddr: metricsListenAddr,
		DatabasePath:      databasePath,
		RedisAddr:         redisAddr,
		BasePath:          basePath,
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q (must be: debug, info, warn, error)", c.LogLevel)
	}

	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("BASE_PATH must start with a slash, got %q", c.BasePath)
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR must not be empty")
	}

	return nil
}
