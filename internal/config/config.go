// Package config loads the server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server settings. Optional variables fall back to the
// defaults noted on each field.
type Config struct {
	// Port is the HTTP listen port. PORT, default 8080.
	Port string
	// DatabaseURL selects PostgreSQL; empty uses the in-memory store.
	DatabaseURL string
	// RedisURL enables the read-through cache in front of PostgreSQL.
	RedisURL string
	// CacheTTL bounds cached entries. CACHE_TTL, default 30s.
	CacheTTL time.Duration

	// BlockInterval is the time per block height. BLOCK_INTERVAL, default 6s.
	BlockInterval time.Duration
	// GenesisTime is the time of block 1. GENESIS_TIME (RFC3339), default
	// process start.
	GenesisTime time.Time

	// OracleMaxAge rejects older quotes. ORACLE_MAX_AGE, default 0 (off).
	OracleMaxAge time.Duration
	// CollectorAddress receives protocol fees. COLLECTOR_ADDRESS.
	CollectorAddress string

	// LogLevel is one of debug, info, warn, error. LOG_LEVEL, default info.
	LogLevel slog.Level
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnvOr("PORT", "8080"),
		DatabaseURL:      getEnvOr("DATABASE_URL", ""),
		RedisURL:         getEnvOr("REDIS_URL", ""),
		CollectorAddress: getEnvOr("COLLECTOR_ADDRESS", "collector"),
	}

	var err error
	if cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.BlockInterval, err = getEnvAsDuration("BLOCK_INTERVAL", 6*time.Second); err != nil {
		return nil, err
	}
	if cfg.BlockInterval <= 0 {
		return nil, errors.New("BLOCK_INTERVAL must be positive")
	}
	if cfg.GenesisTime, err = getEnvAsTime("GENESIS_TIME", time.Now().UTC()); err != nil {
		return nil, err
	}
	if cfg.OracleMaxAge, err = getEnvAsDuration("ORACLE_MAX_AGE", 0); err != nil {
		return nil, err
	}
	if cfg.OracleMaxAge < 0 {
		return nil, errors.New("ORACLE_MAX_AGE must not be negative")
	}
	if cfg.LogLevel, err = getEnvAsLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		return nil, err
	}
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return nil, fmt.Errorf("environment variable PORT: invalid port %q", cfg.Port)
	}
	return cfg, nil
}

// getEnvOr retrieves a string environment variable, or def if unset or empty.
func getEnvOr(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsDuration parses a Go duration such as "6s" or "1m30s".
func getEnvAsDuration(key string, def time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return d, nil
}

// getEnvAsTime parses an RFC3339 timestamp.
func getEnvAsTime(key string, def time.Time) (time.Time, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return t, nil
}

func getEnvAsLevel(key string, def slog.Level) (slog.Level, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return def, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
		return def, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return lvl, nil
}
