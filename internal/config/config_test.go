package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "REDIS_URL", "CACHE_TTL", "BLOCK_INTERVAL",
		"GENESIS_TIME", "ORACLE_MAX_AGE", "COLLECTOR_ADDRESS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.CollectorAddress != "collector" {
		t.Errorf("expected port 8080 and collector, got %s and %s", cfg.Port, cfg.CollectorAddress)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %s", cfg.CacheTTL)
	}
	if cfg.BlockInterval != 6*time.Second {
		t.Errorf("expected block interval 6s, got %s", cfg.BlockInterval)
	}
	if cfg.OracleMaxAge != 0 {
		t.Errorf("expected no staleness check, got %s", cfg.OracleMaxAge)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
	if cfg.GenesisTime.IsZero() {
		t.Error("expected genesis to default to now")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BLOCK_INTERVAL", "2s")
	t.Setenv("GENESIS_TIME", "2024-01-01T00:00:00Z")
	t.Setenv("ORACLE_MAX_AGE", "5m")
	t.Setenv("COLLECTOR_ADDRESS", "terra1collector")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.BlockInterval != 2*time.Second || cfg.OracleMaxAge != 5*time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !cfg.GenesisTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected genesis %s", cfg.GenesisTime)
	}
	if cfg.CollectorAddress != "terra1collector" {
		t.Errorf("unexpected collector %s", cfg.CollectorAddress)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "http"},
		{"CACHE_TTL", "soon"},
		{"BLOCK_INTERVAL", "0s"},
		{"GENESIS_TIME", "yesterday"},
		{"ORACLE_MAX_AGE", "-1m"},
		{"LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
