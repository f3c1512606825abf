// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestDefaultsAreValidWithSecret(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with secret should validate: %v", err)
	}

	if cfg.Server.Port != 8410 {
		t.Errorf("expected default port 8410, got %d", cfg.Server.Port)
	}
	if cfg.Backup.MaintenanceHour != 3 {
		t.Errorf("expected maintenance hour 3, got %d", cfg.Backup.MaintenanceHour)
	}
	if cfg.Backup.Retention != 7 {
		t.Errorf("expected retention 7, got %d", cfg.Backup.Retention)
	}
	if cfg.Security.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token TTL, got %s", cfg.Security.TokenTTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing jwt secret", func(c *Config) { c.Security.JWTSecret = "" }},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad maintenance hour", func(c *Config) { c.Backup.MaintenanceHour = 24 }},
		{"bad schedule hour", func(c *Config) { c.Backup.ScheduleHour = -1 }},
		{"zero workers", func(c *Config) { c.Backup.Workers = 0 }},
		{"zero queue capacity", func(c *Config) { c.Backup.QueueCapacity = 0 }},
		{"empty data root", func(c *Config) { c.Storage.DataRoot = "" }},
		{"empty backup root", func(c *Config) { c.Backup.BackupRoot = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"page size inversion", func(c *Config) { c.Server.MaxPageSize = 1; c.Server.DefaultPageSize = 10 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitRequests = -1 }},
		{"rate limit without window", func(c *Config) { c.Server.RateLimitRequests = 10; c.Server.RateLimitWindow = 0 }},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 32))
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("BACKUP_WORKERS", "4")
	t.Setenv("BACKUP_MAINTENANCE_HOUR", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Backup.Workers != 4 {
		t.Errorf("expected env workers 4, got %d", cfg.Backup.Workers)
	}
	if cfg.Backup.MaintenanceHour != 5 {
		t.Errorf("expected env maintenance hour 5, got %d", cfg.Backup.MaintenanceHour)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env log level debug, got %s", cfg.Logging.Level)
	}
	// Untouched settings keep their defaults.
	if cfg.Backup.Retention != 7 {
		t.Errorf("expected default retention 7, got %d", cfg.Backup.Retention)
	}
}

func TestEnvTransformSkipsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("HTTP_PORT"); got != "server.port" {
		t.Errorf("expected server.port, got %q", got)
	}
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unknown env vars must map to nothing, got %q", got)
	}
}

func TestAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8410}
	if s.Addr() != "127.0.0.1:8410" {
		t.Errorf("unexpected addr: %s", s.Addr())
	}
}
