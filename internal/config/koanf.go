// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fishdiary/config.yaml",
	"/etc/fishdiary/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8410,
			Timeout:         30 * time.Second,
			MaxUploadBytes:  20 << 20, // 20MB
			DefaultPageSize: 10,
			MaxPageSize:     100,

			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Storage: StorageConfig{
			DataRoot:  "/data/diary",
			ImageRoot: "/data/images",
		},
		Backup: BackupConfig{
			BackupRoot:      "/data/backup",
			TempRoot:        "/data/backup/temp",
			Workers:         2,
			QueueCapacity:   64,
			Retention:       7,
			MaintenanceHour: 3,
			ScheduleHour:    3,
			CleanupHour:     4,
		},
		Security: SecurityConfig{
			JWTSecret: "",
			TokenTTL:  24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML config file (if exists)
//  3. Environment variables: override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Transform environment variable names to koanf paths:
	// HTTP_PORT -> server.port, BACKUP_WORKERS -> backup.workers
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped keys return empty string and are skipped, which keeps random
// environment variables from polluting config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_host":         "server.host",
		"http_port":         "server.port",
		"http_timeout":      "server.timeout",
		"max_upload_bytes":  "server.max_upload_bytes",
		"default_page_size": "server.default_page_size",
		"max_page_size":     "server.max_page_size",

		"rate_limit_requests":  "server.rate_limit_requests",
		"rate_limit_window":    "server.rate_limit_window",
		"cors_allowed_origins": "server.cors_allowed_origins",

		// Storage mappings
		"data_root":  "storage.data_root",
		"image_root": "storage.image_root",

		// Backup mappings
		"backup_root":             "backup.backup_root",
		"backup_temp_root":        "backup.temp_root",
		"backup_workers":          "backup.workers",
		"backup_queue_capacity":   "backup.queue_capacity",
		"backup_retention":        "backup.retention",
		"backup_maintenance_hour": "backup.maintenance_hour",
		"backup_schedule_hour":    "backup.schedule_hour",
		"backup_cleanup_hour":     "backup.cleanup_hour",

		// Security mappings
		"jwt_secret": "security.jwt_secret",
		"token_ttl":  "security.token_ttl",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
