// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package config provides centralized configuration management for fishdiary.
//
// Configuration loading order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config file: optional YAML config file (config.yaml)
//  3. Environment variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Backup   BackupConfig   `koanf:"backup"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0
	Host string `koanf:"host"`

	// Port is the listen port. Default: 8410
	Port int `koanf:"port"`

	// Timeout applies to request read and write. Default: 30s
	Timeout time.Duration `koanf:"timeout"`

	// MaxUploadBytes caps multipart image uploads. Default: 20MB
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// DefaultPageSize and MaxPageSize bound entry listing pagination.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// RateLimitRequests requests per RateLimitWindow per client IP.
	// Zero disables rate limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser. Empty disables CORS headers.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// StorageConfig holds the on-disk layout for journal data.
type StorageConfig struct {
	// DataRoot is the directory holding partition files ({owner}-{year}.json).
	DataRoot string `koanf:"data_root"`

	// ImageRoot is the directory holding uploaded images, one
	// subdirectory per owner.
	ImageRoot string `koanf:"image_root"`
}

// BackupConfig holds settings for the asynchronous backup pipeline.
type BackupConfig struct {
	// BackupRoot is where finished archives are written.
	BackupRoot string `koanf:"backup_root"`

	// TempRoot holds per-user archives while they are assembled. It is
	// wiped and recreated by the periodic cleanup task.
	TempRoot string `koanf:"temp_root"`

	// Workers is the number of goroutines draining the task queue.
	Workers int `koanf:"workers"`

	// QueueCapacity bounds the pending task queue. Submissions beyond
	// capacity are rejected.
	QueueCapacity int `koanf:"queue_capacity"`

	// Retention is how many full backup archives to keep, newest first.
	// Zero or negative disables pruning.
	Retention int `koanf:"retention"`

	// MaintenanceHour is the local hour (0-23) during which per-user
	// backup requests are rejected. Default: 3
	MaintenanceHour int `koanf:"maintenance_hour"`

	// ScheduleHour is the local hour at which the daily full backup runs.
	ScheduleHour int `koanf:"schedule_hour"`

	// CleanupHour is the local hour at which the temp directory is wiped.
	CleanupHour int `koanf:"cleanup_hour"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies HS256 session tokens. Required.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is how long issued tokens remain valid. Default: 24h
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Server.DefaultPageSize < 1 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		return fmt.Errorf("MAX_PAGE_SIZE must be >= DEFAULT_PAGE_SIZE")
	}
	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.DataRoot == "" {
		return fmt.Errorf("DATA_ROOT is required")
	}
	if c.Storage.ImageRoot == "" {
		return fmt.Errorf("IMAGE_ROOT is required")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.BackupRoot == "" {
		return fmt.Errorf("BACKUP_ROOT is required")
	}
	if c.Backup.TempRoot == "" {
		return fmt.Errorf("BACKUP_TEMP_ROOT is required")
	}
	if c.Backup.Workers < 1 {
		return fmt.Errorf("BACKUP_WORKERS must be at least 1")
	}
	if c.Backup.QueueCapacity < 1 {
		return fmt.Errorf("BACKUP_QUEUE_CAPACITY must be at least 1")
	}
	if c.Backup.MaintenanceHour < 0 || c.Backup.MaintenanceHour > 23 {
		return fmt.Errorf("BACKUP_MAINTENANCE_HOUR must be between 0 and 23")
	}
	if c.Backup.ScheduleHour < 0 || c.Backup.ScheduleHour > 23 {
		return fmt.Errorf("BACKUP_SCHEDULE_HOUR must be between 0 and 23")
	}
	if c.Backup.CleanupHour < 0 || c.Backup.CleanupHour > 23 {
		return fmt.Errorf("BACKUP_CLEANUP_HOUR must be between 0 and 23")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, disabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}
