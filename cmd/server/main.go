// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Command server runs the fishdiary HTTP service with its backup
// pipeline under a suture supervisor tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fishdiary/fishdiary/internal/api"
	"github.com/fishdiary/fishdiary/internal/auth"
	"github.com/fishdiary/fishdiary/internal/backup"
	"github.com/fishdiary/fishdiary/internal/config"
	"github.com/fishdiary/fishdiary/internal/diary"
	"github.com/fishdiary/fishdiary/internal/images"
	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("data_root", cfg.Storage.DataRoot).
		Str("backup_root", cfg.Backup.BackupRoot).
		Int("workers", cfg.Backup.Workers).
		Msg("fishdiary starting")

	locks := diary.NewLockArena()
	store := diary.NewStore(cfg.Storage.DataRoot, locks)
	imgStore := images.NewStore(cfg.Storage.ImageRoot)

	builder := backup.NewBuilder(store, cfg.Storage.ImageRoot)
	registry := backup.NewRegistry()
	backupSvc := backup.NewService(builder, registry, cfg.Backup.TempRoot,
		cfg.Backup.QueueCapacity, cfg.Backup.MaintenanceHour)
	scheduler := backup.NewScheduler(builder, cfg.Backup.BackupRoot, cfg.Backup.TempRoot,
		cfg.Backup.Retention, cfg.Backup.ScheduleHour, cfg.Backup.CleanupHour)

	jwt := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	handler := api.NewHandler(cfg, store, imgStore, backupSvc, scheduler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, jwt),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	for i := 0; i < cfg.Backup.Workers; i++ {
		tree.AddBackupService(backup.NewWorker(backupSvc, i))
	}
	tree.AddBackupService(scheduler)
	tree.AddAPIService(supervisor.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("supervisor tree exited")
	}
	logging.Info().Msg("fishdiary stopped")
}
