// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package api implements the HTTP surface: journal CRUD, image upload
// and retrieval, and the backup endpoints. Every synchronous response
// uses the {status, message, data} envelope.
package api

import (
	"net/http"

	"github.com/fishdiary/fishdiary/internal/backup"
	"github.com/fishdiary/fishdiary/internal/config"
	"github.com/fishdiary/fishdiary/internal/diary"
	"github.com/fishdiary/fishdiary/internal/images"
	"github.com/fishdiary/fishdiary/internal/models"
)

// Handler bundles the stores and services behind the HTTP endpoints.
type Handler struct {
	cfg       *config.Config
	store     *diary.Store
	images    *images.Store
	backupSvc *backup.Service
	scheduler *backup.Scheduler
}

// NewHandler wires the handler to its dependencies.
func NewHandler(cfg *config.Config, store *diary.Store, imgStore *images.Store, backupSvc *backup.Service, scheduler *backup.Scheduler) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		images:    imgStore,
		backupSvc: backupSvc,
		scheduler: scheduler,
	}
}

// Health responds to liveness probes.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, models.Success("ok", map[string]string{"service": "fishdiary"}))
}
