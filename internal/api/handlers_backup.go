// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/fishdiary/fishdiary/internal/auth"
	"github.com/fishdiary/fishdiary/internal/backup"
	"github.com/fishdiary/fishdiary/internal/models"
)

// TriggerBackup runs a full-system backup synchronously.
func (h *Handler) TriggerBackup(w http.ResponseWriter, _ *http.Request) {
	if err := h.scheduler.CreateFullBackup(); err != nil {
		respondError(w, http.StatusInternalServerError, "BACKUP_FAILED", "full backup failed", err)
		return
	}
	respondJSON(w, http.StatusOK, models.Success("backup completed", nil))
}

// StartUserBackup queues an asynchronous backup of the caller's data
// and returns the task ID to poll.
func (h *Handler) StartUserBackup(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	taskID, err := h.backupSvc.Submit(owner)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrMaintenanceWindow):
			respondError(w, http.StatusServiceUnavailable, "MAINTENANCE_WINDOW", "system maintenance in progress, try again later", nil)
		case errors.Is(err, backup.ErrAlreadyRunning):
			respondError(w, http.StatusConflict, "ALREADY_RUNNING", "a backup task is already in progress", nil)
		case errors.Is(err, backup.ErrQueueFull):
			respondError(w, http.StatusServiceUnavailable, "QUEUE_FULL", "backup queue is full, try again later", nil)
		default:
			respondError(w, http.StatusInternalServerError, "SUBMIT_FAILED", "failed to submit backup task", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, models.Success("backup task queued", map[string]string{"taskId": taskID}))
}

// BackupStatus reports the caller's current backup task state.
func (h *Handler) BackupStatus(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	taskID, status := h.backupSvc.StatusFor(owner)
	data := map[string]string{"status": status}
	if taskID != "" {
		data["taskId"] = taskID
	}
	respondJSON(w, http.StatusOK, models.Success("status fetched", data))
}

// DownloadBackup streams a completed archive as a zip attachment.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	path, err := h.backupSvc.ResolveDownload(taskID)
	if err != nil {
		switch {
		case errors.Is(err, backup.ErrTaskNotFound):
			respondError(w, http.StatusNotFound, "TASK_NOT_FOUND", "backup task not found", nil)
		case errors.Is(err, backup.ErrNotCompleted):
			respondError(w, http.StatusBadRequest, "NOT_COMPLETED", "backup not completed or missing", nil)
		default:
			respondError(w, http.StatusInternalServerError, "DOWNLOAD_FAILED", "failed to resolve backup file", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

// CompleteBackup acknowledges a downloaded archive, removing the task's
// bookkeeping and deleting the file.
func (h *Handler) CompleteBackup(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	if err := h.backupSvc.Acknowledge(taskID); err != nil {
		if errors.Is(err, backup.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "TASK_NOT_FOUND", "backup task not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "COMPLETE_FAILED", "failed to clean up backup task", err)
		return
	}

	respondJSON(w, http.StatusOK, models.Success("backup task completed and cleaned up", nil))
}
