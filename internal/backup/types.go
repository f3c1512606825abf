// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package backup implements the asynchronous backup pipeline: archive
// assembly, the worker queue with task bookkeeping, retention pruning
// and the daily schedulers.
package backup

import (
	"errors"
	"strings"
)

// Task statuses, exposed verbatim through the status endpoint.
const (
	// StatusProcessing means the task is queued or being built.
	StatusProcessing = "PROCESSING"

	// StatusCompleted means the archive is ready for download.
	StatusCompleted = "COMPLETED"

	// StatusFailed prefixes failure statuses. Concrete failures carry a
	// reason, see FailedWithReason.
	StatusFailed = "FAILED"

	// StatusEmpty is the answer when the owner has no task at all.
	StatusEmpty = "EMPTY"
)

// FailedWithReason builds a failure status carrying the cause.
func FailedWithReason(reason string) string {
	return StatusFailed + ": " + reason
}

// IsFailed reports whether a status string denotes failure.
func IsFailed(status string) bool {
	return strings.HasPrefix(status, StatusFailed)
}

var (
	// ErrMaintenanceWindow rejects submissions during the maintenance hour.
	ErrMaintenanceWindow = errors.New("backup rejected during maintenance window")

	// ErrAlreadyRunning rejects a second submission while one is in flight.
	ErrAlreadyRunning = errors.New("backup task already running")

	// ErrQueueFull rejects submissions when the task queue is at capacity.
	ErrQueueFull = errors.New("backup queue is full")

	// ErrTaskNotFound indicates an unknown task ID.
	ErrTaskNotFound = errors.New("backup task not found")

	// ErrNotCompleted indicates a download attempt before completion.
	ErrNotCompleted = errors.New("backup not completed")
)

// Task is one queued per-user backup job.
type Task struct {
	Owner string
	ID    string
}
