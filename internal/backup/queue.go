// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/metrics"
)

// Service owns the per-user backup task queue. Submissions are
// non-blocking; a full queue rejects the task. Workers drain the queue
// in FIFO order.
type Service struct {
	builder         *Builder
	registry        *Registry
	tempRoot        string
	maintenanceHour int
	tasks           chan Task
	now             func() time.Time
}

// NewService creates the queue service. queueCapacity bounds pending
// tasks; maintenanceHour is the local hour during which submissions are
// rejected.
func NewService(builder *Builder, registry *Registry, tempRoot string, queueCapacity, maintenanceHour int) *Service {
	return &Service{
		builder:         builder,
		registry:        registry,
		tempRoot:        tempRoot,
		maintenanceHour: maintenanceHour,
		tasks:           make(chan Task, queueCapacity),
		now:             time.Now,
	}
}

// Submit queues a backup task for the owner and returns its task ID.
// The ID is deterministic within the hour: {owner}-{yyyyMMddHH}, so a
// retry in the same hour addresses the same task.
func (s *Service) Submit(owner string) (string, error) {
	now := s.now()
	if now.Hour() == s.maintenanceHour {
		logging.Warn().Str("owner", owner).Msg("backup rejected, maintenance window")
		return "", ErrMaintenanceWindow
	}

	taskID := owner + "-" + now.Format("2006010215")
	if !s.registry.TryStartTask(owner, taskID) {
		logging.Warn().Str("owner", owner).Msg("backup rejected, task already running")
		return "", ErrAlreadyRunning
	}

	select {
	case s.tasks <- Task{Owner: owner, ID: taskID}:
		metrics.BackupQueueDepth.Inc()
		logging.Info().Str("task_id", taskID).Msg("backup task queued")
		return taskID, nil
	default:
		// Roll back the status so the owner can retry later.
		s.registry.Remove(taskID)
		metrics.BackupQueueRejected.Inc()
		logging.Warn().Str("task_id", taskID).Msg("backup queue full, task rejected")
		return "", ErrQueueFull
	}
}

// StatusFor returns the owner's current task ID and status. An owner
// with no task gets StatusEmpty and an empty ID.
func (s *Service) StatusFor(owner string) (taskID, status string) {
	taskID, status, ok := s.registry.FindByOwner(owner)
	if !ok {
		return "", StatusEmpty
	}
	return taskID, status
}

// ResolveDownload returns the archive path for a completed task.
func (s *Service) ResolveDownload(taskID string) (string, error) {
	status, ok := s.registry.Status(taskID)
	if !ok {
		return "", ErrTaskNotFound
	}
	if status != StatusCompleted {
		return "", ErrNotCompleted
	}
	path, ok := s.registry.File(taskID)
	if !ok {
		return "", ErrNotCompleted
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: archive file missing", ErrNotCompleted)
	}
	return path, nil
}

// Acknowledge drops the task's bookkeeping and deletes its archive.
// The client calls this after a successful download.
func (s *Service) Acknowledge(taskID string) error {
	path, existed := s.registry.Remove(taskID)
	if !existed {
		return ErrTaskNotFound
	}
	if path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Err(err).Str("task_id", taskID).Str("file", path).Msg("failed to delete acknowledged archive")
		} else {
			logging.Info().Str("task_id", taskID).Str("file", path).Msg("archive deleted after acknowledge")
		}
	}
	return nil
}

// Worker drains the task queue. Several workers may share one service;
// each runs as its own supervised goroutine.
type Worker struct {
	svc *Service
	id  int
}

// NewWorker creates a worker with an ID used only for logging.
func NewWorker(svc *Service, id int) *Worker {
	return &Worker{svc: svc, id: id}
}

// String names the worker for the supervisor.
func (w *Worker) String() string {
	return fmt.Sprintf("backup-worker-%d", w.id)
}

// Serve processes tasks until the context is canceled.
func (w *Worker) Serve(ctx context.Context) error {
	logging.Info().Int("worker", w.id).Msg("backup worker started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Int("worker", w.id).Msg("backup worker stopping")
			return ctx.Err()
		case task := <-w.svc.tasks:
			metrics.BackupQueueDepth.Dec()
			w.svc.runTask(task)
		}
	}
}

// runTask executes one backup task. A panic in archive assembly marks
// the task failed instead of killing the worker.
func (s *Service) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.registry.SetStatus(task.ID, FailedWithReason(fmt.Sprintf("panic: %v", r)))
			metrics.BackupTasks.WithLabelValues("user", "failed").Inc()
			logging.Error().
				Str("task_id", task.ID).
				Interface("panic", r).
				Msg("backup task panicked")
		}
	}()

	logging.Info().Str("task_id", task.ID).Msg("backup task started")
	start := time.Now()

	if err := s.executeTask(task); err != nil {
		s.registry.SetStatus(task.ID, FailedWithReason(err.Error()))
		metrics.BackupTasks.WithLabelValues("user", "failed").Inc()
		logging.Err(err).Str("task_id", task.ID).Msg("backup task failed")
		return
	}

	metrics.ArchiveBuildDuration.WithLabelValues("user").Observe(time.Since(start).Seconds())
	metrics.BackupTasks.WithLabelValues("user", "completed").Inc()
	logging.Info().
		Str("task_id", task.ID).
		Dur("elapsed", time.Since(start)).
		Msg("backup task completed")
}

// executeTask builds the owner's archive into a temp file, then moves
// it to its final name inside tempRoot and records it in the registry.
func (s *Service) executeTask(task Task) error {
	if err := os.MkdirAll(s.tempRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.tempRoot, "user-backup-"+task.Owner+"-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}

	err = s.builder.BuildUser(task.Owner, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		//nolint:errcheck // partial archive cleanup is best effort
		os.Remove(tmp.Name())
		return err
	}

	fileName := "fish-diary-" + task.Owner + "-" + s.now().Format("20060102-150405") + ".zip"
	dest := filepath.Join(s.tempRoot, fileName)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		//nolint:errcheck // partial archive cleanup is best effort
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	s.registry.SetFile(task.ID, dest)
	s.registry.SetStatus(task.ID, StatusCompleted)
	return nil
}
