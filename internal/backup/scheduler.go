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

// Scheduler runs the daily maintenance jobs: the full backup (followed
// by retention pruning) and the temp directory sweep. Each job runs at
// its configured local hour. Job failures are logged, never fatal.
type Scheduler struct {
	builder    *Builder
	backupRoot string
	tempRoot   string
	retention  int

	scheduleHour int
	cleanupHour  int

	now func() time.Time
}

// NewScheduler creates the maintenance scheduler.
func NewScheduler(builder *Builder, backupRoot, tempRoot string, retention, scheduleHour, cleanupHour int) *Scheduler {
	return &Scheduler{
		builder:      builder,
		backupRoot:   backupRoot,
		tempRoot:     tempRoot,
		retention:    retention,
		scheduleHour: scheduleHour,
		cleanupHour:  cleanupHour,
		now:          time.Now,
	}
}

// String names the scheduler for the supervisor.
func (s *Scheduler) String() string {
	return "backup-scheduler"
}

// Serve runs both daily jobs until the context is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	backupTimer := time.NewTimer(time.Until(nextOccurrence(s.now(), s.scheduleHour)))
	defer backupTimer.Stop()
	cleanupTimer := time.NewTimer(time.Until(nextOccurrence(s.now(), s.cleanupHour)))
	defer cleanupTimer.Stop()

	logging.Info().
		Int("backup_hour", s.scheduleHour).
		Int("cleanup_hour", s.cleanupHour).
		Msg("backup scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-backupTimer.C:
			s.RunFullBackup()
			backupTimer.Reset(time.Until(nextOccurrence(s.now(), s.scheduleHour)))
		case <-cleanupTimer.C:
			s.CleanupTempDirectory()
			cleanupTimer.Reset(time.Until(nextOccurrence(s.now(), s.cleanupHour)))
		}
	}
}

// nextOccurrence returns the next time the given local hour comes
// around. A slot that has already started rolls to tomorrow, so a timer
// rearmed right after its job ran never fires twice in one day, while a
// process started shortly before the hour still catches today's run.
func nextOccurrence(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// RunFullBackup builds the full-system archive into the backup root and
// then applies the retention policy. Failures are logged and swallowed.
func (s *Scheduler) RunFullBackup() {
	logging.Info().Msg("scheduled full backup starting")
	start := time.Now()

	if err := s.CreateFullBackup(); err != nil {
		metrics.BackupTasks.WithLabelValues("full", "failed").Inc()
		logging.Err(err).Msg("scheduled full backup failed")
		return
	}

	metrics.ArchiveBuildDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())
	metrics.BackupTasks.WithLabelValues("full", "completed").Inc()
	logging.Info().Dur("elapsed", time.Since(start)).Msg("scheduled full backup finished")

	if _, err := Prune(s.backupRoot, s.retention); err != nil {
		logging.Err(err).Msg("retention prune failed")
	}
}

// CreateFullBackup writes fish-diary-{yyyyMMdd-HHmmss}.zip into the
// backup root. Also called synchronously by the admin trigger endpoint.
func (s *Scheduler) CreateFullBackup() error {
	if err := os.MkdirAll(s.backupRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	fileName := "fish-diary-" + s.now().Format("20060102-150405") + ".zip"
	path := filepath.Join(s.backupRoot, fileName)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	err = s.builder.BuildFull(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		//nolint:errcheck // partial archive cleanup is best effort
		os.Remove(path)
		return err
	}

	logging.Info().Str("file", fileName).Msg("full backup archive created")
	return nil
}

// CleanupTempDirectory wipes the temp root and recreates it empty.
// In-flight archives are gone afterwards; the sweep hour is expected to
// sit outside normal usage.
func (s *Scheduler) CleanupTempDirectory() {
	logging.Info().Str("dir", s.tempRoot).Msg("temp directory sweep starting")

	if err := os.RemoveAll(s.tempRoot); err != nil {
		logging.Err(err).Str("dir", s.tempRoot).Msg("failed to wipe temp directory")
		return
	}
	if err := os.MkdirAll(s.tempRoot, 0o755); err != nil {
		logging.Err(err).Str("dir", s.tempRoot).Msg("failed to recreate temp directory")
		return
	}

	logging.Info().Str("dir", s.tempRoot).Msg("temp directory sweep finished")
}
