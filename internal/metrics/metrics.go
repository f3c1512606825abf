// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package metrics defines the Prometheus instruments exported at /metrics.
// All instruments are registered via promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fishdiary"

var (
	// EntriesSaved counts journal entries written, labeled by whether a
	// new slot was allocated or an existing one overwritten.
	EntriesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "diary",
		Name:      "entries_saved_total",
		Help:      "Journal entries saved, by save mode.",
	}, []string{"mode"})

	// EntriesDeleted counts journal entries removed.
	EntriesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "diary",
		Name:      "entries_deleted_total",
		Help:      "Journal entries deleted.",
	})

	// ImagesStored counts uploaded images.
	ImagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "stored_total",
		Help:      "Images stored via upload.",
	})

	// ImagesDeleted counts removed images.
	ImagesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "deleted_total",
		Help:      "Images deleted.",
	})

	// BackupTasks counts finished backup tasks by kind (user, full) and
	// outcome (completed, failed, empty).
	BackupTasks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "tasks_total",
		Help:      "Backup tasks finished, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// BackupQueueRejected counts task submissions dropped because the
	// queue was full.
	BackupQueueRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "queue_rejected_total",
		Help:      "Backup task submissions rejected due to a full queue.",
	})

	// BackupQueueDepth tracks the number of tasks waiting in the queue.
	BackupQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "queue_depth",
		Help:      "Backup tasks currently waiting in the queue.",
	})

	// ArchiveBuildDuration observes how long archive assembly takes.
	ArchiveBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "archive_build_seconds",
		Help:      "Time spent building backup archives.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"kind"})

	// RetentionDeleted counts archives pruned by the retention policy.
	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backup",
		Name:      "retention_deleted_total",
		Help:      "Archives removed by the retention policy.",
	})
)
