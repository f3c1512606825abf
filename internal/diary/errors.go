// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package diary

import "errors"

var (
	// ErrNotFound indicates no entry matched the requested ID.
	ErrNotFound = errors.New("diary entry not found")

	// ErrCapacityExceeded indicates all 99 slots for a date are taken.
	ErrCapacityExceeded = errors.New("slot capacity exceeded for date")

	// ErrCorruptPartition indicates a partition file holds invalid JSON.
	ErrCorruptPartition = errors.New("corrupt partition file")

	// ErrInvalidLogDate indicates the entry's log date is malformed.
	ErrInvalidLogDate = errors.New("invalid log date")

	// ErrEmptyDiaryID indicates a request without an entry ID.
	ErrEmptyDiaryID = errors.New("diary id must not be empty")
)
