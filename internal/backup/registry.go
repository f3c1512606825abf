// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package backup

import (
	"strings"
	"sync"
)

// Registry tracks task statuses and finished archive paths. It is
// shared between the HTTP handlers and the queue workers.
type Registry struct {
	mu       sync.RWMutex
	statuses map[string]string
	files    map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		statuses: make(map[string]string),
		files:    make(map[string]string),
	}
}

// SetStatus records the status for a task.
func (r *Registry) SetStatus(taskID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[taskID] = status
}

// Status returns the status for a task.
func (r *Registry) Status(taskID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.statuses[taskID]
	return status, ok
}

// SetFile records the finished archive path for a task.
func (r *Registry) SetFile(taskID, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[taskID] = path
}

// File returns the archive path for a task.
func (r *Registry) File(taskID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.files[taskID]
	return path, ok
}

// FindByOwner returns the owner's most recent task, matched by the
// "{owner}-" ID prefix. Task IDs embed the submission hour in fixed
// width, so the lexicographically greatest match is the newest one.
func (r *Registry) FindByOwner(owner string) (taskID, status string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix := owner + "-"
	for id, st := range r.statuses {
		if strings.HasPrefix(id, prefix) && id > taskID {
			taskID, status, ok = id, st, true
		}
	}
	return taskID, status, ok
}

// TryStartTask claims a task slot for the owner. It refuses while any
// of the owner's tasks is still PROCESSING; otherwise it records the
// task as PROCESSING. The scan and the insert happen under one lock so
// concurrent submits cannot both claim the slot.
func (r *Registry) TryStartTask(owner, taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := owner + "-"
	for id, st := range r.statuses {
		if strings.HasPrefix(id, prefix) && st == StatusProcessing {
			return false
		}
	}
	r.statuses[taskID] = StatusProcessing
	return true
}

// HasProcessing reports whether the owner has a task still in flight.
func (r *Registry) HasProcessing(owner string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix := owner + "-"
	for id, st := range r.statuses {
		if strings.HasPrefix(id, prefix) && st == StatusProcessing {
			return true
		}
	}
	return false
}

// Remove drops all bookkeeping for a task and returns the archive path
// that was associated with it, if any.
func (r *Registry) Remove(taskID string) (path string, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, existed = r.statuses[taskID]; !existed {
		return "", false
	}
	path = r.files[taskID]
	delete(r.statuses, taskID)
	delete(r.files, taskID)
	return path, true
}

// Len returns the number of tracked tasks. Exposed for tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.statuses)
}
