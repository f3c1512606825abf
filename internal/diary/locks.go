// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package diary

import "sync"

// LockArena hands out one mutex per partition, created lazily on first
// use and never discarded. The store and the backup reader share an
// arena so archive assembly sees only fully written partitions.
type LockArena struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockArena creates an empty lock arena.
func NewLockArena() *LockArena {
	return &LockArena{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for the given partition key, creating it if
// this is the first request for that key.
func (a *LockArena) Get(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// Len returns the number of mutexes created so far. Exposed for tests.
func (a *LockArena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}
