// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package backup

import (
	"sync"
	"testing"
)

func TestRegistryStatusLifecycle(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Status("user1-2024050112"); ok {
		t.Error("expected no status for unknown task")
	}

	r.SetStatus("user1-2024050112", StatusProcessing)
	status, ok := r.Status("user1-2024050112")
	if !ok || status != StatusProcessing {
		t.Errorf("expected PROCESSING, got %q ok=%v", status, ok)
	}

	r.SetStatus("user1-2024050112", StatusCompleted)
	r.SetFile("user1-2024050112", "/tmp/archive.zip")

	path, ok := r.File("user1-2024050112")
	if !ok || path != "/tmp/archive.zip" {
		t.Errorf("expected archive path, got %q ok=%v", path, ok)
	}
}

func TestRegistryFindByOwner(t *testing.T) {
	r := NewRegistry()
	r.SetStatus("user1-2024050112", StatusCompleted)
	r.SetStatus("user2-2024050112", StatusProcessing)

	taskID, status, ok := r.FindByOwner("user1")
	if !ok || taskID != "user1-2024050112" || status != StatusCompleted {
		t.Errorf("unexpected result: %q %q %v", taskID, status, ok)
	}

	// "user" is a prefix of "user1" but "user-" is not, so no match.
	if _, _, ok := r.FindByOwner("user"); ok {
		t.Error("expected no match for owner prefix collision")
	}
}

func TestFindByOwnerReturnsNewestTask(t *testing.T) {
	// An unacknowledged completed task from an earlier hour must not
	// shadow the task submitted afterwards.
	r := NewRegistry()
	r.SetStatus("user1-2024050110", StatusCompleted)
	r.SetStatus("user1-2024050112", StatusProcessing)

	taskID, status, ok := r.FindByOwner("user1")
	if !ok || taskID != "user1-2024050112" || status != StatusProcessing {
		t.Errorf("expected the newest task, got %q %q %v", taskID, status, ok)
	}

	// Same lookup with the insertion order reversed.
	r = NewRegistry()
	r.SetStatus("user1-2024050112", StatusProcessing)
	r.SetStatus("user1-2024050110", StatusCompleted)

	taskID, status, ok = r.FindByOwner("user1")
	if !ok || taskID != "user1-2024050112" || status != StatusProcessing {
		t.Errorf("expected the newest task, got %q %q %v", taskID, status, ok)
	}
}

func TestTryStartTask(t *testing.T) {
	r := NewRegistry()

	if !r.TryStartTask("user1", "user1-2024050112") {
		t.Fatal("first claim should succeed")
	}
	if r.TryStartTask("user1", "user1-2024050113") {
		t.Error("claim must be refused while a task is processing")
	}
	if !r.TryStartTask("user2", "user2-2024050112") {
		t.Error("another owner's claim should succeed")
	}

	r.SetStatus("user1-2024050112", StatusCompleted)
	if !r.TryStartTask("user1", "user1-2024050113") {
		t.Error("claim should succeed once the previous task finished")
	}
}

func TestTryStartTaskSingleWinner(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryStartTask("user1", "user1-2024050112") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one claim to win, got %d", wins)
	}
}

func TestRegistryHasProcessing(t *testing.T) {
	r := NewRegistry()

	if r.HasProcessing("user1") {
		t.Error("empty registry should have nothing processing")
	}

	r.SetStatus("user1-2024050112", StatusCompleted)
	if r.HasProcessing("user1") {
		t.Error("completed task should not count as processing")
	}

	r.SetStatus("user1-2024050113", StatusProcessing)
	if !r.HasProcessing("user1") {
		t.Error("expected processing task to be found")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.SetStatus("user1-2024050112", StatusCompleted)
	r.SetFile("user1-2024050112", "/tmp/archive.zip")

	path, existed := r.Remove("user1-2024050112")
	if !existed || path != "/tmp/archive.zip" {
		t.Errorf("unexpected remove result: %q %v", path, existed)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}

	if _, existed := r.Remove("user1-2024050112"); existed {
		t.Error("second remove should report missing task")
	}
}

func TestFailedWithReason(t *testing.T) {
	status := FailedWithReason("disk full")
	if status != "FAILED: disk full" {
		t.Errorf("unexpected status: %q", status)
	}
	if !IsFailed(status) {
		t.Error("expected IsFailed to match")
	}
	if IsFailed(StatusCompleted) {
		t.Error("COMPLETED must not match IsFailed")
	}
}
