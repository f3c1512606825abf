// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package images

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClockStore(t *testing.T, at time.Time) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	s.now = func() time.Time { return at }
	return s
}

func TestContentTypeTable(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"a.png", "image/png"},
		{"a.jpg", "image/jpeg"},
		{"a.JPEG", "image/jpeg"},
		{"a.gif", "image/gif"},
		{"a.bmp", "image/bmp"},
		{"a.webp", "image/webp"},
		{"a.svg", "image/svg+xml"},
		{"a.bin", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentType(tt.file); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 45, 123*1e6, time.UTC)
	store := fixedClockStore(t, at)

	stored, err := store.Save("user1", "diary-1", "original.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if stored.FileName != "20240501_123045.123_diary-1.png" {
		t.Errorf("unexpected file name: %s", stored.FileName)
	}
	wantDir := filepath.Join(store.Root(), "user1", "2024")
	if filepath.Dir(stored.Path) != wantDir {
		t.Errorf("expected file under %s, got %s", wantDir, stored.Path)
	}

	rc, contentType, size, err := store.Open("user1", stored.FileName)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	if contentType != "image/png" {
		t.Errorf("expected image/png, got %s", contentType)
	}
	if size != int64(len("png-bytes")) {
		t.Errorf("expected size %d, got %d", len("png-bytes"), size)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestSaveRejectsEmptyUpload(t *testing.T) {
	store := fixedClockStore(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := store.Save("user1", "diary-1", "empty.png", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestOpenMissingImage(t *testing.T) {
	store := fixedClockStore(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, _, _, err := store.Open("user1", "20240501_120000.000_nope.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenBlocksTraversal(t *testing.T) {
	store := fixedClockStore(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	outside := filepath.Join(filepath.Dir(store.Root()), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	_, _, _, err := store.Open("..", "secret.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for traversal, got %v", err)
	}
}

func TestDeleteOwnershipCheck(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := fixedClockStore(t, at)

	stored, err := store.Save("user1", "diary-1", "a.png", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Wrong owner and wrong entry ID are both rejected.
	for _, tc := range []struct{ owner, diaryID string }{
		{"user2", "diary-1"},
		{"user1", "diary-9"},
	} {
		results := store.Delete(tc.owner, tc.diaryID, []string{stored.Path})
		if results[0].OK {
			t.Errorf("expected permission failure for owner=%s diaryID=%s", tc.owner, tc.diaryID)
		}
	}
	if _, err := os.Stat(stored.Path); err != nil {
		t.Fatal("file should still exist after rejected deletes")
	}

	results := store.Delete("user1", "diary-1", []string{stored.Path})
	if !results[0].OK {
		t.Fatalf("expected delete to succeed, got %+v", results[0])
	}
	if _, err := os.Stat(stored.Path); !os.IsNotExist(err) {
		t.Error("expected file to be gone")
	}
}

func TestDeleteBlocksPathOutsideRoot(t *testing.T) {
	store := fixedClockStore(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	outside := filepath.Join(filepath.Dir(store.Root()), "user1-diary-1.png")
	if err := os.WriteFile(outside, []byte("data"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	// Path contains both IDs but lives outside the image root.
	results := store.Delete("user1", "diary-1", []string{outside})
	if results[0].OK {
		t.Error("expected delete outside the root to be rejected")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("outside file should be untouched")
	}
}

func TestDeleteReportsMissingFile(t *testing.T) {
	store := fixedClockStore(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	gone := filepath.Join(store.Root(), "user1", "2024", "20240501_120000.000_diary-1.png")
	results := store.Delete("user1", "diary-1", []string{gone})
	if results[0].OK || results[0].Result != "file not found" {
		t.Errorf("expected file-not-found result, got %+v", results[0])
	}
}

func TestSameSecondUploadsDoNotCollide(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(t.TempDir())

	calls := 0
	store.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Millisecond)
	}

	first, err := store.Save("user1", "diary-1", "a.png", strings.NewReader("one"))
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second, err := store.Save("user1", "diary-1", "a.png", strings.NewReader("two"))
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if first.FileName == second.FileName {
		t.Errorf("expected distinct file names, both were %s", first.FileName)
	}
}
