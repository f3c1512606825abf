// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package backup

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/fishdiary/fishdiary/internal/diary"
	"github.com/fishdiary/fishdiary/internal/models"
)

type builderFixture struct {
	store     *diary.Store
	imageRoot string
	builder   *Builder
}

func newBuilderFixture(t *testing.T) *builderFixture {
	t.Helper()
	store := diary.NewStore(t.TempDir(), diary.NewLockArena())
	imageRoot := t.TempDir()
	return &builderFixture{
		store:     store,
		imageRoot: imageRoot,
		builder:   NewBuilder(store, imageRoot),
	}
}

func (f *builderFixture) addEntry(t *testing.T, owner, diaryID, logDate string) {
	t.Helper()
	_, err := f.store.Insert(owner, &models.Entry{
		DiaryID: diaryID,
		Content: "body",
		LogDate: logDate,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func (f *builderFixture) addImage(t *testing.T, owner, name string) {
	t.Helper()
	dir := filepath.Join(f.imageRoot, owner, "2024")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("img:"+name), 0o644); err != nil {
		t.Fatalf("image fixture failed: %v", err)
	}
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open archive entry %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read archive entry %s: %v", f.Name, err)
		}
		out[f.Name] = content
	}
	return out
}

func TestBuildUserArchiveLayout(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")
	f.addEntry(t, "user1", "b", "2023-01-15")
	f.addImage(t, "user1", "photo.png")
	f.addImage(t, "user2", "other.png")

	var buf bytes.Buffer
	if err := f.builder.BuildUser("user1", &buf); err != nil {
		t.Fatalf("BuildUser failed: %v", err)
	}

	files := readZip(t, buf.Bytes())
	for _, want := range []string{
		"diary/user1-2024.json",
		"diary/user1-2023.json",
		"user1/images/2024/photo.png",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("archive is missing %s (have %v)", want, keysOf(files))
		}
	}
	for name := range files {
		if name == "user2/images/2024/other.png" || name == "diary/user2-2024.json" {
			t.Errorf("archive leaked another owner's data: %s", name)
		}
	}
}

func TestBuildUserRenumbersSlots(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")
	f.addEntry(t, "user1", "b", "2024-05-01")
	f.addEntry(t, "user1", "c", "2024-05-02")

	// Delete the first entry so stored keys have a gap at 2024050101.
	if _, err := f.store.Delete("user1", "a", ""); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var buf bytes.Buffer
	if err := f.builder.BuildUser("user1", &buf); err != nil {
		t.Fatalf("BuildUser failed: %v", err)
	}

	files := readZip(t, buf.Bytes())
	var entries map[string]models.Entry
	if err := json.Unmarshal(files["diary/user1-2024.json"], &entries); err != nil {
		t.Fatalf("archive partition is not valid JSON: %v", err)
	}

	if entries["2024050101"].DiaryID != "b" {
		t.Errorf("expected remaining 05-01 entry renumbered to 01, got %+v", entries)
	}
	if entries["2024050201"].DiaryID != "c" {
		t.Errorf("expected 05-02 entry at sequence 01, got %+v", entries)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestBuildFullArchiveLayout(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")
	f.addEntry(t, "user2", "b", "2024-06-01")
	f.addImage(t, "user1", "one.png")
	f.addImage(t, "user2", "two.png")

	var buf bytes.Buffer
	if err := f.builder.BuildFull(&buf); err != nil {
		t.Fatalf("BuildFull failed: %v", err)
	}

	files := readZip(t, buf.Bytes())
	for _, want := range []string{
		"diary/user1-2024.json",
		"diary/user2-2024.json",
		"images/user1/2024/one.png",
		"images/user2/2024/two.png",
	} {
		if _, ok := files[want]; !ok {
			t.Errorf("archive is missing %s (have %v)", want, keysOf(files))
		}
	}
}

func TestBuildFullSkipsCorruptPartition(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")

	corrupt := filepath.Join(f.store.Root(), "user2-2024.json")
	if err := os.WriteFile(corrupt, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}

	var buf bytes.Buffer
	if err := f.builder.BuildFull(&buf); err != nil {
		t.Fatalf("BuildFull should skip the corrupt partition, got %v", err)
	}

	files := readZip(t, buf.Bytes())
	if _, ok := files["diary/user1-2024.json"]; !ok {
		t.Error("healthy partition should still be archived")
	}
	if _, ok := files["diary/user2-2024.json"]; ok {
		t.Error("corrupt partition must not appear in the archive")
	}
}

func TestBuildUserWithoutImagesSucceeds(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")

	var buf bytes.Buffer
	if err := f.builder.BuildUser("user1", &buf); err != nil {
		t.Fatalf("BuildUser failed without images: %v", err)
	}

	files := readZip(t, buf.Bytes())
	if _, ok := files["diary/user1-2024.json"]; !ok {
		t.Error("expected partition in archive")
	}
}

func TestBuildUserAbortsOnImageDirStatError(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")

	// An image root that is a regular file makes the owner-directory
	// stat fail with ENOTDIR rather than ENOENT. That is an I/O
	// failure, not an absent tree, and must not yield a partial
	// archive that claims success.
	badRoot := filepath.Join(t.TempDir(), "images")
	if err := os.WriteFile(badRoot, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}
	f.builder = NewBuilder(f.store, badRoot)

	var buf bytes.Buffer
	if err := f.builder.BuildUser("user1", &buf); err == nil {
		t.Error("expected BuildUser to fail on image directory stat error")
	}
}

func TestBuildFullAbortsOnImageRootStatError(t *testing.T) {
	f := newBuilderFixture(t)
	f.addEntry(t, "user1", "a", "2024-05-01")

	parent := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(parent, []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("fixture write failed: %v", err)
	}
	f.builder = NewBuilder(f.store, filepath.Join(parent, "images"))

	var buf bytes.Buffer
	if err := f.builder.BuildFull(&buf); err == nil {
		t.Error("expected BuildFull to fail on image root stat error")
	}
}

func keysOf(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
