// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package images stores uploaded images on disk.
//
// Layout: {imageRoot}/{owner}/{year}/{yyyyMMdd_HHmmss.mmm}_{diaryId}{ext}
//
// The year directory comes from the upload time, and the file name
// carries the timestamp plus the owning entry's ID so view requests can
// locate the year from the name alone.
package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fishdiary/fishdiary/internal/logging"
)

var (
	// ErrNotFound indicates the requested image file does not exist.
	ErrNotFound = errors.New("image not found")

	// ErrPermissionDenied indicates a delete target outside the caller's
	// ownership.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEmptyFile indicates an upload with no content.
	ErrEmptyFile = errors.New("uploaded file is empty")
)

// mimeTypes maps lowercase file extensions to content types. Unknown
// extensions fall back to application/octet-stream.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ContentType returns the MIME type for an image file name.
func ContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Store manages the on-disk image tree.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore creates an image store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir, now: time.Now}
}

// Root returns the image root directory.
func (s *Store) Root() string {
	return s.root
}

// StoredImage describes a saved upload.
type StoredImage struct {
	// Path is the full on-disk path, recorded in the entry's image refs.
	Path string `json:"url"`

	// FileName is the generated unique file name.
	FileName string `json:"fileName"`
}

// Save writes an uploaded image for the given owner and entry. The
// original file name only contributes its extension. Returns ErrEmptyFile
// for zero-length uploads.
func (s *Store) Save(owner, diaryID, originalName string, r io.Reader) (*StoredImage, error) {
	now := s.now()
	dir := filepath.Join(s.root, owner, fmt.Sprintf("%d", now.Year()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	// Millisecond suffix keeps same-second uploads for one entry from
	// colliding.
	fileName := fmt.Sprintf("%s.%03d_%s%s",
		now.Format("20060102_150405"),
		now.Nanosecond()/1e6,
		diaryID,
		strings.ToLower(filepath.Ext(originalName)),
	)
	path := filepath.Join(dir, fileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create image file: %w", err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		//nolint:errcheck // partial file is best-effort cleanup
		os.Remove(path)
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}
	if written == 0 {
		//nolint:errcheck // empty file cleanup
		os.Remove(path)
		return nil, ErrEmptyFile
	}

	logging.Info().
		Str("owner", owner).
		Str("file", fileName).
		Int64("bytes", written).
		Msg("image stored")
	return &StoredImage{Path: path, FileName: fileName}, nil
}

// Open returns a reader for the named image of the given owner, with
// its content type and size. The year directory is derived from the
// first four characters of the file name, falling back to the current
// year for unexpected names.
func (s *Store) Open(owner, fileName string) (io.ReadCloser, string, int64, error) {
	year := ""
	if len(fileName) >= 8 {
		year = fileName[:4]
	} else {
		year = fmt.Sprintf("%d", s.now().Year())
	}

	path := filepath.Join(s.root, owner, year, filepath.Base(fileName))
	if !s.contains(path) {
		return nil, "", 0, ErrNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", 0, ErrNotFound
		}
		return nil, "", 0, fmt.Errorf("failed to open image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		//nolint:errcheck // open succeeded, close error is secondary
		f.Close()
		return nil, "", 0, fmt.Errorf("failed to stat image: %w", err)
	}
	return f, ContentType(fileName), info.Size(), nil
}

// DeleteResult reports the outcome for one delete target.
type DeleteResult struct {
	URL    string `json:"url"`
	Result string `json:"result"`
	OK     bool   `json:"ok"`
}

// Delete removes the given image paths. Each path must lie inside the
// image root and contain both the owner ID and the entry ID, otherwise
// the target is skipped with a permission failure. Per-path outcomes
// are reported individually.
func (s *Store) Delete(owner, diaryID string, urls []string) []DeleteResult {
	results := make([]DeleteResult, 0, len(urls))
	for _, url := range urls {
		results = append(results, s.deleteOne(owner, diaryID, url))
	}
	return results
}

func (s *Store) deleteOne(owner, diaryID, url string) DeleteResult {
	path := filepath.Clean(url)

	if !s.contains(path) || !strings.Contains(path, owner) || !strings.Contains(path, diaryID) {
		return DeleteResult{URL: url, Result: "permission denied", OK: false}
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return DeleteResult{URL: url, Result: "file not found", OK: false}
		}
		return DeleteResult{URL: url, Result: fmt.Sprintf("delete failed: %v", err), OK: false}
	}

	logging.Info().Str("owner", owner).Str("image", path).Msg("image deleted")
	return DeleteResult{URL: url, Result: "deleted", OK: true}
}

// contains reports whether path resolves inside the image root, which
// blocks traversal out of the tree.
func (s *Store) contains(path string) bool {
	rel, err := filepath.Rel(s.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
