// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/fishdiary/fishdiary/internal/diary"
	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/models"
)

// Builder assembles backup archives. Partition reads go through the
// diary store so they honor the per-partition locks; image trees are
// streamed file by file, never buffered whole.
type Builder struct {
	store     *diary.Store
	imageRoot string
}

// NewBuilder creates an archive builder over the given store and image
// root.
func NewBuilder(store *diary.Store, imageRoot string) *Builder {
	return &Builder{store: store, imageRoot: imageRoot}
}

// BuildUser writes a single owner's archive to w. Layout:
//
//	diary/{owner}-{year}.json   one per partition
//	{owner}/images/...          the owner's image tree
//
// A partition that cannot be read or serialized is logged and skipped.
// Image I/O failures abort the build.
func (b *Builder) BuildUser(owner string, w io.Writer) error {
	zw := zip.NewWriter(w)

	partitions, err := b.store.OwnerPartitions(owner)
	if err != nil {
		return err
	}
	b.writePartitions(zw, partitions)

	userImages := filepath.Join(b.imageRoot, owner)
	info, err := os.Stat(userImages)
	switch {
	case err == nil && info.IsDir():
		if err := addDirToZip(zw, userImages, owner+"/images/"); err != nil {
			return fmt.Errorf("failed to archive images for %s: %w", owner, err)
		}
	case err == nil || os.IsNotExist(err):
		logging.Warn().Str("owner", owner).Str("dir", userImages).Msg("owner has no image directory")
	default:
		// A stat failure is image I/O, not an absent tree.
		return fmt.Errorf("failed to stat image directory for %s: %w", owner, err)
	}

	return zw.Close()
}

// BuildFull writes the whole-system archive to w. Layout:
//
//	diary/{owner}-{year}.json   every partition of every owner
//	images/...                  the entire image root
func (b *Builder) BuildFull(w io.Writer) error {
	zw := zip.NewWriter(w)

	partitions, err := b.store.AllPartitions()
	if err != nil {
		return err
	}
	b.writePartitions(zw, partitions)

	info, err := os.Stat(b.imageRoot)
	switch {
	case err == nil && info.IsDir():
		if err := addDirToZip(zw, b.imageRoot, "images/"); err != nil {
			return fmt.Errorf("failed to archive image root: %w", err)
		}
	case err == nil || os.IsNotExist(err):
		// No image root yet; the archive carries partitions only.
	default:
		return fmt.Errorf("failed to stat image root: %w", err)
	}

	return zw.Close()
}

// writePartitions serializes each partition into the archive, logging
// and skipping the ones that fail.
func (b *Builder) writePartitions(zw *zip.Writer, partitions []diary.Partition) {
	for _, p := range partitions {
		if err := b.writePartition(zw, p); err != nil {
			logging.Err(err).
				Str("owner", p.Owner).
				Str("year", p.Year).
				Msg("failed to archive partition, skipping")
		}
	}
}

// writePartition serializes one partition as diary/{owner}-{year}.json
// with slot keys re-derived sequentially per date.
func (b *Builder) writePartition(zw *zip.Writer, p diary.Partition) error {
	entries, err := b.store.ReadPartition(p)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(renumberSlots(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode partition: %w", err)
	}

	f, err := zw.Create("diary/" + p.Owner + "-" + p.Year + ".json")
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry: %w", err)
	}

	logging.Debug().
		Str("owner", p.Owner).
		Str("year", p.Year).
		Int("entries", len(entries)).
		Msg("partition archived")
	return nil
}

// renumberSlots rebuilds the slot key map with fresh per-date sequence
// counters, walking entries in original key order so the result is
// deterministic and densely numbered.
func renumberSlots(entries map[string]models.Entry) map[string]models.Entry {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	counters := make(map[string]int)
	out := make(map[string]models.Entry, len(entries))
	for _, k := range keys {
		entry := entries[k]
		dateKey := strings.ReplaceAll(entry.LogDate, "-", "")
		counters[dateKey]++
		out[fmt.Sprintf("%s%02d", dateKey, counters[dateKey])] = entry
	}
	return out
}

// addDirToZip streams every file under dir into the archive beneath
// prefix, preserving the relative tree.
func addDirToZip(zw *zip.Writer, dir, prefix string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		f, err := zw.Create(prefix + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(f, src)
		if cerr := src.Close(); err == nil {
			err = cerr
		}
		return err
	})
}
