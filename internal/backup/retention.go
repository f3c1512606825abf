// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/metrics"
)

// Prune deletes full backup archives beyond the newest keep files,
// ordered by modification time. Archives are the fish-diary-*.zip files
// directly under dir. keep <= 0 disables pruning.
func Prune(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	type archive struct {
		name  string
		mtime int64
	}
	archives := make([]archive, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "fish-diary-") || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		archives = append(archives, archive{name: e.Name(), mtime: info.ModTime().UnixNano()})
	}

	if len(archives) <= keep {
		return 0, nil
	}

	// Newest first, then drop everything past the keep count.
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].mtime > archives[j].mtime
	})

	removed := 0
	for _, a := range archives[keep:] {
		path := filepath.Join(dir, a.name)
		if err := os.Remove(path); err != nil {
			logging.Err(err).Str("file", a.name).Msg("failed to delete old archive")
			continue
		}
		removed++
		metrics.RetentionDeleted.Inc()
		logging.Info().Str("file", a.name).Msg("old archive deleted")
	}

	logging.Info().
		Int("removed", removed).
		Int("kept", len(archives)-removed).
		Msg("retention prune finished")
	return removed, nil
}
