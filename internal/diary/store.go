// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package diary implements the journal entry store.
//
// Entries live in per-(owner, year) partition files named
// {owner}-{year}.json under the data root. Each partition is a JSON
// object mapping slot keys to entries. A slot key is the entry's log
// date with dashes stripped plus a two-digit sequence number, so
// 2024-05-01 yields 2024050101, 2024050102 and so on up to 99 entries
// per date.
//
// Every read-modify-write cycle on a partition holds that partition's
// mutex from the shared LockArena.
package diary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/models"
)

// maxSlotsPerDate bounds the two-digit sequence suffix.
const maxSlotsPerDate = 99

// Store reads and writes journal entry partitions.
type Store struct {
	root  string
	locks *LockArena
}

// Partition identifies one on-disk partition file.
type Partition struct {
	Path  string
	Owner string
	Year  string
}

// Key returns the lock arena key for this partition.
func (p Partition) Key() string {
	return p.Owner + "-" + p.Year
}

// NewStore creates a store rooted at dir, sharing the given lock arena
// with the backup reader.
func NewStore(dir string, locks *LockArena) *Store {
	return &Store{root: dir, locks: locks}
}

// Root returns the data root directory.
func (s *Store) Root() string {
	return s.root
}

// partitionPath returns the file path for an owner's partition in year.
func (s *Store) partitionPath(owner, year string) string {
	return filepath.Join(s.root, owner+"-"+year+".json")
}

// Insert stores an entry in the owner's partition for the entry's log
// year and returns the allocated slot key. Returns ErrCapacityExceeded
// when all slots for the log date are taken.
func (s *Store) Insert(owner string, entry *models.Entry) (string, error) {
	year := entry.Year()
	if year == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidLogDate, entry.LogDate)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data root: %w", err)
	}

	lock := s.locks.Get(owner + "-" + year)
	lock.Lock()
	defer lock.Unlock()

	path := s.partitionPath(owner, year)
	entries, err := readPartitionFile(path)
	if err != nil {
		return "", err
	}

	key, err := allocateSlotKey(entries, entry.LogDate)
	if err != nil {
		return "", err
	}
	entries[key] = *entry

	if err := writePartitionFile(path, entries); err != nil {
		return "", err
	}

	logging.Debug().
		Str("owner", owner).
		Str("key", key).
		Str("partition", filepath.Base(path)).
		Msg("entry saved")
	return key, nil
}

// allocateSlotKey finds the smallest unused sequence for the log date.
func allocateSlotKey(entries map[string]models.Entry, logDate string) (string, error) {
	dateKey := strings.ReplaceAll(logDate, "-", "")
	for seq := 1; seq <= maxSlotsPerDate; seq++ {
		key := fmt.Sprintf("%s%02d", dateKey, seq)
		if _, taken := entries[key]; !taken {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCapacityExceeded, logDate)
}

// List returns one page of the owner's entries across all years, sorted
// by log date descending. Stored image paths are reduced to bare file
// names in the listing.
func (s *Store) List(owner string, pageIndex, pageSize int) (*models.EntryPage, error) {
	partitions, err := s.OwnerPartitions(owner)
	if err != nil {
		return nil, err
	}

	all := make([]models.ListedEntry, 0)
	for _, p := range partitions {
		entries, err := s.ReadPartition(p)
		if err != nil {
			return nil, err
		}
		for key, entry := range entries {
			listed := models.ListedEntry{Key: key, Entry: entry}
			listed.ImageRefs = baseNames(entry.ImageRefs)
			all = append(all, listed)
		}
	}

	// Newest first. Slot keys embed the date so ties break on sequence.
	sort.Slice(all, func(i, j int) bool {
		if all[i].LogDate != all[j].LogDate {
			return all[i].LogDate > all[j].LogDate
		}
		return all[i].Key > all[j].Key
	})

	total := len(all)
	start := (pageIndex - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	records := []models.ListedEntry{}
	if start >= 0 && start < total {
		records = all[start:end]
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &models.EntryPage{
		Records:     records,
		PageIndex:   pageIndex,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNext:     pageIndex*pageSize < total,
		HasPrevious: pageIndex > 1,
	}, nil
}

// baseNames reduces stored image paths to their file names.
func baseNames(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

// Delete removes the entry with the given ID from the owner's
// partitions and best-effort deletes its attached image files. A year
// hint narrows the search to one partition. Returns the removed slot
// key, or ErrNotFound.
func (s *Store) Delete(owner, diaryID, yearHint string) (string, error) {
	if diaryID == "" {
		return "", ErrEmptyDiaryID
	}

	var partitions []Partition
	if yearHint != "" {
		p := Partition{Path: s.partitionPath(owner, yearHint), Owner: owner, Year: yearHint}
		if _, err := os.Stat(p.Path); err != nil {
			return "", fmt.Errorf("%w: no partition for year %s", ErrNotFound, yearHint)
		}
		partitions = []Partition{p}
	} else {
		var err error
		partitions, err = s.OwnerPartitions(owner)
		if err != nil {
			return "", err
		}
	}

	for _, p := range partitions {
		key, err := s.deleteFromPartition(p, diaryID)
		if err != nil {
			if err == errNotInPartition {
				continue
			}
			return "", err
		}
		return key, nil
	}
	return "", ErrNotFound
}

// errNotInPartition is internal to the partition scan.
var errNotInPartition = fmt.Errorf("not in partition")

// deleteFromPartition removes the matching entry from one partition,
// holding its lock for the whole read-modify-write cycle.
func (s *Store) deleteFromPartition(p Partition, diaryID string) (string, error) {
	lock := s.locks.Get(p.Key())
	lock.Lock()
	defer lock.Unlock()

	entries, err := readPartitionFile(p.Path)
	if err != nil {
		return "", err
	}

	for key, entry := range entries {
		if entry.DiaryID != diaryID {
			continue
		}

		deleteImageFiles(entry.ImageRefs)
		delete(entries, key)

		if err := writePartitionFile(p.Path, entries); err != nil {
			return "", err
		}
		logging.Info().
			Str("owner", p.Owner).
			Str("diary_id", diaryID).
			Str("key", key).
			Msg("entry deleted")
		return key, nil
	}
	return "", errNotInPartition
}

// deleteImageFiles removes attached images. Failures are logged and do
// not abort the entry deletion.
func deleteImageFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				logging.Warn().Str("image", path).Msg("attached image already gone")
			} else {
				logging.Err(err).Str("image", path).Msg("failed to delete attached image")
			}
			continue
		}
		logging.Info().Str("image", path).Msg("attached image deleted")
	}
}

// OwnerPartitions lists the owner's partition files.
func (s *Store) OwnerPartitions(owner string) ([]Partition, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, owner+"-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan partitions: %w", err)
	}
	return toPartitions(matches), nil
}

// AllPartitions lists every partition file in the data root, across all
// owners. Used by the full backup builder.
func (s *Store) AllPartitions() ([]Partition, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, "*-*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan partitions: %w", err)
	}
	return toPartitions(matches), nil
}

// toPartitions parses {owner}-{year}.json file names, sorted for
// deterministic iteration.
func toPartitions(paths []string) []Partition {
	sort.Strings(paths)
	partitions := make([]Partition, 0, len(paths))
	for _, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), ".json")
		idx := strings.LastIndex(base, "-")
		if idx <= 0 || idx == len(base)-1 {
			continue
		}
		partitions = append(partitions, Partition{
			Path:  path,
			Owner: base[:idx],
			Year:  base[idx+1:],
		})
	}
	return partitions
}

// ReadPartition loads one partition under its lock, so concurrent
// writers never expose a half-written file to the reader.
func (s *Store) ReadPartition(p Partition) (map[string]models.Entry, error) {
	lock := s.locks.Get(p.Key())
	lock.Lock()
	defer lock.Unlock()
	return readPartitionFile(p.Path)
}

// readPartitionFile reads and decodes a partition. A missing file is an
// empty partition.
func readPartitionFile(path string) (map[string]models.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]models.Entry), nil
		}
		return nil, fmt.Errorf("failed to read partition %s: %w", filepath.Base(path), err)
	}

	entries := make(map[string]models.Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptPartition, filepath.Base(path), err)
	}
	return entries, nil
}

// writePartitionFile encodes and writes a partition.
func writePartitionFile(path string, entries map[string]models.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode partition: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write partition %s: %w", filepath.Base(path), err)
	}
	return nil
}
