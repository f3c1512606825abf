// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

// Package models defines the wire and storage types shared across fishdiary.
package models

// Entry is a single journal record as stored inside a partition file and
// as exchanged with clients. Field names match the on-disk JSON documents,
// which are also the archive format, so they must not change.
type Entry struct {
	// DiaryID is the opaque unique identifier of the entry.
	DiaryID string `json:"diaryId"`

	// Content is the rich-text body, passed through unmodified.
	Content string `json:"editorContent"`

	// CreatedAt is the client-reported creation timestamp.
	CreatedAt string `json:"createTime"`

	// LogDate is the calendar date the entry is about, formatted YYYY-MM-DD.
	// It drives the partition (year) and the slot key (date + sequence).
	LogDate string `json:"logTime"`

	// Weekday, LunarDate and Location are opaque display fields.
	Weekday   string `json:"logWeek"`
	LunarDate string `json:"logLunar"`
	Location  string `json:"address"`

	// ImageRefs holds the stored paths of images attached to this entry.
	ImageRefs []string `json:"imageUrls"`
}

// Year returns the four-digit year of LogDate, or "" if LogDate is too short.
func (e *Entry) Year() string {
	if len(e.LogDate) < 4 {
		return ""
	}
	return e.LogDate[:4]
}

// ListedEntry is an Entry annotated with its slot key, as returned by the
// list endpoint.
type ListedEntry struct {
	Key string `json:"key"`
	Entry
}

// EntryPage is one page of a paginated entry listing.
type EntryPage struct {
	Records     []ListedEntry `json:"records"`
	PageIndex   int           `json:"pageIndex"`
	PageSize    int           `json:"pageSize"`
	TotalCount  int           `json:"totalCount"`
	TotalPages  int           `json:"totalPages"`
	HasNext     bool          `json:"hasNext"`
	HasPrevious bool          `json:"hasPrevious"`
}
