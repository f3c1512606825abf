// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/fishdiary/fishdiary/internal/auth"
	"github.com/fishdiary/fishdiary/internal/diary"
	"github.com/fishdiary/fishdiary/internal/metrics"
	"github.com/fishdiary/fishdiary/internal/models"
	"github.com/fishdiary/fishdiary/internal/validation"
)

// SaveDiaryRequest is the body of POST /api/diary/save.
type SaveDiaryRequest struct {
	DiaryID   string   `json:"diaryId" validate:"required"`
	Content   string   `json:"editorContent"`
	CreatedAt string   `json:"createTime"`
	LogDate   string   `json:"logTime" validate:"required,len=10"`
	Weekday   string   `json:"logWeek"`
	LunarDate string   `json:"logLunar"`
	Location  string   `json:"address"`
	ImageRefs []string `json:"imageUrls"`
}

// DeleteDiaryRequest is the body of POST /api/diary/delete.
type DeleteDiaryRequest struct {
	DiaryID    string `json:"diaryId" validate:"required"`
	CreateYear string `json:"createYear"`
}

// SaveDiary stores a new journal entry and returns its slot key.
func (h *Handler) SaveDiary(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	var req SaveDiaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
		return
	}

	entry := models.Entry{
		DiaryID:   req.DiaryID,
		Content:   req.Content,
		CreatedAt: req.CreatedAt,
		LogDate:   req.LogDate,
		Weekday:   req.Weekday,
		LunarDate: req.LunarDate,
		Location:  req.Location,
		ImageRefs: req.ImageRefs,
	}

	key, err := h.store.Insert(owner, &entry)
	if err != nil {
		switch {
		case errors.Is(err, diary.ErrInvalidLogDate):
			respondError(w, http.StatusBadRequest, "INVALID_LOG_DATE", "log date must be YYYY-MM-DD", err)
		case errors.Is(err, diary.ErrCapacityExceeded):
			respondError(w, http.StatusConflict, "CAPACITY_EXCEEDED", "no free slot for this date", err)
		case errors.Is(err, diary.ErrCorruptPartition):
			respondError(w, http.StatusInternalServerError, "CORRUPT_PARTITION", "stored data is unreadable", err)
		default:
			respondError(w, http.StatusInternalServerError, "SAVE_FAILED", "failed to save diary", err)
		}
		return
	}

	metrics.EntriesSaved.WithLabelValues("insert").Inc()
	respondJSON(w, http.StatusOK, models.Success("diary saved", map[string]string{"key": key}))
}

// GetDiaryID hands out a fresh unique entry ID.
func (h *Handler) GetDiaryID(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, models.Success("id generated", map[string]string{
		"diaryId": uuid.NewString(),
	}))
}

// ListDiaries returns one page of the caller's entries, newest first.
func (h *Handler) ListDiaries(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	pageIndex := getIntParam(r, "pageIndex", 1)
	pageSize := getIntParam(r, "pageSize", h.cfg.Server.DefaultPageSize)
	if pageIndex < 1 {
		pageIndex = 1
	}
	if pageSize < 1 {
		pageSize = h.cfg.Server.DefaultPageSize
	}
	if pageSize > h.cfg.Server.MaxPageSize {
		pageSize = h.cfg.Server.MaxPageSize
	}

	page, err := h.store.List(owner, pageIndex, pageSize)
	if err != nil {
		if errors.Is(err, diary.ErrCorruptPartition) {
			respondError(w, http.StatusInternalServerError, "CORRUPT_PARTITION", "stored data is unreadable", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "LIST_FAILED", "failed to list diaries", err)
		return
	}

	respondJSON(w, http.StatusOK, models.Success("diary list fetched", page))
}

// DeleteDiary removes an entry and its attached images.
func (h *Handler) DeleteDiary(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	var req DeleteDiaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
		return
	}

	if _, err := h.store.Delete(owner, req.DiaryID, req.CreateYear); err != nil {
		switch {
		case errors.Is(err, diary.ErrNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "diary entry not found", err)
		case errors.Is(err, diary.ErrCorruptPartition):
			respondError(w, http.StatusInternalServerError, "CORRUPT_PARTITION", "stored data is unreadable", err)
		default:
			respondError(w, http.StatusInternalServerError, "DELETE_FAILED", "failed to delete diary", err)
		}
		return
	}

	metrics.EntriesDeleted.Inc()
	respondJSON(w, http.StatusOK, models.Success("diary deleted", true))
}
