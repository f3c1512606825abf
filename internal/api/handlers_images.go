// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fishdiary/fishdiary/internal/auth"
	"github.com/fishdiary/fishdiary/internal/images"
	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/metrics"
	"github.com/fishdiary/fishdiary/internal/models"
	"github.com/fishdiary/fishdiary/internal/validation"
)

// DeleteImagesRequest is the body of POST /api/images/delete.
type DeleteImagesRequest struct {
	URLs    []string `json:"urls" validate:"required,min=1"`
	DiaryID string   `json:"diaryId" validate:"required"`
}

// UploadImage stores one multipart image for an entry of the caller.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.Server.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_UPLOAD", "failed to parse multipart form", err)
		return
	}

	diaryID := r.FormValue("diaryId")
	if diaryID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "diaryId is required", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_UPLOAD", "file field is missing", err)
		return
	}
	defer func() {
		//nolint:errcheck // multipart temp file cleanup
		file.Close()
	}()

	stored, err := h.images.Save(owner, diaryID, header.Filename, file)
	if err != nil {
		if errors.Is(err, images.ErrEmptyFile) {
			respondError(w, http.StatusBadRequest, "EMPTY_FILE", "uploaded file is empty", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "UPLOAD_FAILED", "failed to store image", err)
		return
	}

	metrics.ImagesStored.Inc()
	respondJSON(w, http.StatusOK, models.Success("file uploaded", stored))
}

// ViewImage streams a stored image back with its MIME type. The owner
// comes from the "id" query parameter as in the original client
// protocol; the file name locates the year directory.
func (h *Handler) ViewImage(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("file")
	owner := r.URL.Query().Get("id")
	if fileName == "" || owner == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "file and id parameters are required", nil)
		return
	}

	rc, contentType, size, err := h.images.Open(owner, fileName)
	if err != nil {
		if errors.Is(err, images.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "image not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "VIEW_FAILED", "failed to read image", err)
		return
	}
	defer func() {
		//nolint:errcheck // read-side close
		rc.Close()
	}()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logging.Err(err).Str("file", fileName).Msg("failed to stream image")
	}
}

// DeleteImages removes the listed image files, reporting a per-URL
// outcome.
func (h *Handler) DeleteImages(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	var req DeleteImagesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
		return
	}

	results := h.images.Delete(owner, req.DiaryID, req.URLs)

	succeeded, failed := 0, 0
	for _, res := range results {
		if res.OK {
			succeeded++
		} else {
			failed++
		}
	}
	metrics.ImagesDeleted.Add(float64(succeeded))

	respondJSON(w, http.StatusOK, models.Success(
		fmt.Sprintf("deleted %d images, %d failed", succeeded, failed),
		map[string]interface{}{
			"results":      results,
			"successCount": succeeded,
			"failCount":    failed,
			"diaryId":      req.DiaryID,
		},
	))
}
