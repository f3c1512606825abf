// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/fishdiary/fishdiary/internal/logging"
	"github.com/fishdiary/fishdiary/internal/models"
)

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Err(err).Msg("failed to write JSON response")
	}
}

// respondError sends an error envelope, logging the underlying error if
// present.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Err(err).Str("code", code).Msg("API error")
	}
	respondJSON(w, status, models.Error(code, message))
}

// decodeBody decodes a JSON request body into dst, responding with a
// 400 on failure. Returns false when the response has been written.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", err)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
