// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package models

// APIResponse is the uniform envelope returned by every synchronous endpoint.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Message (and optionally Code)
//
// Example:
//
//	{
//	  "status": "success",
//	  "message": "diary saved",
//	  "data": {"key": "2024050101"}
//	}
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`

	// Code is a machine-readable error code, set only on error responses.
	Code string `json:"code,omitempty"`
}

// Success builds a success envelope with a message and payload.
func Success(message string, data interface{}) *APIResponse {
	return &APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// Error builds an error envelope.
func Error(code, message string) *APIResponse {
	return &APIResponse{
		Status:  "error",
		Message: message,
		Code:    code,
	}
}
