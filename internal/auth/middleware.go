// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/fishdiary/fishdiary/internal/models"
)

type contextKey string

// ownerContextKey carries the authenticated owner ID through the request
// context.
const ownerContextKey contextKey = "fishdiary.owner"

// OwnerFromContext returns the authenticated owner ID, or "" if the
// request was not authenticated.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerContextKey).(string)
	return owner
}

// WithOwner returns a context carrying the given owner ID. Exposed for
// handler tests.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

// Middleware verifies the Bearer token on every request and injects the
// owner ID into the request context. Requests without a valid token get
// a 401 with the standard error envelope.
func (m *JWTManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearerToken(r)
		if tokenString == "" {
			unauthorized(w, "missing authorization token")
			return
		}

		claims, err := m.VerifyToken(tokenString)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		ctx := WithOwner(r.Context(), claims.OwnerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken pulls the token from the Authorization header, or
// falls back to the "token" query parameter for download links that
// cannot set headers.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // response write failures cannot be recovered here
	json.NewEncoder(w).Encode(models.Error("UNAUTHORIZED", message))
}
