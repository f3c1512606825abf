// Fishdiary - Personal Journal Storage and Backup
// Copyright 2026 Fishdiary Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fishdiary/fishdiary

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fishdiary/fishdiary/internal/auth"
)

// NewRouter builds the chi router with the full route table. All
// /api/diary, /api/images and /api/backup routes require a valid token;
// health and metrics stay open.
func NewRouter(h *Handler, jwt *auth.JWTManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	if len(h.cfg.Server.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if h.cfg.Server.RateLimitRequests > 0 {
		r.Use(httprate.LimitByRealIP(h.cfg.Server.RateLimitRequests, h.cfg.Server.RateLimitWindow))
	}

	r.Get("/api/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/diary", func(r chi.Router) {
		r.Use(jwt.Middleware)
		r.Post("/save", h.SaveDiary)
		r.Get("/getDiaryId", h.GetDiaryID)
		r.Get("/list", h.ListDiaries)
		r.Post("/delete", h.DeleteDiary)
	})

	r.Route("/api/images", func(r chi.Router) {
		r.Use(jwt.Middleware)
		r.Post("/upload", h.UploadImage)
		r.Get("/view", h.ViewImage)
		r.Post("/delete", h.DeleteImages)
	})

	r.Route("/api/backup", func(r chi.Router) {
		r.Use(jwt.Middleware)
		r.Post("/trigger", h.TriggerBackup)
		r.Post("/user/start", h.StartUserBackup)
		r.Get("/status", h.BackupStatus)
		r.Get("/download/{taskId}", h.DownloadBackup)
		r.Get("/complete/{taskId}", h.CompleteBackup)
	})

	return r
}
