// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the router's middleware.
type RouterConfig struct {
	// RateLimitRequests per RateLimitWindow per client, applied to all
	// /api/v1 routes. Zero disables the global limiter.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// KeyRequestsPerMinute throttles master-key routes separately.
	// Default: 30
	KeyRequestsPerMinute int
}

// NewRouter assembles the chi router over the handler.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.KeyRequestsPerMinute <= 0 {
		cfg.KeyRequestsPerMinute = 30
	}
	keyLimit := newKeyLimiter(cfg.KeyRequestsPerMinute)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
			r.Use(httprate.Limit(
				cfg.RateLimitRequests,
				cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(rateLimited),
			))
		}

		r.Get("/health", h.Health)
		r.Get("/health/live", h.HealthLive)
		r.Get("/version", h.Version)
		r.Get("/runtime", h.RuntimeInstalled)

		r.Route("/services", func(r chi.Router) {
			r.Post("/start", h.StartServices)
			r.Post("/stop", h.StopServices)
			r.Get("/status", h.ServicesStatus)
		})

		r.Post("/setup/{target}", h.RunSetup)

		r.Route("/master-key", func(r chi.Router) {
			r.Use(keyLimit.Middleware)
			r.Get("/", h.GetMasterKey)
			r.Put("/", h.SetMasterKey)
			r.Post("/generate", h.GenerateMasterKey)
			r.Post("/ensure", h.EnsureMasterKey)
		})

		r.Get("/events", h.Events)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimited keeps throttled responses in the JSON envelope the shell
// expects from every other route.
func rateLimited(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusTooManyRequests, &APIResponse{
		Success: false,
		Error:   &APIError{Code: CodeInvalidRequest, Message: "too many requests"},
	})
}
