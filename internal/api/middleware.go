// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package api

import (
	"net/http"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/metrics"
)

// RequestID attaches a request ID to the context and the response, so
// shell-side logs and arbord logs can be correlated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(started)
		metrics.RecordAPIRequest(r.Method, r.URL.Path, ww.Status(), elapsed)
		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

// keyLimiter throttles master-key operations per remote address. The
// shell calls these a handful of times per session; a runaway caller
// hammering the secret store gets 429s instead of keychain prompts.
type keyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newKeyLimiter(perMinute int) *keyLimiter {
	return &keyLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *keyLimiter) allow(addr string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[addr]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[addr] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Middleware returns the chi middleware form of the limiter.
func (l *keyLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r.RemoteAddr) {
			respondJSON(w, http.StatusTooManyRequests, &APIResponse{
				Success: false,
				Error:   &APIError{Code: CodeInvalidRequest, Message: "too many master key requests"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
