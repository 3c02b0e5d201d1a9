// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/arbor-dev/arbord/internal/hub"
	"github.com/arbor-dev/arbord/internal/lifecycle"
	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/version"
)

// StackManager is the slice of the stack manager the handlers need.
type StackManager interface {
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	Status(ctx context.Context) (string, error)
	Containers(ctx context.Context) ([]string, error)
	RuntimeInstalled(ctx context.Context) (bool, error)
	RunSetup(ctx context.Context, target string) (string, error)
}

// KeyProvisioner is the slice of the keyring provisioner the handlers
// need.
type KeyProvisioner interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, value string) error
	Generate(ctx context.Context) (string, error)
	GetOrGenerate(ctx context.Context) (string, error)
}

// LifecycleReporter reports the lifecycle state machine's position.
type LifecycleReporter interface {
	State() lifecycle.State
	Detail() string
}

// Handler holds the dependencies behind the API routes.
type Handler struct {
	stack     StackManager
	keys      KeyProvisioner
	life      LifecycleReporter
	events    *hub.Hub
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewHandler creates the API handler. life and events may be nil when
// the lifecycle service or event hub are not running (tests, stripped
// deployments).
func NewHandler(stackMgr StackManager, keys KeyProvisioner, life LifecycleReporter, events *hub.Hub) *Handler {
	return &Handler{
		stack:  stackMgr,
		keys:   keys,
		life:   life,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Loopback-only server; the shell's webview origin varies
			// by platform, so the origin check stays open.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
}

// StartServices handles POST /api/v1/services/start.
func (h *Handler) StartServices(w http.ResponseWriter, r *http.Request) {
	msg, err := h.stack.Start(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"message": msg}})
}

// StopServices handles POST /api/v1/services/stop.
func (h *Handler) StopServices(w http.ResponseWriter, r *http.Request) {
	msg, err := h.stack.Stop(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"message": msg}})
}

// ServicesStatus handles GET /api/v1/services/status.
func (h *Handler) ServicesStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stack.Status(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	containers, err := h.stack.Containers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]any{
		"summary":    summary,
		"containers": containers,
	}})
}

// RuntimeInstalled handles GET /api/v1/runtime.
func (h *Handler) RuntimeInstalled(w http.ResponseWriter, r *http.Request) {
	installed, err := h.stack.RuntimeInstalled(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]bool{"installed": installed}})
}

// RunSetup handles POST /api/v1/setup/{target}.
func (h *Handler) RunSetup(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	stdout, err := h.stack.RunSetup(r.Context(), target)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"output": stdout}})
}

// Version handles GET /api/v1/version.
func (h *Handler) Version(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"version": version.Version}})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	data := map[string]any{
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"version":        version.Version,
	}
	if h.life != nil {
		data["lifecycle"] = h.life.State().String()
		if detail := h.life.Detail(); detail != "" {
			data["detail"] = detail
		}
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: data})
}

// HealthLive handles GET /api/v1/health/live: a bare liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// setKeyRequest is the PUT /master-key body.
type setKeyRequest struct {
	Value string `json:"value"`
}

// GetMasterKey handles GET /api/v1/master-key.
func (h *Handler) GetMasterKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Get(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"key": key}})
}

// SetMasterKey handles PUT /api/v1/master-key.
func (h *Handler) SetMasterKey(w http.ResponseWriter, r *http.Request) {
	var req setKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == "" {
		respondJSON(w, http.StatusBadRequest, &APIResponse{
			Success: false,
			Error:   &APIError{Code: CodeInvalidRequest, Message: "body must be {\"value\": \"<encoded key>\"}"},
		})
		return
	}
	if err := h.keys.Set(r.Context(), req.Value); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true})
}

// GenerateMasterKey handles POST /api/v1/master-key/generate.
func (h *Handler) GenerateMasterKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.Generate(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"key": key}})
}

// EnsureMasterKey handles POST /api/v1/master-key/ensure.
func (h *Handler) EnsureMasterKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keys.GetOrGenerate(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: map[string]string{"key": key}})
}

// Events handles GET /api/v1/events: upgrade to the lifecycle stream.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		respondJSON(w, http.StatusServiceUnavailable, &APIResponse{
			Success: false,
			Error:   &APIError{Code: CodeInternal, Message: "event hub not running"},
		})
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	hub.NewClient(h.events, conn).Start()
}
