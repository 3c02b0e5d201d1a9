// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/arbor-dev/arbord/internal/keyring"
	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/project"
	"github.com/arbor-dev/arbord/internal/stack"
)

// APIResponse is the envelope for every JSON response.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError carries a stable machine-readable code plus a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned to the shell.
const (
	CodeRootNotFound     = "root_not_found"
	CodeSpawnFailed      = "spawn_failed"
	CodeCommandFailed    = "command_failed"
	CodeInvalidRequest   = "invalid_request"
	CodeSecretNotFound   = "secret_not_found"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternal         = "internal_error"
)

// respondJSON writes the envelope with the given status.
func respondJSON(w http.ResponseWriter, status int, resp *APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write response")
	}
}

// respondError maps an operation error onto a status and error code.
func respondError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	respondJSON(w, status, &APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: err.Error()},
	})
}

// classify picks status and code for each error family the operations
// produce.
func classify(err error) (int, string) {
	var cmdErr *stack.CommandError
	switch {
	case errors.Is(err, project.ErrRootNotFound):
		return http.StatusConflict, CodeRootNotFound
	case errors.Is(err, stack.ErrSpawnFailed):
		return http.StatusBadGateway, CodeSpawnFailed
	case errors.Is(err, stack.ErrInvalidTarget):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.As(err, &cmdErr):
		return http.StatusBadGateway, CodeCommandFailed
	case errors.Is(err, keyring.ErrNotFound):
		return http.StatusNotFound, CodeSecretNotFound
	case errors.Is(err, keyring.ErrUnavailable):
		return http.StatusServiceUnavailable, CodeStoreUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
