// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/arbor-dev/arbord/internal/logging"
)

// HTTPService runs the API server under the supervision tree.
type HTTPService struct {
	addr            string
	handler         http.Handler
	shutdownTimeout time.Duration
}

// NewHTTPService creates the supervised HTTP server.
func NewHTTPService(addr string, handler http.Handler, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{addr: addr, handler: handler, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service: listen until the context is
// canceled, then shut down gracefully.
func (s *HTTPService) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.addr).Msg("api server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		// Listen failure before shutdown; suture will back off and
		// restart.
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("api server shutdown incomplete")
		_ = server.Close()
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *HTTPService) String() string {
	return "api-server@" + s.addr
}
