// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package main is the entry point for the arbord daemon.
//
// Arbord supervises the containerized backing stack of the Arbor desktop
// shell. It locates the project root, drives `make up` / `make down`
// against it, tracks the spawned process handle, provisions the master
// encryption key in the OS secret store, and exposes the whole surface
// to the shell over a loopback-only HTTP API with a WebSocket event
// stream for lifecycle transitions.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, ARBOR_* environment
//     variables (Koanf v2, highest priority wins)
//  2. Logging: zerolog, JSON or console format
//  3. Keyring: OS secret store (security / secret-tool), encrypted file
//     fallback, or in-memory store for tests
//  4. Stack manager: make/docker command runner with root discovery
//  5. Supervisor tree: lifecycle driver, WebSocket hub, HTTP server,
//     each in its own failure-isolated layer (suture v4)
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources:
//   - Environment variables (ARBOR_SERVER_PORT, ARBOR_KEYRING_BACKEND, ...)
//   - Config file (-config flag, ARBOR_CONFIG, or ./arbord.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The daemon handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new API connections
//   - Runs the close hook, stopping the backing stack
//   - Waits for supervised services to drain within the tree timeout
//
// # Example Usage
//
//	export ARBOR_LOGGING_LEVEL=debug
//	export ARBOR_LIFECYCLE_AUTO_START=false
//	./arbord -config /etc/arbord/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/arbor-dev/arbord/internal/api"
	"github.com/arbor-dev/arbord/internal/config"
	"github.com/arbor-dev/arbord/internal/hub"
	"github.com/arbor-dev/arbord/internal/keyring"
	"github.com/arbor-dev/arbord/internal/lifecycle"
	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/stack"
	"github.com/arbor-dev/arbord/internal/supervisor"
	"github.com/arbor-dev/arbord/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (overrides ARBOR_CONFIG)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.ConfigPathEnvVar, *configPath)
	}

	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version.Version).
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("keyring_backend", cfg.Keyring.Backend).
		Bool("auto_start", cfg.Lifecycle.AutoStart).
		Msg("Starting arbord")

	// Master key store.
	store, err := buildStore(&cfg.Keyring)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize key store")
	}
	var provOpts []keyring.Option
	if cfg.Keyring.GenerateOnAnyError {
		logging.Warn().Msg("Legacy key policy enabled: store failures regenerate the master key")
		provOpts = append(provOpts, keyring.WithGenerateOnAnyError())
	}
	provisioner := keyring.NewProvisioner(store, provOpts...)

	// Stack manager over the real command runner.
	stackMgr := stack.NewManager(stack.NewExecRunner(), stack.Options{
		Tool:           cfg.Stack.Tool,
		UpTarget:       cfg.Stack.UpTarget,
		DownTarget:     cfg.Stack.DownTarget,
		Runtime:        cfg.Stack.Runtime,
		NameFilter:     cfg.Stack.NameFilter,
		Marker:         cfg.Stack.Marker,
		CommandTimeout: cfg.Stack.CommandTimeout,
	})

	// WebSocket hub and lifecycle driver.
	eventHub := hub.New()
	lifecycleSvc := lifecycle.NewService(stackMgr, eventHub, lifecycle.Config{
		AutoStart:    cfg.Lifecycle.AutoStart,
		SettleDelay:  cfg.Lifecycle.SettleDelay,
		WarmUpWindow: cfg.Lifecycle.WarmUpWindow,
		PollInterval: cfg.Lifecycle.PollInterval,
		StopTimeout:  cfg.Lifecycle.StopTimeout,
	})

	// HTTP API.
	handler := api.NewHandler(stackMgr, provisioner, lifecycleSvc, eventHub)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSvc := api.NewHTTPService(addr, router, cfg.Server.ShutdownTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddLifecycleService(lifecycleSvc)
	tree.AddEventService(eventHub)
	tree.AddAPIService(httpSvc)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Daemon stopped gracefully")
}

// buildStore selects the master key backend.
//
// "auto" prefers the OS secret store and falls back to the encrypted
// file store when the platform CLI is unavailable, so a dev machine
// without secret-tool still gets persistent keys.
func buildStore(cfg *config.KeyringConfig) (keyring.Store, error) {
	switch cfg.Backend {
	case "os":
		return keyring.NewExecStore(cfg.Service, cfg.Key)
	case "file":
		return keyring.NewFileStore(cfg.FilePath, fileSecret(cfg))
	case "memory":
		logging.Warn().Msg("In-memory key store selected: master key will not survive restarts")
		return keyring.NewMemStore(), nil
	case "auto", "":
		store, err := keyring.NewExecStore(cfg.Service, cfg.Key)
		if err == nil {
			return store, nil
		}
		logging.Warn().Err(err).Msg("OS secret store unavailable, falling back to file store")
		path := cfg.FilePath
		if path == "" {
			dir, dirErr := os.UserConfigDir()
			if dirErr != nil {
				return nil, fmt.Errorf("no file store path available: %w", dirErr)
			}
			path = filepath.Join(dir, "arbord", "master.key")
		}
		return keyring.NewFileStore(path, fileSecret(cfg))
	default:
		return nil, fmt.Errorf("unknown keyring backend %q", cfg.Backend)
	}
}

// fileSecret returns the machine secret for the file store. When none
// is configured the hostname is used, which keeps the key file
// unreadable off-machine without requiring extra setup.
func fileSecret(cfg *config.KeyringConfig) string {
	if cfg.MachineSecret != "" {
		return cfg.MachineSecret
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "arbord-local"
	}
	return "arbord|" + host
}
