// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package config provides layered configuration for arbord via Koanf:
// struct defaults, then an optional YAML file, then ARBOR_* environment
// variables, highest priority last.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Stack     StackConfig     `koanf:"stack"`
	Lifecycle LifecycleConfig `koanf:"lifecycle"`
	Keyring   KeyringConfig   `koanf:"keyring"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the localhost API the shell talks to.
type ServerConfig struct {
	// Host to bind. The API carries no authentication, so anything
	// other than a loopback address is rejected by validation.
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitRequests/Window throttle API calls per client.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// StackConfig configures stack commands.
type StackConfig struct {
	Tool       string `koanf:"tool"`
	UpTarget   string `koanf:"up_target"`
	DownTarget string `koanf:"down_target"`
	Runtime    string `koanf:"runtime"`
	NameFilter string `koanf:"name_filter"`
	Marker     string `koanf:"marker"`

	// CommandTimeout bounds blocking commands. Zero preserves the
	// historical unbounded behavior.
	CommandTimeout time.Duration `koanf:"command_timeout"`
}

// LifecycleConfig configures the launch and close hooks.
type LifecycleConfig struct {
	AutoStart    bool          `koanf:"auto_start"`
	SettleDelay  time.Duration `koanf:"settle_delay"`
	WarmUpWindow time.Duration `koanf:"warmup_window"`
	PollInterval time.Duration `koanf:"poll_interval"`
	StopTimeout  time.Duration `koanf:"stop_timeout"`
}

// KeyringConfig configures the master key store.
type KeyringConfig struct {
	// Backend selects the store: auto (OS store with file fallback),
	// os, file, or memory.
	Backend string `koanf:"backend"`
	Service string `koanf:"service"`
	Key     string `koanf:"key"`

	// FilePath and MachineSecret configure the encrypted file backend.
	FilePath      string `koanf:"file_path"`
	MachineSecret string `koanf:"machine_secret"`

	// GenerateOnAnyError restores the legacy policy of regenerating the
	// master key on any store failure, not only on absence.
	GenerateOnAnyError bool `koanf:"generate_on_any_error"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, matching the behavior
// the desktop shell has always shipped with.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              7421,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Stack: StackConfig{
			Tool:       "make",
			UpTarget:   "up",
			DownTarget: "down",
			Runtime:    "docker",
			NameFilter: "arbor",
			Marker:     "Makefile",
		},
		Lifecycle: LifecycleConfig{
			AutoStart:    true,
			SettleDelay:  500 * time.Millisecond,
			WarmUpWindow: 10 * time.Second,
			PollInterval: time.Second,
			StopTimeout:  30 * time.Second,
		},
		Keyring: KeyringConfig{
			Backend: "auto",
			Service: "dev.arbor.app",
			Key:     "master_encryption_key",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Host {
	case "127.0.0.1", "localhost", "::1":
	default:
		return fmt.Errorf("server.host %q must be a loopback address: the API is unauthenticated", c.Server.Host)
	}
	switch c.Keyring.Backend {
	case "auto", "os", "file", "memory":
	default:
		return fmt.Errorf("keyring.backend %q unknown (want auto, os, file, or memory)", c.Keyring.Backend)
	}
	if c.Keyring.Backend == "file" && c.Keyring.FilePath == "" {
		return fmt.Errorf("keyring.file_path required for file backend")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q unknown (want json or console)", c.Logging.Format)
	}
	for name, d := range map[string]time.Duration{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"stack.command_timeout":   c.Stack.CommandTimeout,
		"lifecycle.settle_delay":  c.Lifecycle.SettleDelay,
		"lifecycle.warmup_window": c.Lifecycle.WarmUpWindow,
		"lifecycle.poll_interval": c.Lifecycle.PollInterval,
		"lifecycle.stop_timeout":  c.Lifecycle.StopTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
