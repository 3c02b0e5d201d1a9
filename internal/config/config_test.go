// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 7421 {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Stack.Tool != "make" || cfg.Stack.UpTarget != "up" || cfg.Stack.DownTarget != "down" {
		t.Errorf("unexpected stack defaults: %+v", cfg.Stack)
	}
	if cfg.Stack.NameFilter != "arbor" || cfg.Stack.Marker != "Makefile" {
		t.Errorf("unexpected stack defaults: %+v", cfg.Stack)
	}
	if !cfg.Lifecycle.AutoStart {
		t.Error("lifecycle.auto_start should default to true")
	}
	if cfg.Lifecycle.SettleDelay != 500*time.Millisecond || cfg.Lifecycle.WarmUpWindow != 10*time.Second {
		t.Errorf("unexpected lifecycle defaults: %+v", cfg.Lifecycle)
	}
	if cfg.Keyring.Service != "dev.arbor.app" || cfg.Keyring.Key != "master_encryption_key" {
		t.Errorf("unexpected keyring defaults: %+v", cfg.Keyring)
	}
	if cfg.Keyring.GenerateOnAnyError {
		t.Error("keyring.generate_on_any_error should default to false")
	}
	if cfg.Stack.CommandTimeout != 0 {
		t.Errorf("stack.command_timeout should default to 0, got %v", cfg.Stack.CommandTimeout)
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbord.yaml")
	content := `
server:
  port: 9999
stack:
  name_filter: myproj
lifecycle:
  auto_start: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Stack.NameFilter != "myproj" {
		t.Errorf("stack.name_filter = %q, want myproj", cfg.Stack.NameFilter)
	}
	if cfg.Lifecycle.AutoStart {
		t.Error("lifecycle.auto_start should be overridden to false")
	}
	// Untouched values keep their defaults.
	if cfg.Stack.Tool != "make" {
		t.Errorf("stack.tool = %q, want default make", cfg.Stack.Tool)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbord.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARBOR_SERVER_PORT", "8888")
	t.Setenv("ARBOR_STACK_RUNTIME", "podman")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("server.port = %d, want env override 8888", cfg.Server.Port)
	}
	if cfg.Stack.Runtime != "podman" {
		t.Errorf("stack.runtime = %q, want podman", cfg.Stack.Runtime)
	}
}

func TestEnvTransform(t *testing.T) {
	cases := map[string]string{
		"ARBOR_SERVER_PORT":          "server.port",
		"ARBOR_STACK_NAME_FILTER":    "stack.name_filter",
		"ARBOR_LIFECYCLE_AUTO_START": "lifecycle.auto_start",
		"ARBOR_KEYRING_BACKEND":      "keyring.backend",
		"ARBOR_LOGGING_LEVEL":        "logging.level",
		"ARBOR_UNRELATED_THING":      "",
		"ARBOR_NOSECTION":            "",
	}
	for in, want := range cases {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config { return defaultConfig() }

	t.Run("defaults are valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("default config invalid: %v", err)
		}
	})

	t.Run("rejects non-loopback host", func(t *testing.T) {
		cfg := base()
		cfg.Server.Host = "0.0.0.0"
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "loopback") {
			t.Errorf("expected loopback error, got %v", err)
		}
	})

	t.Run("rejects bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected port error")
		}
	})

	t.Run("rejects unknown keyring backend", func(t *testing.T) {
		cfg := base()
		cfg.Keyring.Backend = "vault"
		if err := cfg.Validate(); err == nil {
			t.Error("expected backend error")
		}
	})

	t.Run("file backend requires a path", func(t *testing.T) {
		cfg := base()
		cfg.Keyring.Backend = "file"
		if err := cfg.Validate(); err == nil {
			t.Error("expected file_path error")
		}
		cfg.Keyring.FilePath = "/tmp/master.key"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error with file_path set: %v", err)
		}
	})

	t.Run("rejects negative durations", func(t *testing.T) {
		cfg := base()
		cfg.Lifecycle.SettleDelay = -time.Second
		if err := cfg.Validate(); err == nil {
			t.Error("expected negative duration error")
		}
	})
}
