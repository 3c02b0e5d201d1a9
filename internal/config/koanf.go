// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"arbord.yaml",
	"arbord.yml",
	"/etc/arbord/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "ARBOR_CONFIG"

// envPrefix namespaces arbord's environment variables.
const envPrefix = "ARBOR_"

// Load builds the configuration from defaults, the config file, and
// environment variables, then validates the result.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// load is Load with an explicit config file path ("" skips the file
// layer). Split out for tests.
func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the config file to use, or "" for none.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// envTransform maps ARBOR_* variables onto config paths:
//
//	ARBOR_SERVER_PORT          -> server.port
//	ARBOR_STACK_NAME_FILTER    -> stack.name_filter
//	ARBOR_LIFECYCLE_AUTO_START -> lifecycle.auto_start
//
// The first underscore-separated token selects the section; the rest of
// the name becomes the key with underscores preserved. Unknown sections
// are dropped so unrelated ARBOR_* variables cannot pollute the config.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	switch section {
	case "server", "stack", "lifecycle", "keyring", "logging":
		return section + "." + rest
	default:
		return ""
	}
}
