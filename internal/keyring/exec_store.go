// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package keyring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// cliResult is the outcome of one secret store CLI invocation.
type cliResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// cliFunc executes a secret store CLI command. Split out so ExecStore
// tests never touch the real keychain.
type cliFunc func(ctx context.Context, stdin string, name string, args ...string) (cliResult, error)

// ExecStore talks to the OS secret store through its command line
// helper: `security` on macOS, `secret-tool` on Linux. The secret is
// addressed by the fixed (service, key) pair.
type ExecStore struct {
	service string
	key     string
	goos    string
	run     cliFunc
}

// NewExecStore creates a store for the current platform. Empty service
// or key fall back to the defaults.
func NewExecStore(service, key string) (*ExecStore, error) {
	return newExecStore(service, key, runtime.GOOS, runCLI)
}

func newExecStore(service, key, goos string, run cliFunc) (*ExecStore, error) {
	if service == "" {
		service = DefaultService
	}
	if key == "" {
		key = DefaultKey
	}
	switch goos {
	case "darwin", "linux":
	default:
		return nil, fmt.Errorf("%w: no secret store CLI for %s", ErrUnavailable, goos)
	}
	return &ExecStore{service: service, key: key, goos: goos, run: run}, nil
}

// Get implements Store.
func (s *ExecStore) Get(ctx context.Context) (string, error) {
	var res cliResult
	var err error
	switch s.goos {
	case "darwin":
		// -w prints only the password.
		res, err = s.run(ctx, "", "security", "find-generic-password",
			"-s", s.service, "-a", s.key, "-w")
	case "linux":
		res, err = s.run(ctx, "", "secret-tool", "lookup",
			"service", s.service, "key", s.key)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.exitCode != 0 {
		if s.notFoundExit(res.exitCode) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimSpace(res.stderr))
	}

	value := strings.TrimRight(res.stdout, "\n")
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Set implements Store.
func (s *ExecStore) Set(ctx context.Context, value string) error {
	var res cliResult
	var err error
	switch s.goos {
	case "darwin":
		// -U updates an existing item instead of failing on duplicates.
		res, err = s.run(ctx, "", "security", "add-generic-password",
			"-U", "-s", s.service, "-a", s.key, "-w", value)
	case "linux":
		// secret-tool reads the secret from stdin.
		res, err = s.run(ctx, value, "secret-tool", "store",
			"--label", "Arbor master encryption key",
			"service", s.service, "key", s.key)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.exitCode != 0 {
		return fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimSpace(res.stderr))
	}
	return nil
}

// notFoundExit reports whether an exit code means "item absent" rather
// than "store broken" for the platform CLI.
func (s *ExecStore) notFoundExit(code int) bool {
	switch s.goos {
	case "darwin":
		// security(1) exits 44 (errSecItemNotFound) for a missing item.
		return code == 44
	case "linux":
		// secret-tool lookup exits 1 when no matching secret exists.
		return code == 1
	}
	return false
}

// runCLI is the production cliFunc.
func runCLI(ctx context.Context, stdin string, name string, args ...string) (cliResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := cliResult{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.exitCode = exitErr.ExitCode()
			return res, nil
		}
		// The helper binary itself could not run.
		return res, err
	}
	return res, nil
}
