// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package stack

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/metrics"
	"github.com/arbor-dev/arbord/internal/project"
)

// Options configures a Manager. Zero values fall back to the defaults
// the Arbor stack uses in practice.
type Options struct {
	// Tool is the orchestration command run against the project root.
	// Default: make
	Tool string

	// UpTarget is the bring-up verb. Default: up
	UpTarget string

	// DownTarget is the tear-down verb. Default: down
	DownTarget string

	// Runtime is the container runtime CLI used for status and install
	// probes. Default: docker
	Runtime string

	// NameFilter selects the stack's containers in status queries.
	// Default: arbor
	NameFilter string

	// Marker is the project root marker filename. Default: Makefile
	Marker string

	// CommandTimeout bounds blocking external commands (stop, status,
	// setup). Zero means unbounded, matching the historical behavior
	// where a wedged command stalls its caller.
	CommandTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.Tool == "" {
		o.Tool = "make"
	}
	if o.UpTarget == "" {
		o.UpTarget = "up"
	}
	if o.DownTarget == "" {
		o.DownTarget = "down"
	}
	if o.Runtime == "" {
		o.Runtime = "docker"
	}
	if o.NameFilter == "" {
		o.NameFilter = "arbor"
	}
	if o.Marker == "" {
		o.Marker = project.DefaultMarker
	}
}

// Manager supervises the containerized backing stack. It owns at most
// one Process handle, set by a successful Start and cleared only by a
// successful Stop. All methods are safe for concurrent use; the lock
// covers only the handle, not the external command calls themselves, so
// two concurrent Starts both spawn a bring-up invocation.
type Manager struct {
	mu   sync.Mutex
	proc Process

	runner CommandRunner
	locate func(marker string) (string, error)
	opts   Options
}

// NewManager creates a Manager using the given runner. A nil runner
// gets the production ExecRunner.
func NewManager(runner CommandRunner, opts Options) *Manager {
	if runner == nil {
		runner = NewExecRunner()
	}
	opts.applyDefaults()
	return &Manager{
		runner: runner,
		locate: project.Find,
		opts:   opts,
	}
}

// Start spawns the bring-up command in the project root and returns
// without waiting for the stack to become ready. Any previously stored
// handle is replaced unconditionally. The spawned child is independent
// of arbord's lifetime.
func (m *Manager) Start(ctx context.Context) (string, error) {
	root, err := m.locate(m.opts.Marker)
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("root", root).
		Str("command", m.opts.Tool+" "+m.opts.UpTarget).
		Msg("starting backing services")

	started := time.Now()
	proc, err := m.runner.Start(ctx, root, m.opts.Tool, m.opts.UpTarget)
	metrics.RecordStackCommand("start", err, time.Since(started))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	m.mu.Lock()
	m.proc = proc
	m.mu.Unlock()

	logging.Ctx(ctx).Info().Int("pid", proc.Pid()).Msg("backing services starting")
	return "Services started successfully", nil
}

// Stop runs the tear-down command to completion. The stored handle is
// cleared only on success; a failed stop leaves it unchanged. Stopping
// an already stopped stack succeeds as long as the tear-down command
// no-ops cleanly.
func (m *Manager) Stop(ctx context.Context) (string, error) {
	root, err := m.locate(m.opts.Marker)
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("root", root).
		Str("command", m.opts.Tool+" "+m.opts.DownTarget).
		Msg("stopping backing services")

	ctx, cancel := m.commandContext(ctx)
	defer cancel()

	started := time.Now()
	_, stderr, err := m.runner.Run(ctx, root, m.opts.Tool, m.opts.DownTarget)
	metrics.RecordStackCommand("stop", err, time.Since(started))
	if err != nil {
		return "", &CommandError{Op: "stop", Stderr: stderr, Err: err}
	}

	m.mu.Lock()
	m.proc = nil
	m.mu.Unlock()

	logging.Ctx(ctx).Info().Msg("backing services stopped")
	return "Services stopped successfully", nil
}

// Status queries the container runtime for containers matching the name
// filter and summarizes the result. It never consults the stored
// handle, so the answer is consistent no matter which process started
// the stack.
func (m *Manager) Status(ctx context.Context) (string, error) {
	names, err := m.Containers(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "Stopped", nil
	}
	return fmt.Sprintf("Running (%d containers)", len(names)), nil
}

// Containers returns the names of running containers matching the name
// filter.
func (m *Manager) Containers(ctx context.Context) ([]string, error) {
	ctx, cancel := m.commandContext(ctx)
	defer cancel()

	started := time.Now()
	stdout, stderr, err := m.runner.Run(ctx, "", m.opts.Runtime,
		"ps", "--filter", "name="+m.opts.NameFilter, "--format", "{{.Names}}")
	metrics.RecordStackCommand("status", err, time.Since(started))
	if err != nil {
		return nil, &CommandError{Op: "status", Stderr: stderr, Err: err}
	}

	var names []string
	for _, line := range strings.Split(stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// RuntimeInstalled reports whether the container runtime CLI is present
// and responding. A missing or broken runtime reports false, not an
// error, so the shell can show an install prompt.
func (m *Manager) RuntimeInstalled(ctx context.Context) (bool, error) {
	ctx, cancel := m.commandContext(ctx)
	defer cancel()

	started := time.Now()
	_, _, err := m.runner.Run(ctx, "", m.opts.Runtime, "--version")
	metrics.RecordStackCommand("runtime", err, time.Since(started))
	return err == nil, nil
}

// Tracked reports whether this Manager currently holds a process
// handle. Absence means "not started by this instance", not "stack is
// down".
func (m *Manager) Tracked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proc != nil
}

// commandContext applies the configured command timeout, if any.
func (m *Manager) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opts.CommandTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.opts.CommandTimeout)
}
