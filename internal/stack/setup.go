// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package stack

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/metrics"
)

// targetPattern matches plain orchestration target names. The target is
// passed as a single argv element so the shell never interprets it, but
// path-like or option-like names are rejected anyway: the API must not
// be able to reach arbitrary files or flags of the tool.
var targetPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// RunSetup runs the named maintenance target against the project root
// and returns its captured standard output. It blocks until the command
// completes; with no CommandTimeout configured a hung target stalls the
// caller indefinitely.
func (m *Manager) RunSetup(ctx context.Context, target string) (string, error) {
	if !targetPattern.MatchString(target) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}

	root, err := m.locate(m.opts.Marker)
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("root", root).
		Str("target", target).
		Msg("running setup command")

	ctx, cancel := m.commandContext(ctx)
	defer cancel()

	started := time.Now()
	stdout, stderr, err := m.runner.Run(ctx, root, m.opts.Tool, target)
	metrics.RecordStackCommand("setup", err, time.Since(started))
	if err != nil {
		return "", &CommandError{Op: "setup", Stderr: stderr, Err: err}
	}
	return stdout, nil
}
