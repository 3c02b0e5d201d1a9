// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package stack

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for stack operations.
var (
	// ErrSpawnFailed indicates the bring-up command could not be spawned.
	ErrSpawnFailed = errors.New("failed to spawn stack command")

	// ErrInvalidTarget indicates a setup target name that is not a plain
	// word (empty, path-like, or containing shell-significant characters).
	ErrInvalidTarget = errors.New("invalid setup target name")
)

// CommandError reports a blocking external command that exited non-zero.
// Stderr carries the command's captured standard error verbatim so the
// shell can show the tool's own diagnostics.
type CommandError struct {
	// Op is the stack operation that ran the command: stop, status, setup.
	Op string

	// Stderr is the command's captured standard error output.
	Stderr string

	// Err is the underlying execution error.
	Err error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s command failed", e.Op)
	if detail := strings.TrimSpace(e.Stderr); detail != "" {
		return msg + ": " + detail
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying execution error.
func (e *CommandError) Unwrap() error {
	return e.Err
}
