// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package stack

import (
	"bytes"
	"context"
	"os/exec"
)

// Process is an opaque handle to a spawned child process. The Manager
// stores it for bookkeeping only; it is never the source of truth for
// whether the stack is up.
type Process interface {
	// Pid returns the operating system process ID.
	Pid() int
}

// CommandRunner abstracts external command execution so the Manager can
// be tested without shelling out.
type CommandRunner interface {
	// Start spawns name with args in dir and returns immediately with a
	// handle to the running process. The child is not tied to this
	// process's lifetime: if arbord dies, the child keeps running.
	Start(ctx context.Context, dir, name string, args ...string) (Process, error)

	// Run executes name with args in dir to completion and returns the
	// captured standard output and standard error. A non-zero exit is
	// reported through err with stdout/stderr still populated. An empty
	// dir runs in the current working directory.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner returns a CommandRunner that executes real commands.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Start implements CommandRunner.
func (r *ExecRunner) Start(ctx context.Context, dir, name string, args ...string) (Process, error) {
	// Deliberately not CommandContext: the spawned stack must outlive
	// arbord on abnormal exit, so no kill-on-cancel is attached.
	_ = ctx
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	// Reap the child when it exits on its own so it does not linger as
	// a zombie for the rest of arbord's run.
	proc := &execProcess{cmd: cmd}
	go func() { _ = cmd.Wait() }()
	return proc, nil
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
