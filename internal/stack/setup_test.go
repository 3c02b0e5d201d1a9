// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package stack

import (
	"context"
	"errors"
	"testing"
)

func TestRunSetup(t *testing.T) {
	t.Run("returns captured stdout", func(t *testing.T) {
		runner := &fakeRunner{stdout: "database migrated\n"}
		m := newTestManager(runner, Options{})

		out, err := m.RunSetup(context.Background(), "migrate")
		if err != nil {
			t.Fatalf("RunSetup returned error: %v", err)
		}
		if out != "database migrated\n" {
			t.Errorf("stdout = %q", out)
		}

		got := runner.lastCall()
		if got.dir != "/fake/root" || got.name != "make" || got.args[0] != "migrate" {
			t.Errorf("unexpected command: %+v", got)
		}
	})

	t.Run("non-zero exit surfaces stderr", func(t *testing.T) {
		runner := &fakeRunner{stderr: "make: *** No rule to make target 'bogus'", runErr: errors.New("exit status 2")}
		m := newTestManager(runner, Options{})

		_, err := m.RunSetup(context.Background(), "bogus")
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected *CommandError, got %v", err)
		}
		if cmdErr.Op != "setup" || cmdErr.Stderr == "" {
			t.Errorf("unexpected error detail: %+v", cmdErr)
		}
	})

	t.Run("rejects unsafe target names", func(t *testing.T) {
		runner := &fakeRunner{}
		m := newTestManager(runner, Options{})

		for _, target := range []string{"", "-n", "../etc/passwd", "a b", "do;rm"} {
			if _, err := m.RunSetup(context.Background(), target); !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("target %q: expected ErrInvalidTarget, got %v", target, err)
			}
		}
		if runner.callCount() != 0 {
			t.Error("invalid targets must never reach the runner")
		}
	})

	t.Run("accepts conventional target names", func(t *testing.T) {
		m := newTestManager(&fakeRunner{}, Options{})
		for _, target := range []string{"up", "db-reset", "seed.dev", "build_all", "2fast"} {
			if _, err := m.RunSetup(context.Background(), target); err != nil {
				t.Errorf("target %q: unexpected error %v", target, err)
			}
		}
	})
}
