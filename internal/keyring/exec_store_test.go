// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package keyring

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeCLI scripts one cliFunc response and records the invocation.
type fakeCLI struct {
	result cliResult
	err    error

	gotStdin string
	gotName  string
	gotArgs  []string
}

func (f *fakeCLI) run(_ context.Context, stdin string, name string, args ...string) (cliResult, error) {
	f.gotStdin = stdin
	f.gotName = name
	f.gotArgs = args
	return f.result, f.err
}

func TestExecStoreGet(t *testing.T) {
	t.Run("darwin returns trimmed password", func(t *testing.T) {
		cli := &fakeCLI{result: cliResult{stdout: "c2VjcmV0\n"}}
		s, err := newExecStore("", "", "darwin", cli.run)
		if err != nil {
			t.Fatal(err)
		}

		got, err := s.Get(context.Background())
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if got != "c2VjcmV0" {
			t.Errorf("Get = %q", got)
		}
		if cli.gotName != "security" || cli.gotArgs[0] != "find-generic-password" {
			t.Errorf("unexpected command: %s %v", cli.gotName, cli.gotArgs)
		}
		if !contains(cli.gotArgs, DefaultService) || !contains(cli.gotArgs, DefaultKey) {
			t.Errorf("command missing fixed identity: %v", cli.gotArgs)
		}
	})

	t.Run("darwin exit 44 means not found", func(t *testing.T) {
		cli := &fakeCLI{result: cliResult{exitCode: 44, stderr: "could not be found"}}
		s, _ := newExecStore("", "", "darwin", cli.run)

		if _, err := s.Get(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("darwin other exits mean unavailable", func(t *testing.T) {
		cli := &fakeCLI{result: cliResult{exitCode: 36, stderr: "keychain locked"}}
		s, _ := newExecStore("", "", "darwin", cli.run)

		_, err := s.Get(context.Background())
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "keychain locked") {
			t.Errorf("error should carry stderr, got %v", err)
		}
	})

	t.Run("linux exit 1 means not found", func(t *testing.T) {
		cli := &fakeCLI{result: cliResult{exitCode: 1}}
		s, _ := newExecStore("", "", "linux", cli.run)

		if _, err := s.Get(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing helper binary means unavailable", func(t *testing.T) {
		cli := &fakeCLI{err: errors.New("executable file not found in $PATH")}
		s, _ := newExecStore("", "", "linux", cli.run)

		if _, err := s.Get(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestExecStoreSet(t *testing.T) {
	t.Run("darwin passes value as argument", func(t *testing.T) {
		cli := &fakeCLI{}
		s, _ := newExecStore("", "", "darwin", cli.run)

		if err := s.Set(context.Background(), "dmFsdWU="); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		if !contains(cli.gotArgs, "dmFsdWU=") {
			t.Errorf("value not passed: %v", cli.gotArgs)
		}
		if !contains(cli.gotArgs, "-U") {
			t.Errorf("expected update flag for overwrite semantics: %v", cli.gotArgs)
		}
	})

	t.Run("linux passes value on stdin", func(t *testing.T) {
		cli := &fakeCLI{}
		s, _ := newExecStore("", "", "linux", cli.run)

		if err := s.Set(context.Background(), "dmFsdWU="); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		if cli.gotStdin != "dmFsdWU=" {
			t.Errorf("stdin = %q, want the value", cli.gotStdin)
		}
		if contains(cli.gotArgs, "dmFsdWU=") {
			t.Errorf("secret must not appear in argv: %v", cli.gotArgs)
		}
	})

	t.Run("non-zero exit means unavailable", func(t *testing.T) {
		cli := &fakeCLI{result: cliResult{exitCode: 1, stderr: "no keyring daemon"}}
		s, _ := newExecStore("", "", "linux", cli.run)

		if err := s.Set(context.Background(), "v"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestExecStoreUnsupportedPlatform(t *testing.T) {
	if _, err := newExecStore("", "", "plan9", nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for unsupported platform, got %v", err)
	}
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}
