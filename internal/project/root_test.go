// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindFrom(t *testing.T) {
	t.Run("finds marker in starting directory", func(t *testing.T) {
		root := t.TempDir()
		writeMarker(t, root)

		got, err := FindFrom(root, DefaultMarker)
		if err != nil {
			t.Fatalf("FindFrom returned error: %v", err)
		}
		if got != root {
			t.Errorf("FindFrom = %q, want %q", got, root)
		}
	})

	t.Run("walks up to marker at depth N", func(t *testing.T) {
		root := t.TempDir()
		writeMarker(t, root)

		deep := filepath.Join(root, "d", "e")
		if err := os.MkdirAll(deep, 0o755); err != nil {
			t.Fatal(err)
		}

		got, err := FindFrom(deep, DefaultMarker)
		if err != nil {
			t.Fatalf("FindFrom returned error: %v", err)
		}
		if got != root {
			t.Errorf("FindFrom = %q, want %q", got, root)
		}
	})

	t.Run("fails when no ancestor has the marker", func(t *testing.T) {
		dir := t.TempDir()

		_, err := FindFrom(dir, "definitely-not-a-real-marker-file")
		if !errors.Is(err, ErrRootNotFound) {
			t.Errorf("expected ErrRootNotFound, got %v", err)
		}
	})

	t.Run("ignores directories named like the marker", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, DefaultMarker), 0o755); err != nil {
			t.Fatal(err)
		}

		_, err := FindFrom(dir, DefaultMarker)
		if !errors.Is(err, ErrRootNotFound) {
			t.Errorf("expected ErrRootNotFound for directory marker, got %v", err)
		}
	})

	t.Run("empty marker falls back to default", func(t *testing.T) {
		root := t.TempDir()
		writeMarker(t, root)

		got, err := FindFrom(root, "")
		if err != nil {
			t.Fatalf("FindFrom returned error: %v", err)
		}
		if got != root {
			t.Errorf("FindFrom = %q, want %q", got, root)
		}
	})
}

func TestFindUsesWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	writeMarker(t, root)

	deep := filepath.Join(root, "sub")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(deep)

	got, err := Find(DefaultMarker)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	// t.TempDir may sit behind a symlink (macOS /var -> /private/var),
	// so compare resolved paths.
	wantResolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("Find = %q, want %q", gotResolved, wantResolved)
	}
}

func writeMarker(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, DefaultMarker), []byte("up:\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}
