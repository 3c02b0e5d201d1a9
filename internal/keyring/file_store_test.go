// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package keyring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	t.Run("set then get roundtrips", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets", "master.key")
		s, err := NewFileStore(path, "machine-secret")
		if err != nil {
			t.Fatal(err)
		}

		const value = "dGVzdGtleTE2Ynl0ZXN0ZXN0a2V5MTZieXRlcw=="
		if err := s.Set(context.Background(), value); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		got, err := s.Get(context.Background())
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if got != value {
			t.Errorf("Get = %q, want %q", got, value)
		}
	})

	t.Run("missing file is not found", func(t *testing.T) {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "none.key"), "machine-secret")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.Get(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("file is not stored in plaintext", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		s, _ := NewFileStore(path, "machine-secret")

		const value = "super-recognizable-value"
		if err := s.Set(context.Background(), value); err != nil {
			t.Fatal(err)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(raw) == value {
			t.Error("file contains the plaintext secret")
		}
	})

	t.Run("wrong machine secret is unavailable, not absent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		s1, _ := NewFileStore(path, "machine-secret")
		if err := s1.Set(context.Background(), "value"); err != nil {
			t.Fatal(err)
		}

		s2, _ := NewFileStore(path, "different-secret")
		_, err := s2.Get(context.Background())
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("corrupt file is unavailable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		if err := os.WriteFile(path, []byte("!!not base64!!"), 0o600); err != nil {
			t.Fatal(err)
		}

		s, _ := NewFileStore(path, "machine-secret")
		if _, err := s.Get(context.Background()); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("set overwrites unconditionally", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "master.key")
		s, _ := NewFileStore(path, "machine-secret")

		if err := s.Set(context.Background(), "first"); err != nil {
			t.Fatal(err)
		}
		if err := s.Set(context.Background(), "second"); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != "second" {
			t.Errorf("Get = %q, want second", got)
		}
	})

	t.Run("rejects empty configuration", func(t *testing.T) {
		if _, err := NewFileStore("", "secret"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable for empty path, got %v", err)
		}
		if _, err := NewFileStore("/tmp/x", ""); !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable for empty machine secret, got %v", err)
		}
	})
}
