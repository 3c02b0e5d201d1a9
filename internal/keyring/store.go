// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package keyring

import (
	"context"
	"errors"
	"sync"
)

// Service and key name addressing the one secret arbord manages.
const (
	// DefaultService is the secret store namespace.
	DefaultService = "dev.arbor.app"

	// DefaultKey is the secret's name inside the namespace.
	DefaultKey = "master_encryption_key"
)

// Tagged store errors. Callers must be able to tell "the store answered
// and the secret is absent" apart from "the store could not answer".
var (
	// ErrNotFound means the store is reachable and holds no secret.
	ErrNotFound = errors.New("secret not found")

	// ErrUnavailable means the store could not be consulted: locked
	// keychain, missing helper binary, unreadable file.
	ErrUnavailable = errors.New("secret store unavailable")
)

// Store is an opaque key-value secret store holding the single managed
// secret. Implementations persist externally; nothing is cached on this
// side.
type Store interface {
	// Get returns the stored secret. Fails with ErrNotFound or
	// ErrUnavailable (possibly wrapped with detail).
	Get(ctx context.Context) (string, error)

	// Set stores the secret, overwriting unconditionally.
	Set(ctx context.Context, value string) error
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu    sync.Mutex
	value string
	set   bool

	// Fail, when non-nil, is returned by every operation. Use it to
	// simulate an unavailable store.
	Fail error
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Get implements Store.
func (s *MemStore) Get(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return "", s.Fail
	}
	if !s.set {
		return "", ErrNotFound
	}
	return s.value, nil
}

// Set implements Store.
func (s *MemStore) Set(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.value = value
	s.set = true
	return nil
}
