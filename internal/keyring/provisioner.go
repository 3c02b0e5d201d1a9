// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package keyring

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/arbor-dev/arbord/internal/metrics"
)

// KeySize is the raw master key length in bytes.
const KeySize = 32

// Provisioner manages the master encryption key in a Store. It holds no
// secret material between calls; every value lives only inside the
// call that produced or fetched it.
type Provisioner struct {
	store Store

	// generateOnAnyError restores the legacy shell behavior where any
	// Get failure, including an unavailable store, falls through to
	// generate-and-overwrite. Off by default because it can replace a
	// recoverable secret behind a locked store.
	generateOnAnyError bool
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithGenerateOnAnyError makes GetOrGenerate treat every Get failure as
// "absent". Only enable this for hosts where the store cannot report
// absence distinctly.
func WithGenerateOnAnyError() Option {
	return func(p *Provisioner) { p.generateOnAnyError = true }
}

// NewProvisioner creates a Provisioner over the given store.
func NewProvisioner(store Store, opts ...Option) *Provisioner {
	p := &Provisioner{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns the stored master key as its text encoding.
func (p *Provisioner) Get(ctx context.Context) (string, error) {
	value, err := p.store.Get(ctx)
	metrics.RecordMasterKeyOperation("get", err)
	if err != nil {
		return "", fmt.Errorf("get master key: %w", err)
	}
	return value, nil
}

// Set stores the given text-encoded key, overwriting unconditionally.
func (p *Provisioner) Set(ctx context.Context, value string) error {
	err := p.store.Set(ctx, value)
	metrics.RecordMasterKeyOperation("set", err)
	if err != nil {
		return fmt.Errorf("set master key: %w", err)
	}
	return nil
}

// Generate draws 32 cryptographically random bytes, stores their base64
// encoding, and returns it. Two calls produce distinct values with
// overwhelming probability.
func (p *Provisioner) Generate(ctx context.Context) (string, error) {
	raw := make([]byte, KeySize)
	if _, err := rand.Read(raw); err != nil {
		metrics.RecordMasterKeyOperation("generate", err)
		return "", fmt.Errorf("generate master key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	err := p.store.Set(ctx, encoded)
	metrics.RecordMasterKeyOperation("generate", err)
	if err != nil {
		return "", fmt.Errorf("store generated master key: %w", err)
	}
	return encoded, nil
}

// GetOrGenerate returns the existing key, or generates and stores a new
// one when the store reports the key absent. An unavailable store is an
// error, not a trigger to overwrite, unless WithGenerateOnAnyError was
// set. Not atomic: concurrent callers racing on an absent key can each
// generate, and the last write wins.
func (p *Provisioner) GetOrGenerate(ctx context.Context) (string, error) {
	value, err := p.store.Get(ctx)
	metrics.RecordMasterKeyOperation("ensure", err)
	if err == nil {
		return value, nil
	}
	if errors.Is(err, ErrNotFound) || p.generateOnAnyError {
		return p.Generate(ctx)
	}
	return "", fmt.Errorf("get master key: %w", err)
}
