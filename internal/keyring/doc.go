// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package keyring provisions the Arbor master encryption key through an
// external secret store.
//
// One secret exists, identified by the fixed (service, key) pair
// ("dev.arbor.app", "master_encryption_key"). The Provisioner exposes
// get, set, generate, and get-or-generate over a Store backend and
// never retains the secret value beyond a single call.
//
// Store failures are tagged: ErrNotFound means the store answered and
// the secret is absent; ErrUnavailable means the store could not
// answer (locked keychain, missing helper binary). GetOrGenerate only
// overwrites on ErrNotFound by default, so a temporarily inaccessible
// secret is never silently replaced. The legacy shell behavior of
// generating on any failure remains available behind an explicit
// option.
//
// Backends:
//   - ExecStore: the OS secret store via its CLI (security on macOS,
//     secret-tool on Linux)
//   - FileStore: AES-256-GCM encrypted file, for hosts without a
//     usable OS store
//   - MemStore: in-memory, for tests
package keyring
