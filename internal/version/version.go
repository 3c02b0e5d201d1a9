// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package version holds build metadata stamped in at link time.
package version

// Version is overridden by the release build via
// -ldflags "-X github.com/arbor-dev/arbord/internal/version.Version=...".
var Version = "dev"
