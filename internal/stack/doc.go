// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package stack manages the containerized backing services the Arbor
// shell depends on.
//
// The Manager owns at most one handle to the child process spawned by
// the bring-up command. The handle is internal bookkeeping only: status
// queries always go to the container runtime, never to the handle, so
// the answer stays consistent across supervisor restarts. Repeated
// Start calls spawn independent bring-up invocations and rely on the
// orchestration tool's own idempotency; repeated Stop calls are safe as
// long as the tear-down command no-ops against an already stopped
// stack.
//
// Commands run against the project root located by internal/project on
// every call. Blocking commands (Stop, Status, RunSetup) capture output
// and surface stderr in their errors; Start is fire-and-forget and
// returns before the stack is ready.
package stack
