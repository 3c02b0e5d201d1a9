// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package api exposes arbord's operations to the desktop shell over a
// localhost HTTP API.
//
// The shell is the only intended client; the server binds to loopback
// and carries no authentication. Routes live under /api/v1:
//
//	POST /api/v1/services/start       start the backing stack
//	POST /api/v1/services/stop        stop the backing stack
//	GET  /api/v1/services/status      container-runtime status summary
//	GET  /api/v1/runtime              is the container runtime installed
//	POST /api/v1/setup/{target}       run a maintenance target
//	GET  /api/v1/version              application version
//	GET  /api/v1/master-key           fetch the master key
//	PUT  /api/v1/master-key           overwrite the master key
//	POST /api/v1/master-key/generate  generate and store a new key
//	POST /api/v1/master-key/ensure    get-or-generate
//	GET  /api/v1/events               websocket lifecycle event stream
//	GET  /api/v1/health               lifecycle state and uptime
//	GET  /metrics                     Prometheus metrics
//
// Responses use a {success, data, error} envelope. Blocking stack
// commands run on the request goroutine; with no command timeout
// configured, a hung command holds its request open indefinitely.
package api
