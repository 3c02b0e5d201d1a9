// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

/*
Package supervisor provides process supervision for arbord using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the daemon. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("arbord")
	├── LifecycleSupervisor ("lifecycle-layer")
	│   └── lifecycle.Service (stack start/warm-up/stop driver)
	├── EventsSupervisor ("events-layer")
	│   └── hub.Hub (WebSocket event fan-out)
	└── APISupervisor ("api-layer")
	    └── api.HTTPService (loopback HTTP server)

A crash in any layer restarts only that layer's services. Supervisor
events (failures, backoff, restarts) are logged through sutureslog,
which bridges suture's event stream onto the application's slog logger.

# Usage

	tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	tree.AddLifecycleService(lifecycleSvc)
	tree.AddEventService(eventHub)
	tree.AddAPIService(httpSvc)
	err := tree.Serve(ctx)

Serve blocks until the context is canceled, then shuts the layers down
within the configured timeout.
*/
package supervisor
