// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package metrics provides Prometheus instrumentation for arbord.
//
// Collectors cover the three externally observable concerns: stack
// command execution (make/docker invocations), lifecycle state, and the
// localhost API the shell talks to. All collectors are registered via
// promauto at package load and served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stack command metrics
	StackCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbord_stack_commands_total",
			Help: "Total external stack commands executed, by operation and outcome",
		},
		[]string{"operation", "outcome"}, // operation: start, stop, status, setup, runtime; outcome: ok, error
	)

	StackCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arbord_stack_command_duration_seconds",
			Help:    "Duration of blocking external stack commands",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// Lifecycle metrics
	LifecycleState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arbord_lifecycle_state",
			Help: "Current lifecycle state (0=idle 1=starting 2=warmup 3=ready 4=degraded 5=stopping 6=stopped)",
		},
	)

	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbord_lifecycle_transitions_total",
			Help: "Total lifecycle state transitions",
		},
		[]string{"state"},
	)

	// Secret provisioning metrics. Counts operations only; never values.
	MasterKeyOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbord_master_key_operations_total",
			Help: "Total master key store operations, by operation and outcome",
		},
		[]string{"operation", "outcome"}, // operation: get, set, generate, ensure
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arbord_api_requests_total",
			Help: "Total API requests from the shell",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arbord_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Event stream metrics
	EventClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arbord_event_clients_connected",
			Help: "Currently connected shell event-stream clients",
		},
	)

	EventMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arbord_event_messages_dropped_total",
			Help: "Event messages dropped because a client send queue was full",
		},
	)
)

// RecordStackCommand records one external stack command execution.
func RecordStackCommand(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StackCommandsTotal.WithLabelValues(operation, outcome).Inc()
	StackCommandDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordMasterKeyOperation records one secret store operation.
func RecordMasterKeyOperation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	MasterKeyOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordAPIRequest records one API request.
func RecordAPIRequest(method, path string, status int, elapsed time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
