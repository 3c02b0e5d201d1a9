// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package lifecycle drives the backing stack through the shell's
// launch and close hooks as an explicit state machine:
//
//	Idle -> Starting -> WarmUp -> Ready
//
// plus Degraded when bring-up fails and Stopping/Stopped for the close
// hook. The launch hook waits a fixed settle delay (the shell window
// has no readiness signal to replace it), then starts the stack and
// polls the container runtime during the warm-up window instead of
// sleeping blindly. If the window elapses with no containers visible
// the state still advances to Ready, matching the historical blind-wait
// behavior, but the transition is logged as unconfirmed.
//
// The close hook runs on context cancellation: a best-effort stop under
// its own timeout that never blocks supervisor shutdown indefinitely.
// Abnormal termination of arbord skips the hook entirely and leaves the
// stack running; that is accepted behavior, not a bug.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/arbor-dev/arbord/internal/hub"
	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/metrics"
)

// State is a lifecycle state.
type State int

// Lifecycle states, in the order the launch hook traverses them.
const (
	StateIdle State = iota
	StateStarting
	StateWarmUp
	StateReady
	StateDegraded
	StateStopping
	StateStopped
)

// String returns the state name used in logs, events, and the API.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateWarmUp:
		return "warmup"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Manager is the slice of the stack manager the lifecycle needs.
type Manager interface {
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	Containers(ctx context.Context) ([]string, error)
}

// Events receives state transition broadcasts. Satisfied by *hub.Hub.
type Events interface {
	Broadcast(msg hub.Message)
}

// Config holds lifecycle timing. Zero values get the defaults the
// desktop shell has always used.
type Config struct {
	// AutoStart triggers the launch hook when the service starts.
	// When false the service only tracks state for manually driven
	// starts and still runs the close hook on shutdown.
	AutoStart bool

	// SettleDelay is the fixed wait before the launch hook starts the
	// stack, giving the shell window time to come up. Default: 500ms
	SettleDelay time.Duration

	// WarmUpWindow bounds readiness polling after start. Default: 10s
	WarmUpWindow time.Duration

	// PollInterval is the readiness poll cadence. Default: 1s
	PollInterval time.Duration

	// StopTimeout bounds the close hook's tear-down. Default: 30s
	StopTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.WarmUpWindow <= 0 {
		c.WarmUpWindow = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 30 * time.Second
	}
}

// Service runs the lifecycle hooks under the supervision tree.
type Service struct {
	mgr    Manager
	events Events
	cfg    Config

	mu     sync.RWMutex
	state  State
	detail string
}

// NewService creates a lifecycle service. events may be nil.
func NewService(mgr Manager, events Events, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{mgr: mgr, events: events, cfg: cfg}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Detail returns a human-readable note about the current state.
func (s *Service) Detail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail
}

// Serve implements suture.Service. It runs the launch hook once, then
// stays resident until the context is canceled, at which point it runs
// the close hook.
func (s *Service) Serve(ctx context.Context) error {
	s.setState(StateIdle, "")

	if s.cfg.AutoStart {
		s.launch(ctx)
	}

	<-ctx.Done()
	s.closeHook()
	return ctx.Err()
}

// launch runs the start hook: settle, start, poll for warm-up.
func (s *Service) launch(ctx context.Context) {
	if !s.sleep(ctx, s.cfg.SettleDelay) {
		return
	}

	s.setState(StateStarting, "")
	if _, err := s.mgr.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("launch hook failed to start services")
		s.setState(StateDegraded, err.Error())
		return
	}

	s.setState(StateWarmUp, "")
	deadline := time.Now().Add(s.cfg.WarmUpWindow)
	for time.Now().Before(deadline) {
		if !s.sleep(ctx, s.cfg.PollInterval) {
			return
		}
		names, err := s.mgr.Containers(ctx)
		if err != nil {
			// The runtime may not answer while containers come up;
			// keep polling until the window closes.
			continue
		}
		if len(names) > 0 {
			s.setState(StateReady, "")
			return
		}
	}

	logging.Warn().Dur("window", s.cfg.WarmUpWindow).
		Msg("warm-up window elapsed without visible containers, reporting ready unconfirmed")
	s.setState(StateReady, "unconfirmed")
}

// closeHook performs the best-effort tear-down on shutdown. The
// supervision context is already canceled, so the hook runs under its
// own bounded context.
func (s *Service) closeHook() {
	s.setState(StateStopping, "")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StopTimeout)
	defer cancel()

	if _, err := s.mgr.Stop(ctx); err != nil {
		logging.Error().Err(err).Msg("close hook failed to stop services")
		s.setState(StateStopped, err.Error())
		return
	}
	s.setState(StateStopped, "")
}

// sleep waits d or until ctx is canceled. Reports whether the full
// duration elapsed.
func (s *Service) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// setState records a transition and publishes it.
func (s *Service) setState(state State, detail string) {
	s.mu.Lock()
	s.state = state
	s.detail = detail
	s.mu.Unlock()

	metrics.LifecycleState.Set(float64(state))
	metrics.LifecycleTransitionsTotal.WithLabelValues(state.String()).Inc()
	logging.Info().Str("state", state.String()).Str("detail", detail).Msg("lifecycle transition")

	if s.events != nil {
		s.events.Broadcast(hub.Message{
			Type: hub.MessageTypeLifecycle,
			Data: map[string]string{"state": state.String(), "detail": detail},
		})
	}
}
