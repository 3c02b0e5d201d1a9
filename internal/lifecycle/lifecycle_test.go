// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arbor-dev/arbord/internal/hub"
)

// fakeManager scripts the stack manager.
type fakeManager struct {
	mu         sync.Mutex
	startErr   error
	stopErr    error
	containers []string

	startCalls int
	stopCalls  int
}

func (m *fakeManager) Start(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	if m.startErr != nil {
		return "", m.startErr
	}
	return "Services started successfully", nil
}

func (m *fakeManager) Stop(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	if m.stopErr != nil {
		return "", m.stopErr
	}
	return "Services stopped successfully", nil
}

func (m *fakeManager) Containers(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.containers, nil
}

func (m *fakeManager) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls, m.stopCalls
}

// recorder captures broadcast states.
type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) Broadcast(msg hub.Message) {
	data, ok := msg.Data.(map[string]string)
	if !ok {
		return
	}
	r.mu.Lock()
	r.states = append(r.states, data["state"])
	r.mu.Unlock()
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

func fastConfig() Config {
	return Config{
		AutoStart:    true,
		SettleDelay:  time.Millisecond,
		WarmUpWindow: 100 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		StopTimeout:  time.Second,
	}
}

// waitFor polls until the service reaches the wanted state.
func waitFor(t *testing.T, svc *Service, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("service never reached %v, stuck at %v", want, svc.State())
}

func TestLifecycleReachesReady(t *testing.T) {
	mgr := &fakeManager{containers: []string{"arbor-db"}}
	events := &recorder{}
	svc := NewService(mgr, events, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	waitFor(t, svc, StateReady)

	starts, _ := mgr.calls()
	if starts != 1 {
		t.Errorf("start calls = %d, want 1", starts)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v", err)
	}

	// Transition order includes each launch state exactly once.
	want := []string{"idle", "starting", "warmup", "ready", "stopping", "stopped"}
	got := events.seen()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLifecycleReadyUnconfirmedWhenWindowElapses(t *testing.T) {
	mgr := &fakeManager{containers: nil} // nothing ever comes up
	svc := NewService(mgr, nil, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, svc, StateReady)
	if svc.Detail() != "unconfirmed" {
		t.Errorf("Detail = %q, want unconfirmed", svc.Detail())
	}
}

func TestLifecycleDegradedOnStartFailure(t *testing.T) {
	mgr := &fakeManager{startErr: errors.New("no Makefile")}
	svc := NewService(mgr, nil, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, svc, StateDegraded)
	if svc.Detail() == "" {
		t.Error("degraded state should carry the failure detail")
	}
}

func TestLifecycleCloseHookRunsStop(t *testing.T) {
	mgr := &fakeManager{containers: []string{"arbor-db"}}
	svc := NewService(mgr, nil, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	waitFor(t, svc, StateReady)
	cancel()
	<-done

	_, stops := mgr.calls()
	if stops != 1 {
		t.Errorf("stop calls = %d, want 1", stops)
	}
	if svc.State() != StateStopped {
		t.Errorf("final state = %v, want StateStopped", svc.State())
	}
}

func TestLifecycleCloseHookStopFailureIsRecorded(t *testing.T) {
	mgr := &fakeManager{stopErr: errors.New("exit status 1")}
	cfg := fastConfig()
	cfg.AutoStart = false
	svc := NewService(mgr, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	waitFor(t, svc, StateIdle)
	cancel()
	<-done

	if svc.State() != StateStopped {
		t.Errorf("final state = %v, want StateStopped", svc.State())
	}
	if svc.Detail() == "" {
		t.Error("stop failure detail should be recorded")
	}
}

func TestLifecycleNoAutoStart(t *testing.T) {
	mgr := &fakeManager{}
	cfg := fastConfig()
	cfg.AutoStart = false
	svc := NewService(mgr, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	waitFor(t, svc, StateIdle)
	time.Sleep(20 * time.Millisecond)

	starts, _ := mgr.calls()
	if starts != 0 {
		t.Errorf("start calls = %d, want 0 without autostart", starts)
	}

	cancel()
	<-done
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:     "idle",
		StateStarting: "starting",
		StateWarmUp:   "warmup",
		StateReady:    "ready",
		StateDegraded: "degraded",
		StateStopping: "stopping",
		StateStopped:  "stopped",
		State(42):     "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
