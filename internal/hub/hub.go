// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

// Package hub pushes supervisor events to the desktop shell over
// WebSocket. The shell subscribes once at startup and renders lifecycle
// transitions (starting, warming up, ready) without polling.
package hub

import (
	"context"
	"sync"

	"github.com/arbor-dev/arbord/internal/logging"
	"github.com/arbor-dev/arbord/internal/metrics"
)

// Message types understood by the shell.
const (
	MessageTypeLifecycle = "lifecycle"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message is one event pushed to connected shell clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of connected clients and fans events out to
// them. Slow clients have messages dropped rather than stalling the
// broadcaster: a state transition must never block on a wedged
// websocket.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	done    chan struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
}

// New creates a Hub. Until Serve runs, the hub counts as stopped:
// clients trying to attach bail out instead of blocking.
func New() *Hub {
	done := make(chan struct{})
	close(done)
	return &Hub{
		clients:    make(map[*Client]bool),
		done:       done,
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// doneCh returns the channel closed when the current Serve run exits.
// Client register/unregister selects on it so no client goroutine can
// block on a hub that is no longer looping.
func (h *Hub) doneCh() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done
}

// Serve runs the hub loop until the context is canceled. Implements
// suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	logging.Info().Msg("event hub running")

	// Fresh per run: suture restarts Serve on the same Hub value.
	h.mu.Lock()
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	defer close(done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.EventClientsConnected.Inc()
			logging.Debug().Uint64("client", client.id).Msg("event client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				client.closeSend()
				metrics.EventClientsConnected.Dec()
			}
			h.mu.Unlock()
			logging.Debug().Uint64("client", client.id).Msg("event client disconnected")
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					metrics.EventMessagesDropped.Inc()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a message for all connected clients. Never blocks;
// if the hub's queue is full the message is dropped and counted.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		metrics.EventMessagesDropped.Inc()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll drops every client on hub shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
		metrics.EventClientsConnected.Dec()
	}
}
