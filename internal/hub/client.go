// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arbor-dev/arbord/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// clientIDCounter hands out unique IDs for log correlation.
var clientIDCounter atomic.Uint64

// Client bridges one websocket connection and the hub. The send
// channel is owned by the hub: only closeSend, called from the hub
// goroutine, ever closes it, and the client's own goroutines go
// through trySend so a shutdown mid-ping cannot hit a closed channel.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	mu     sync.Mutex
	closed bool
}

// NewClient wraps a websocket connection. Call Start to register the
// client and begin pumping.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  h,
		conn: conn,
		send: make(chan Message, 64),
	}
}

// Start registers the client with the hub and launches the read and
// write pumps. If the hub is not running the connection is closed and
// no pumps start.
func (c *Client) Start() {
	select {
	case c.hub.register <- c:
	case <-c.hub.doneCh():
		_ = c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// trySend queues a message for this client without blocking. Dropped
// silently when the queue is full or the hub has already closed the
// channel.
func (c *Client) trySend(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// closeSend closes the send channel exactly once. Called only from the
// hub goroutine.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// detach hands the client back to the hub for removal, or gives up
// immediately if the hub has stopped looping.
func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.doneCh():
	}
}

// readPump consumes client messages (the shell only ever sends pings)
// and unregisters on close.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Uint64("client", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}
		if msg.Type == MessageTypePing {
			c.trySend(Message{Type: MessageTypePong})
		}
	}
}

// writePump delivers hub messages to the connection and keeps it alive
// with protocol pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
