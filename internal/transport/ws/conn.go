package ws

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-event-bus/internal/application/notification"
	"github.com/gorilla/websocket"
)

// BufferPolicy selects what happens when a connection's outbound buffer is full.
type BufferPolicy string

const (
	// DropOldest evicts the oldest buffered frame to make room (default).
	DropOldest BufferPolicy = "drop_oldest"
	// RejectNew drops the incoming frame instead.
	RejectNew BufferPolicy = "reject_new"
)

// ParseBufferPolicy maps a config string to a policy, defaulting to drop-oldest.
func ParseBufferPolicy(s string) BufferPolicy {
	if BufferPolicy(s) == RejectNew {
		return RejectNew
	}
	return DropOldest
}

// Conn is one live WebSocket connection. Its outbound frames flow through a
// bounded FIFO buffer drained by writePump; inbound frames are handled by
// readPump. The hub owns registration and the appIDs scope.
type Conn struct {
	ID     string
	UserID string

	// appIDs is read and replaced only by the hub's Run goroutine.
	appIDs map[string]struct{}

	ws            *websocket.Conn
	send          chan ServerFrame
	policy        BufferPolicy
	hub           *Hub
	notifications notification.Service

	connectedAt    time.Time
	lastHeartbeat  atomic.Int64 // unix ms
	heartbeatGrace time.Duration
}

func newConn(id, userID string, appIDs []string, ws *websocket.Conn, hub *Hub, svc notification.Service, bufferCap int, policy BufferPolicy, grace time.Duration) *Conn {
	set := make(map[string]struct{}, len(appIDs))
	for _, a := range appIDs {
		if a != "" {
			set[a] = struct{}{}
		}
	}
	c := &Conn{
		ID:             id,
		UserID:         userID,
		appIDs:         set,
		ws:             ws,
		send:           make(chan ServerFrame, bufferCap),
		policy:         policy,
		hub:            hub,
		notifications:  svc,
		connectedAt:    time.Now().UTC(),
		heartbeatGrace: grace,
	}
	c.lastHeartbeat.Store(time.Now().UnixMilli())
	return c
}

// inScope reports whether the connection wants frames from the given app.
// An empty appID (events without an originating app) always matches; an
// empty scope set means the connection accepts all apps.
func (c *Conn) inScope(appID string) bool {
	if appID == "" || len(c.appIDs) == 0 {
		return true
	}
	_, ok := c.appIDs[appID]
	return ok
}

// enqueue places a frame on the outbound buffer. If the buffer is full the
// configured overflow policy applies; the connection is never torn down for
// being slow, only for missing heartbeats.
func (c *Conn) enqueue(f ServerFrame) enqueueResult {
	select {
	case c.send <- f:
		return enqueued
	default:
	}
	if c.policy == RejectNew {
		return rejected
	}
	// Drop the oldest buffered frame to make room. Both operations are
	// non-blocking: writePump may drain concurrently.
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- f:
		return buffered
	default:
		return rejected
	}
}

type enqueueResult int

const (
	enqueued enqueueResult = iota
	buffered
	rejected
)

// closeSocket tears down the underlying socket so both pumps exit and the
// connection unregisters through the normal path.
func (c *Conn) closeSocket() {
	if c.ws != nil {
		c.ws.Close()
	}
}

// readPump consumes client frames until the socket errors or the heartbeat
// deadline passes. It owns the read side of the socket.
func (c *Conn) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	deadline := func() { _ = c.ws.SetReadDeadline(time.Now().Add(c.heartbeatGrace)) }
	deadline()

	for {
		var frame ClientFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read error", "connection_id", c.ID, "err", err)
			}
			return
		}

		switch frame.Type {
		case msgHeartbeat:
			c.lastHeartbeat.Store(time.Now().UnixMilli())
			deadline()
			c.enqueue(ServerFrame{Type: msgHeartbeatAck, Timestamp: time.Now().UnixMilli()})

		case msgMarkRead:
			if _, err := c.notifications.MarkRead(context.Background(), frame.NotificationID, c.UserID); err != nil {
				c.enqueue(ServerFrame{Type: msgError, Message: err.Error(), Timestamp: time.Now().UnixMilli()})
			}

		case msgUpdateSubscriptions:
			c.hub.UpdateAppIDs(c, frame.AppIDs)

		default:
			c.enqueue(ServerFrame{Type: msgError, Message: "unknown message type: " + frame.Type, Timestamp: time.Now().UnixMilli()})
		}
	}
}

// writePump drains the outbound buffer in FIFO order. It exits when the hub
// closes the send channel or a write fails.
func (c *Conn) writePump() {
	for frame := range c.send {
		if err := c.ws.WriteJSON(frame); err != nil {
			slog.Debug("websocket write error", "connection_id", c.ID, "err", err)
			break
		}
	}
	c.ws.Close()
}
