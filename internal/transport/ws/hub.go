package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-event-bus/internal/application/delivery"
	"github.com/go-event-bus/internal/domain"
)

// ConnectionInfo is a read-only snapshot of one live connection, served by
// the connection-status endpoint.
type ConnectionInfo struct {
	ConnectionID    string    `json:"connection_id"`
	AppIDs          []string  `json:"app_ids"`
	ConnectedAt     time.Time `json:"connected_at"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}

type pushRequest struct {
	userID string
	appID  string
	n      *domain.Notification
	reply  chan delivery.PushResult
}

type statusRequest struct {
	userID string
	reply  chan []ConnectionInfo
}

type appIDsUpdate struct {
	conn   *Conn
	appIDs []string
}

// Hub is the connection registry: userID → set of live connections. All
// mutation and iteration happens on the Run goroutine, so concurrent
// connects, disconnects and pushes for the same user cannot race.
type Hub struct {
	register   chan *Conn
	unregister chan *Conn
	pushes     chan pushRequest
	statuses   chan statusRequest
	updates    chan appIDsUpdate

	conns map[string]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		pushes:     make(chan pushRequest),
		statuses:   make(chan statusRequest),
		updates:    make(chan appIDsUpdate),
		conns:      make(map[string]map[*Conn]struct{}),
	}
}

// Run owns the registry until ctx is cancelled. Cancellation closes every
// live socket and keeps serving requests until the read pumps have
// unregistered; a send channel is only ever closed through the unregister
// path, after its pump has stopped enqueueing. Intended to run in its own
// goroutine.
func (h *Hub) Run(ctx context.Context) {
	done := ctx.Done()
	draining := false
	for {
		select {
		case <-done:
			done = nil
			draining = true
			for _, set := range h.conns {
				for c := range set {
					c.closeSocket()
				}
			}
			if len(h.conns) == 0 {
				return
			}

		case c := <-h.register:
			if draining {
				// Late arrival during shutdown: admit it so it leaves
				// through the unregister path like everyone else.
				c.closeSocket()
			}
			set, ok := h.conns[c.UserID]
			if !ok {
				set = make(map[*Conn]struct{})
				h.conns[c.UserID] = set
			}
			set[c] = struct{}{}
			slog.Info("connection registered", "connection_id", c.ID, "user_id", c.UserID)

		case c := <-h.unregister:
			if set, ok := h.conns[c.UserID]; ok {
				if _, present := set[c]; present {
					delete(set, c)
					close(c.send) // buffered frames die with the connection
					if len(set) == 0 {
						delete(h.conns, c.UserID)
					}
					slog.Info("connection unregistered", "connection_id", c.ID, "user_id", c.UserID)
				}
			}
			if draining && len(h.conns) == 0 {
				return
			}

		case u := <-h.updates:
			set := make(map[string]struct{}, len(u.appIDs))
			for _, a := range u.appIDs {
				if a != "" {
					set[a] = struct{}{}
				}
			}
			u.conn.appIDs = set

		case req := <-h.pushes:
			req.reply <- h.pushLocked(req)

		case req := <-h.statuses:
			req.reply <- h.statusLocked(req.userID)
		}
	}
}

// pushLocked fans one notification frame out to every in-scope connection of
// the user. Runs on the Run goroutine.
func (h *Hub) pushLocked(req pushRequest) delivery.PushResult {
	set, ok := h.conns[req.userID]
	if !ok || len(set) == 0 {
		return delivery.PushNone
	}

	frame := ServerFrame{
		Type:         msgNotification,
		Notification: req.n,
		Timestamp:    time.Now().UnixMilli(),
	}
	result := delivery.PushNone
	for c := range set {
		if !c.inScope(req.appID) {
			continue
		}
		switch c.enqueue(frame) {
		case enqueued:
			result = delivery.PushDelivered
		case buffered:
			if result != delivery.PushDelivered {
				result = delivery.PushBuffered
			}
		case rejected:
			// Frame dropped; must not count as a delivery, so the attempt
			// can stay pending for the polling fallback.
		}
	}
	return result
}

func (h *Hub) statusLocked(userID string) []ConnectionInfo {
	set := h.conns[userID]
	infos := make([]ConnectionInfo, 0, len(set))
	for c := range set {
		appIDs := make([]string, 0, len(c.appIDs))
		for a := range c.appIDs {
			appIDs = append(appIDs, a)
		}
		infos = append(infos, ConnectionInfo{
			ConnectionID:    c.ID,
			AppIDs:          appIDs,
			ConnectedAt:     c.connectedAt,
			LastHeartbeatAt: time.UnixMilli(c.lastHeartbeat.Load()).UTC(),
		})
	}
	return infos
}

// Register adds a connection to the registry.
func (h *Hub) Register(c *Conn) { h.register <- c }

// Unregister removes a connection and releases its buffer. Safe to call more
// than once for the same connection.
func (h *Hub) Unregister(c *Conn) { h.unregister <- c }

// UpdateAppIDs replaces the app scope of a connection; later pushes honor
// the new scope.
func (h *Hub) UpdateAppIDs(c *Conn, appIDs []string) {
	h.updates <- appIDsUpdate{conn: c, appIDs: appIDs}
}

// PushToUser implements delivery.InAppPusher.
func (h *Hub) PushToUser(userID, appID string, n *domain.Notification) delivery.PushResult {
	reply := make(chan delivery.PushResult, 1)
	h.pushes <- pushRequest{userID: userID, appID: appID, n: n, reply: reply}
	return <-reply
}

// Status snapshots the user's live connections.
func (h *Hub) Status(userID string) []ConnectionInfo {
	reply := make(chan []ConnectionInfo, 1)
	h.statuses <- statusRequest{userID: userID, reply: reply}
	return <-reply
}
