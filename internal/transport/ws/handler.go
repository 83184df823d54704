package ws

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-event-bus/internal/application/notification"
	jwtinfra "github.com/go-event-bus/internal/infrastructure/jwt"
	"github.com/go-event-bus/internal/pkg/id"
	"github.com/gorilla/websocket"
	"log/slog"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the hub.
type Handler struct {
	hub           *Hub
	verifier      TokenVerifier
	notifications notification.Service
	upgrader      websocket.Upgrader

	bufferCap int
	policy    BufferPolicy
	grace     time.Duration
}

// NewHandler wires the upgrade endpoint. Heartbeat grace is three times the
// expected client interval, so one missed beat is tolerated.
func NewHandler(hub *Hub, verifier TokenVerifier, svc notification.Service, bufferCap int, policy BufferPolicy, heartbeatInterval time.Duration, allowedOrigins []string) *Handler {
	return &Handler{
		hub:           hub,
		verifier:      verifier,
		notifications: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		bufferCap: bufferCap,
		policy:    policy,
		grace:     3 * heartbeatInterval,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP handles GET /api/v1/events/subscribe. The socket is upgraded
// first and authentication happens over the socket, so the client always gets
// a structured error frame instead of a bare handshake rejection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "err", err)
		return
	}

	claims, err := h.authorize(r)
	if err != nil {
		_ = conn.WriteJSON(ServerFrame{Type: msgError, Message: "unauthorized", Timestamp: time.Now().UnixMilli()})
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		conn.Close()
		return
	}

	appIDs := claims.AppIDs
	if q := r.URL.Query().Get("appIds"); q != "" {
		appIDs = splitCSV(q)
	}

	c := newConn(id.New(), claims.UserID, appIDs, conn, h.hub, h.notifications, h.bufferCap, h.policy, h.grace)
	h.hub.Register(c)

	c.enqueue(ServerFrame{
		Type:         msgConnected,
		ConnectionID: c.ID,
		Timestamp:    time.Now().UnixMilli(),
	})

	go c.writePump()
	go c.readPump()
}

// authorize accepts the token from the Authorization header or, for browser
// WebSocket clients that cannot set headers, the authorization query param.
func (h *Handler) authorize(r *http.Request) (*jwtinfra.Claims, error) {
	if h.verifier == nil {
		return nil, errors.New("token verification unavailable")
	}
	raw := r.Header.Get("Authorization")
	if raw == "" {
		raw = r.URL.Query().Get("authorization")
	}
	token := strings.TrimPrefix(raw, "Bearer ")
	return h.verifier.Verify(token)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
