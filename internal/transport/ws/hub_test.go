package ws

import (
	"context"
	"testing"
	"time"

	"github.com/go-event-bus/internal/application/delivery"
	"github.com/go-event-bus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func hubConn(h *Hub, id, userID string, bufferCap int, appIDs ...string) *Conn {
	return newConn(id, userID, appIDs, nil, h, nil, bufferCap, DropOldest, 90*time.Second)
}

func TestPushToUser_NoConnection(t *testing.T) {
	h := startHub(t)
	result := h.PushToUser("u1", "", &domain.Notification{NotificationID: "n1"})
	assert.Equal(t, delivery.PushNone, result)
}

func TestPushToUser_DeliversToRegisteredConnection(t *testing.T) {
	h := startHub(t)
	c := hubConn(h, "c1", "u1", 10)
	h.Register(c)

	result := h.PushToUser("u1", "", &domain.Notification{NotificationID: "n1"})
	assert.Equal(t, delivery.PushDelivered, result)

	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, msgNotification, frames[0].Type)
	assert.Equal(t, "n1", frames[0].Notification.NotificationID)
}

func TestPushToUser_RespectsAppScope(t *testing.T) {
	h := startHub(t)
	c := hubConn(h, "c1", "u1", 10, "app1")
	h.Register(c)

	assert.Equal(t, delivery.PushNone, h.PushToUser("u1", "app2", &domain.Notification{NotificationID: "n1"}))
	assert.Equal(t, delivery.PushDelivered, h.PushToUser("u1", "app1", &domain.Notification{NotificationID: "n2"}))
}

func TestPushToUser_FullBufferReportsBuffered(t *testing.T) {
	h := startHub(t)
	c := hubConn(h, "c1", "u1", 1)
	h.Register(c)

	require.Equal(t, delivery.PushDelivered, h.PushToUser("u1", "", &domain.Notification{NotificationID: "n1"}))
	// Nothing drains the buffer, so the next push evicts the oldest frame.
	assert.Equal(t, delivery.PushBuffered, h.PushToUser("u1", "", &domain.Notification{NotificationID: "n2"}))

	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "n2", frames[0].Notification.NotificationID)
}

func TestPushToUser_RejectNewFullBufferReportsNone(t *testing.T) {
	h := startHub(t)
	c := newConn("c1", "u1", nil, nil, h, nil, 1, RejectNew, 90*time.Second)
	h.Register(c)

	require.Equal(t, delivery.PushDelivered, h.PushToUser("u1", "", &domain.Notification{NotificationID: "n1"}))
	// The second frame was rejected, so the push must not report a delivery.
	assert.Equal(t, delivery.PushNone, h.PushToUser("u1", "", &domain.Notification{NotificationID: "n2"}))

	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, "n1", frames[0].Notification.NotificationID)
}

func TestRun_ShutdownDrainsThroughUnregister(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := hubConn(h, "c1", "u1", 4)
	h.Register(c)
	cancel()

	// The send channel stays open until the pump unregisters, so a frame
	// arriving mid-shutdown lands in the buffer instead of panicking.
	assert.NotPanics(t, func() { c.enqueue(ServerFrame{Type: msgHeartbeatAck}) })

	h.Unregister(c)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub still running after last connection unregistered")
	}
	_, open := <-c.send
	assert.True(t, open) // the buffered heartbeat ack
	_, open = <-c.send
	assert.False(t, open)
}

func TestUnregister_ClosesSendAndStopsDelivery(t *testing.T) {
	h := startHub(t)
	c := hubConn(h, "c1", "u1", 10)
	h.Register(c)
	h.Unregister(c)

	assert.Equal(t, delivery.PushNone, h.PushToUser("u1", "", &domain.Notification{NotificationID: "n1"}))
	_, open := <-c.send
	assert.False(t, open)
}

func TestUpdateAppIDs_ReplacesScope(t *testing.T) {
	h := startHub(t)
	c := hubConn(h, "c1", "u1", 10, "app1")
	h.Register(c)

	h.UpdateAppIDs(c, []string{"app2"})

	assert.Equal(t, delivery.PushNone, h.PushToUser("u1", "app1", &domain.Notification{NotificationID: "n1"}))
	assert.Equal(t, delivery.PushDelivered, h.PushToUser("u1", "app2", &domain.Notification{NotificationID: "n2"}))
}

func TestStatus_ReportsLiveConnections(t *testing.T) {
	h := startHub(t)
	assert.Empty(t, h.Status("u1"))

	c1 := hubConn(h, "c1", "u1", 10, "app1")
	c2 := hubConn(h, "c2", "u1", 10)
	h.Register(c1)
	h.Register(c2)

	infos := h.Status("u1")
	require.Len(t, infos, 2)
	ids := []string{infos[0].ConnectionID, infos[1].ConnectionID}
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)
	assert.Empty(t, h.Status("u2"))
}
