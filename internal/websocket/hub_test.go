package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub := newRunningHub(t)

	a := NewClient(hub, nil, "user-a")
	b := NewClient(hub, nil, "user-b")
	hub.Register(a)
	hub.Register(b)

	hub.Publish("listing.created", map[string]string{"title": "Acct A"})

	for _, c := range []*Client{a, b} {
		ev := receive(t, c)
		assert.Equal(t, "listing.created", ev.Type)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, "Acct A", payload["title"])
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := newRunningHub(t)

	c := NewClient(hub, nil, "user-a")
	hub.Register(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(c)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_StopClosesClientsAndIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	c := NewClient(hub, nil, "user-a")
	hub.Register(c)

	hub.Stop()
	hub.Stop()

	_, ok := <-c.send
	assert.False(t, ok)

	// Publishing and unregistering after stop must not block.
	hub.Publish("listing.deleted", map[string]string{"id": "x"})
	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := newRunningHub(t)

	c := NewClient(hub, nil, "slow")
	hub.Register(c)

	// Nobody drains c.send, so it fills and the hub evicts the client.
	for i := 0; i < 4*cap(c.send); i++ {
		hub.Publish("listing.created", map[string]int{"n": i})
	}

	assert.Eventually(t, func() bool {
		hub.Publish("listing.created", map[string]int{"n": -1})
		return hub.ClientCount() == 0
	}, 2*time.Second, time.Millisecond)
}
