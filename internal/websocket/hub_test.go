package websocket

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeBroadcastExcludesSender(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	joinRoom(hub, a, "R1")
	joinRoom(hub, b, "R1")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, a, `{"type":"shape","roomId":"R1","shape":{"id":"s1","points":[[0,0],[1,1]]},"action":"draw"}`)

	events := drainEvents(b)
	require.Len(t, events, 1)
	assert.Equal(t, "shape", events[0]["type"])
	assert.Equal(t, "R1", events[0]["roomId"])
	assert.Equal(t, "alice", events[0]["userId"])
	assert.Equal(t, "draw", events[0]["action"])
	shape, ok := events[0]["shape"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "s1", shape["id"])

	assert.Empty(t, drainEvents(a), "sender must not receive its own shape event")
}

func TestClearBroadcastExcludesSender(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	joinRoom(hub, a, "R1")
	joinRoom(hub, b, "R1")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, a, `{"type":"clear","roomId":"R1"}`)

	events := drainEvents(b)
	require.Len(t, events, 1)
	assert.Equal(t, "clear", events[0]["type"])
	assert.Equal(t, "alice", events[0]["userId"])
	assert.Empty(t, drainEvents(a))
}

func TestChatBroadcastIncludesSender(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	joinRoom(hub, a, "R1")
	joinRoom(hub, b, "R1")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, a, `{"type":"chat","roomId":"R1","message":"hi"}`)

	for _, c := range []*Client{a, b} {
		events := drainEvents(c)
		require.Len(t, events, 1)
		assert.Equal(t, "chat", events[0]["type"])
		assert.Equal(t, "hi", events[0]["message"])
		assert.Equal(t, "alice", events[0]["userId"])
	}
}

func TestChatIsPersisted(t *testing.T) {
	store := newRecordingChatStore()
	hub := NewHub(store, nil)
	a := connect(hub, "alice")
	joinRoom(hub, a, "R1")

	sendFrame(hub, a, `{"type":"chat","roomId":"R1","message":"persist me"}`)

	select {
	case saved := <-store.saved:
		assert.Equal(t, "R1", saved.RoomID)
		assert.Equal(t, "alice", saved.UserID)
		assert.Equal(t, "persist me", saved.Message)
	case <-time.After(time.Second):
		t.Fatal("chat was never handed to the store")
	}
}

func TestChatBroadcastSurvivesStoreFailure(t *testing.T) {
	store := newRecordingChatStore()
	store.fail = errors.New("database down")
	hub := NewHub(store, nil)
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	joinRoom(hub, a, "R1")
	joinRoom(hub, b, "R1")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, a, `{"type":"chat","roomId":"R1","message":"hi"}`)

	require.Len(t, drainEvents(b), 1, "broadcast must not wait on or be blocked by the store")
}

func TestUnjoinedRoomEventIsDropped(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	intruder := connect(hub, "mallory")
	joinRoom(hub, a, "R1")
	joinRoom(hub, b, "R1")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, intruder, `{"type":"shape","roomId":"R1","shape":{"id":"s1"},"action":"draw"}`)
	sendFrame(hub, intruder, `{"type":"chat","roomId":"R1","message":"hello"}`)

	assert.Empty(t, drainEvents(a))
	assert.Empty(t, drainEvents(b))
	assert.Empty(t, drainEvents(intruder))
}

func TestPresenceOnJoin(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	joinRoom(hub, a, "R1")

	events := drainEvents(a)
	require.Len(t, events, 1)
	assert.Equal(t, "participantUpdate", events[0]["type"])
	assert.Equal(t, float64(1), events[0]["participantCount"])

	b := connect(hub, "bob")
	joinRoom(hub, b, "R1")

	for _, c := range []*Client{a, b} {
		events := drainEvents(c)
		require.Len(t, events, 1)
		assert.Equal(t, float64(2), events[0]["participantCount"])
		participants, ok := events[0]["participants"].([]any)
		require.True(t, ok)
		assert.Len(t, participants, 2)

		seen := map[string]bool{}
		for _, p := range participants {
			entry := p.(map[string]any)
			seen[entry["connectionId"].(string)] = true
		}
		assert.Len(t, seen, 2, "participant connection ids must be distinct")
	}
}

func TestRepeatedJoinIsIdempotent(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	joinRoom(hub, a, "R1")
	drainEvents(a)

	joinRoom(hub, a, "R1")

	assert.Empty(t, drainEvents(a), "re-joining must not change membership or publish presence")
	assert.Len(t, hub.registry.membersOf("R1"), 1)
}

func TestPresenceOnLeaveAndDisconnect(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	c := connect(hub, "carol")
	for _, cl := range []*Client{a, b, c} {
		joinRoom(hub, cl, "R1")
	}
	drainEvents(a)
	drainEvents(b)
	drainEvents(c)

	sendFrame(hub, c, `{"type":"leaveRoom","roomId":"R1"}`)

	events := drainEvents(a)
	require.Len(t, events, 1)
	assert.Equal(t, float64(2), events[0]["participantCount"])
	assert.Empty(t, drainEvents(c), "a departed member gets no presence for that room")

	hub.handleUnregister(b)

	events = drainEvents(a)
	require.Len(t, events, 1)
	assert.Equal(t, "participantUpdate", events[0]["type"])
	assert.Equal(t, float64(1), events[0]["participantCount"])
}

func TestDisconnectRemovesAllMemberships(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	joinRoom(hub, a, "R1")
	joinRoom(hub, a, "R2")

	hub.handleUnregister(a)

	assert.Empty(t, hub.registry.membersOf("R1"))
	assert.Empty(t, hub.registry.membersOf("R2"))
	rooms, clients := hub.registry.stats()
	assert.Zero(t, rooms)
	assert.Zero(t, clients)
}

func TestMalformedFramesDoNotKillConnection(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	joinRoom(hub, a, "R1")
	joinRoom(hub, b, "R1")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, a, `this is not json`)
	sendFrame(hub, a, `{"type":"teleport","roomId":"R1"}`)
	sendFrame(hub, a, `{"type":"chat","roomId":"R1"}`)

	assert.Empty(t, drainEvents(b))

	// The connection keeps working after garbage.
	sendFrame(hub, a, `{"type":"chat","roomId":"R1","message":"still here"}`)
	events := drainEvents(b)
	require.Len(t, events, 1)
	assert.Equal(t, "still here", events[0]["message"])
}

func TestNumericRoomIDCoercion(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	sendFrame(hub, a, `{"type":"joinRoom","roomId":123}`)
	joinRoom(hub, b, "123")
	drainEvents(a)
	drainEvents(b)

	sendFrame(hub, a, `{"type":"chat","roomId":123,"message":"hi"}`)

	events := drainEvents(b)
	require.Len(t, events, 1)
	assert.Equal(t, "123", events[0]["roomId"])
}

func TestIdentitySpansConnectionsButNotRooms(t *testing.T) {
	hub := newTestHub()
	tab1 := connect(hub, "alice")
	tab2 := connect(hub, "alice")
	joinRoom(hub, tab1, "R1")
	drainEvents(tab1)

	// A second connection of the same identity inherits nothing; it has
	// to join on its own.
	sendFrame(hub, tab1, `{"type":"chat","roomId":"R1","message":"hi"}`)
	assert.Empty(t, drainEvents(tab2))

	joinRoom(hub, tab2, "R1")
	drainEvents(tab1)
	drainEvents(tab2)
	sendFrame(hub, tab1, `{"type":"chat","roomId":"R1","message":"hi again"}`)
	assert.Len(t, drainEvents(tab2), 1)
}

func TestStalledRecipientIsSkippedNotFatal(t *testing.T) {
	hub := newTestHub()
	a := connect(hub, "alice")
	b := connect(hub, "bob")
	stalled := connect(hub, "carol")
	for _, cl := range []*Client{a, b, stalled} {
		joinRoom(hub, cl, "R1")
	}
	drainEvents(a)
	drainEvents(b)
	drainEvents(stalled)

	// Simulate a consumer that stopped reading: its buffer is full.
	for i := 0; i < sendBufferSize; i++ {
		stalled.send <- []byte("backlog")
	}

	sendFrame(hub, a, `{"type":"chat","roomId":"R1","message":"hi"}`)

	events := drainEvents(b)
	require.Len(t, events, 1, "healthy members must still receive the broadcast")
	assert.Equal(t, "hi", events[0]["message"])
	assert.True(t, stalled.isClosed(), "a full buffer marks the peer dead")

	// The hub keeps serving frames after dropping the stalled peer.
	sendFrame(hub, b, `{"type":"chat","roomId":"R1","message":"still going"}`)
	events = drainEvents(a)
	var messages []any
	for _, e := range events {
		if e["type"] == "chat" {
			messages = append(messages, e["message"])
		}
	}
	assert.Contains(t, messages, "still going")
}

func TestReadPumpExitsAfterHubStop(t *testing.T) {
	hub := newTestHub()
	hub.Stop()

	conn := &mockConn{}
	conn.Close()
	c := NewClient(hub, conn, "alice")

	done := make(chan struct{})
	go func() {
		c.readPump()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readPump must not block on unregister once the hub has stopped")
	}
}

func TestRunLoopServesFrames(t *testing.T) {
	hub := newTestHub()
	go hub.Run()
	defer hub.Stop()

	a := NewClient(hub, &mockConn{}, "alice")
	b := NewClient(hub, &mockConn{}, "bob")
	hub.register <- a
	hub.register <- b
	hub.inbound <- inboundFrame{client: a, data: []byte(`{"type":"joinRoom","roomId":"R1"}`)}
	hub.inbound <- inboundFrame{client: b, data: []byte(`{"type":"joinRoom","roomId":"R1"}`)}
	hub.inbound <- inboundFrame{client: a, data: []byte(`{"type":"chat","roomId":"R1","message":"over the loop"}`)}

	rooms, clients := hub.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 2, clients)

	deadline := time.After(time.Second)
	for {
		events := drainEvents(b)
		var got bool
		for _, e := range events {
			if e["type"] == "chat" {
				assert.Equal(t, "over the loop", e["message"])
				got = true
			}
		}
		if got {
			return
		}
		select {
		case <-deadline:
			t.Fatal("chat event never delivered through the run loop")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
