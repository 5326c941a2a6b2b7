package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRoomIsIdempotent(t *testing.T) {
	r := newRegistry()
	hub := newTestHub()
	c := NewClient(hub, &mockConn{}, "alice")
	r.register(c)

	assert.True(t, r.addRoom(c, "R1"))
	assert.False(t, r.addRoom(c, "R1"), "second join must be a no-op")
	assert.Len(t, r.membersOf("R1"), 1)
}

func TestAddRoomRequiresRegistration(t *testing.T) {
	r := newRegistry()
	hub := newTestHub()
	c := NewClient(hub, &mockConn{}, "alice")

	assert.False(t, r.addRoom(c, "R1"))
	assert.Empty(t, r.membersOf("R1"))
}

func TestRemoveRoomIsIdempotent(t *testing.T) {
	r := newRegistry()
	hub := newTestHub()
	c := NewClient(hub, &mockConn{}, "alice")
	r.register(c)
	r.addRoom(c, "R1")

	assert.True(t, r.removeRoom(c, "R1"))
	assert.False(t, r.removeRoom(c, "R1"), "leaving an unjoined room must be a no-op")
	assert.Empty(t, r.membersOf("R1"))
}

func TestUnregisterReturnsPriorRooms(t *testing.T) {
	r := newRegistry()
	hub := newTestHub()
	c := NewClient(hub, &mockConn{}, "alice")
	r.register(c)
	r.addRoom(c, "R1")
	r.addRoom(c, "R2")

	rooms := r.unregister(c)
	assert.ElementsMatch(t, []string{"R1", "R2"}, rooms)
	assert.Empty(t, r.membersOf("R1"))
	assert.Empty(t, r.membersOf("R2"))
	assert.False(t, r.contains(c))

	assert.Nil(t, r.unregister(c), "double unregister must be harmless")
}

func TestEmptiedRoomStopsExisting(t *testing.T) {
	r := newRegistry()
	hub := newTestHub()
	c := NewClient(hub, &mockConn{}, "alice")
	r.register(c)
	r.addRoom(c, "R1")
	r.removeRoom(c, "R1")

	rooms, clients := r.stats()
	assert.Zero(t, rooms, "a room with no members has no index entry")
	assert.Equal(t, 1, clients)
}

func TestMembersOfMatchesMembershipDefinition(t *testing.T) {
	r := newRegistry()
	hub := newTestHub()
	a := NewClient(hub, &mockConn{}, "alice")
	b := NewClient(hub, &mockConn{}, "bob")
	c := NewClient(hub, &mockConn{}, "carol")
	for _, cl := range []*Client{a, b, c} {
		r.register(cl)
	}
	r.addRoom(a, "R1")
	r.addRoom(b, "R1")
	r.addRoom(c, "R2")

	members := r.membersOf("R1")
	require.Len(t, members, 2)
	assert.ElementsMatch(t, []*Client{a, b}, members)
	assert.True(t, r.isMember(a, "R1"))
	assert.False(t, r.isMember(c, "R1"))
}
