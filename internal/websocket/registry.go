package websocket

// registry is the source of truth for live connections and their room
// memberships, plus the derived reverse index room -> members. It is
// owned exclusively by the hub loop; nothing outside that goroutine
// touches it, so no locking is needed.
type registry struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func newRegistry() *registry {
	return &registry{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (r *registry) register(c *Client) {
	r.clients[c] = struct{}{}
}

// unregister removes the connection and every room membership it held.
// It returns the rooms the connection was in so the caller can publish
// presence updates for each of them.
func (r *registry) unregister(c *Client) []string {
	if _, ok := r.clients[c]; !ok {
		return nil
	}
	rooms := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		rooms = append(rooms, roomID)
		r.dropMember(roomID, c)
	}
	c.rooms = make(map[string]struct{})
	delete(r.clients, c)
	return rooms
}

func (r *registry) contains(c *Client) bool {
	_, ok := r.clients[c]
	return ok
}

// addRoom joins the connection to a room. Joining a room the connection
// is already in is a no-op; the return value reports whether membership
// actually changed.
func (r *registry) addRoom(c *Client, roomID string) bool {
	if _, ok := r.clients[c]; !ok {
		return false
	}
	if _, ok := c.rooms[roomID]; ok {
		return false
	}
	c.rooms[roomID] = struct{}{}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomID] = members
	}
	members[c] = struct{}{}
	return true
}

// removeRoom is idempotent: leaving a room not joined is a no-op.
func (r *registry) removeRoom(c *Client, roomID string) bool {
	if _, ok := c.rooms[roomID]; !ok {
		return false
	}
	delete(c.rooms, roomID)
	r.dropMember(roomID, c)
	return true
}

// dropMember removes c from the reverse index, deleting the room entry
// when it empties so an unused room id stops being observable.
func (r *registry) dropMember(roomID string, c *Client) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

func (r *registry) membersOf(roomID string) []*Client {
	members := r.rooms[roomID]
	if len(members) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

func (r *registry) isMember(c *Client, roomID string) bool {
	_, ok := c.rooms[roomID]
	return ok
}

func (r *registry) stats() (rooms, clients int) {
	return len(r.rooms), len(r.clients)
}
