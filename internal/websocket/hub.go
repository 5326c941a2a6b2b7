package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// ChatStore is the durable side of chat. The hub treats it as
// fire-and-forget: broadcast never waits on the store, and a failed
// write is logged without un-sending anything. Clients that need
// delivery-vs-durability guarantees read back through the HTTP history
// endpoint.
type ChatStore interface {
	SaveChat(ctx context.Context, roomID, userID, message string) error
}

// StatusTracker records identity online/offline transitions, backed by
// redis. Calls run off the hub loop and are best-effort.
type StatusTracker interface {
	SetUserOnline(ctx context.Context, userID string) error
	SetUserOffline(ctx context.Context, userID string) error
}

type inboundFrame struct {
	client *Client
	data   []byte
}

// Hub fans typed events out to room members. All registry and room
// index mutations happen on the single Run goroutine; each inbound
// frame is fully processed before the next one from any connection, so
// membership never needs a lock.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	stats      chan chan [2]int

	registry *registry
	chats    ChatStore
	status   StatusTracker

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(chats ChatStore, status StatusTracker) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		stats:      make(chan chan [2]int),
		registry:   newRegistry(),
		chats:      chats,
		status:     status,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case frame := <-h.inbound:
			h.handleFrame(frame.client, frame.data)

		case reply := <-h.stats:
			rooms, clients := h.registry.stats()
			reply <- [2]int{rooms, clients}

		case <-h.ctx.Done():
			slog.Info("hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

// Stats reports current room and connection counts. The counts are
// computed on the hub loop so they are always a consistent snapshot.
func (h *Hub) Stats() (rooms, clients int) {
	reply := make(chan [2]int, 1)
	select {
	case h.stats <- reply:
		counts := <-reply
		return counts[0], counts[1]
	case <-h.ctx.Done():
		return 0, 0
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.registry.register(c)
	slog.Info("client registered", "connectionId", c.id, "userId", c.identity)

	if h.status != nil {
		go func() {
			if err := h.status.SetUserOnline(h.ctx, c.identity); err != nil {
				slog.Error("failed to set user online", "userId", c.identity, "error", err)
			}
		}()
	}
}

func (h *Hub) handleUnregister(c *Client) {
	if !h.registry.contains(c) {
		return
	}

	rooms := h.registry.unregister(c)
	c.close()
	c.closeSend()
	slog.Info("client unregistered", "connectionId", c.id, "userId", c.identity, "rooms", len(rooms))

	for _, roomID := range rooms {
		h.publishPresence(roomID)
	}

	if h.status != nil && !h.identityStillConnected(c.identity) {
		go func() {
			if err := h.status.SetUserOffline(context.Background(), c.identity); err != nil {
				slog.Error("failed to set user offline", "userId", c.identity, "error", err)
			}
		}()
	}
}

// identityStillConnected reports whether another live connection (for
// example a second tab) holds the same identity.
func (h *Hub) identityStillConnected(identity string) bool {
	for client := range h.registry.clients {
		if client.identity == identity {
			return true
		}
	}
	return false
}

// handleFrame parses and applies one inbound frame. Malformed frames,
// unknown types and unauthorized rooms are dropped silently; the sender
// gets no protocol-level error reply.
func (h *Hub) handleFrame(c *Client, data []byte) {
	cmd, err := ParseCommand(data)
	if err != nil {
		slog.Debug("dropping frame", "connectionId", c.id, "userId", c.identity, "error", err)
		return
	}

	switch cmd := cmd.(type) {
	case JoinRoomCommand:
		if h.registry.addRoom(c, cmd.RoomID) {
			slog.Info("joined room", "connectionId", c.id, "userId", c.identity, "roomId", cmd.RoomID)
			h.publishPresence(cmd.RoomID)
		}

	case LeaveRoomCommand:
		if h.registry.removeRoom(c, cmd.RoomID) {
			slog.Info("left room", "connectionId", c.id, "userId", c.identity, "roomId", cmd.RoomID)
			h.publishPresence(cmd.RoomID)
		}

	case ShapeCommand:
		if !h.authorize(c, cmd.RoomID) {
			return
		}
		h.broadcastEvent(cmd.RoomID, ShapeEvent{
			Type:      MessageTypeShape,
			RoomID:    cmd.RoomID,
			UserID:    c.identity,
			Shape:     cmd.Shape,
			Action:    cmd.Action,
			Timestamp: time.Now().UnixMilli(),
		}, c)

	case ClearCommand:
		if !h.authorize(c, cmd.RoomID) {
			return
		}
		h.broadcastEvent(cmd.RoomID, ClearEvent{
			Type:      MessageTypeClear,
			RoomID:    cmd.RoomID,
			UserID:    c.identity,
			Timestamp: time.Now().UnixMilli(),
		}, c)

	case ChatCommand:
		if !h.authorize(c, cmd.RoomID) {
			return
		}
		h.persistChat(c, cmd)
		// Sender included so its own UI confirms delivery.
		h.broadcastEvent(cmd.RoomID, ChatEvent{
			Type:      MessageTypeChat,
			RoomID:    cmd.RoomID,
			UserID:    c.identity,
			Message:   cmd.Message,
			Timestamp: time.Now().UnixMilli(),
		}, nil)
	}
}

// authorize enforces that a connection can only inject events into
// rooms it has joined, even if it can guess the room id.
func (h *Hub) authorize(c *Client, roomID string) bool {
	if h.registry.isMember(c, roomID) {
		return true
	}
	slog.Debug("dropping event for unjoined room", "connectionId", c.id, "userId", c.identity, "roomId", roomID)
	return false
}

// persistChat hands the message to the store on its own goroutine.
// Broadcast proceeds before the write confirms; durability and delivery
// are decoupled.
func (h *Hub) persistChat(c *Client, cmd ChatCommand) {
	if h.chats == nil {
		return
	}
	go func() {
		if err := h.chats.SaveChat(context.Background(), cmd.RoomID, c.identity, cmd.Message); err != nil {
			slog.Error("failed to persist chat", "roomId", cmd.RoomID, "userId", c.identity, "error", err)
		}
	}()
}

// broadcastEvent serializes the event once and delivers it to every
// current room member, minus the excluded sender if any. A failed
// delivery skips that recipient only.
func (h *Hub) broadcastEvent(roomID string, event any, exclude *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event", "roomId", roomID, "error", err)
		return
	}

	for _, member := range h.registry.membersOf(roomID) {
		if member == exclude {
			continue
		}
		if !member.enqueue(data) {
			slog.Debug("delivery failed", "connectionId", member.id, "roomId", roomID)
		}
	}
}

// publishPresence recomputes the room's membership and announces it to
// every remaining member. An emptied room has no recipients and is
// skipped.
func (h *Hub) publishPresence(roomID string) {
	members := h.registry.membersOf(roomID)
	if len(members) == 0 {
		return
	}

	participants := make([]Participant, 0, len(members))
	for _, member := range members {
		participants = append(participants, Participant{
			UserID:       member.identity,
			ConnectionID: member.id,
		})
	}

	h.broadcastEvent(roomID, ParticipantUpdateEvent{
		Type:             MessageTypeParticipantUpdate,
		RoomID:           roomID,
		ParticipantCount: len(participants),
		Participants:     participants,
	}, nil)
}
