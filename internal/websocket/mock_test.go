package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// mockConn implements the Conn interface for testing without a real
// socket.
type mockConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

var errClosedConn = errors.New("connection closed")

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosedConn
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil, errClosedConn
	}
	return 1, nil, nil
}

func (m *mockConn) SetReadLimit(limit int64) {}

func (m *mockConn) SetReadDeadline(t time.Time) error { return nil }

func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockConn) SetPongHandler(h func(string) error) {}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// recordingChatStore captures SaveChat calls; failures are injectable.
type recordedChat struct {
	RoomID  string
	UserID  string
	Message string
}

type recordingChatStore struct {
	saved chan recordedChat
	fail  error
}

func newRecordingChatStore() *recordingChatStore {
	return &recordingChatStore{saved: make(chan recordedChat, 16)}
}

func (s *recordingChatStore) SaveChat(ctx context.Context, roomID, userID, message string) error {
	s.saved <- recordedChat{RoomID: roomID, UserID: userID, Message: message}
	return s.fail
}

// Tests drive the hub handlers directly on the test goroutine, so every
// mutation is applied synchronously and assertions need no sleeps.

func newTestHub() *Hub {
	return NewHub(nil, nil)
}

func connect(h *Hub, identity string) *Client {
	c := NewClient(h, &mockConn{}, identity)
	h.handleRegister(c)
	return c
}

func sendFrame(h *Hub, c *Client, frame string) {
	h.handleFrame(c, []byte(frame))
}

func joinRoom(h *Hub, c *Client, roomID string) {
	sendFrame(h, c, `{"type":"joinRoom","roomId":"`+roomID+`"}`)
}

// drainEvents empties the client's outbound buffer, decoding each
// pending event into a generic map.
func drainEvents(c *Client) []map[string]any {
	var events []map[string]any
	for {
		select {
		case data := <-c.send:
			var event map[string]any
			if err := json.Unmarshal(data, &event); err == nil {
				events = append(events, event)
			}
		default:
			return events
		}
	}
}
