package websocket

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies a frame on the wire, inbound or outbound.
type MessageType string

const (
	MessageTypeJoinRoom  MessageType = "joinRoom"
	MessageTypeLeaveRoom MessageType = "leaveRoom"
	MessageTypeShape     MessageType = "shape"
	MessageTypeClear     MessageType = "clear"
	MessageTypeChat      MessageType = "chat"

	// MessageTypeParticipantUpdate is hub-generated only; clients never send it.
	MessageTypeParticipantUpdate MessageType = "participantUpdate"
)

// Shape actions accepted on a shape frame.
const (
	ShapeActionDraw   = "draw"
	ShapeActionUpdate = "update"
	ShapeActionDelete = "delete"
)

// RoomID accepts a JSON string or number and normalizes to a string.
// Older clients send numeric room ids.
type RoomID string

func (r *RoomID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*r = RoomID(n.String())
		return nil
	}
	return fmt.Errorf("roomId must be a string or number")
}

// Command is the closed set of frames a client may send. Adding a new
// frame kind means adding a case here and handling it in the hub switch.
type Command interface {
	Room() string
}

type JoinRoomCommand struct {
	RoomID string
}

type LeaveRoomCommand struct {
	RoomID string
}

type ShapeCommand struct {
	RoomID string
	Shape  json.RawMessage
	Action string
}

type ClearCommand struct {
	RoomID string
}

type ChatCommand struct {
	RoomID  string
	Message string
}

func (c JoinRoomCommand) Room() string  { return c.RoomID }
func (c LeaveRoomCommand) Room() string { return c.RoomID }
func (c ShapeCommand) Room() string     { return c.RoomID }
func (c ClearCommand) Room() string     { return c.RoomID }
func (c ChatCommand) Room() string      { return c.RoomID }

var (
	errUnknownType  = fmt.Errorf("unknown message type")
	errMissingField = fmt.Errorf("missing required field")
)

// rawFrame is the superset of fields across all inbound frame kinds.
type rawFrame struct {
	Type    MessageType     `json:"type"`
	RoomID  RoomID          `json:"roomId"`
	Shape   json.RawMessage `json:"shape"`
	Action  string          `json:"action"`
	Message string          `json:"message"`
}

// ParseCommand decodes one inbound frame into a typed command. Any
// failure (bad JSON, unknown type, missing required field) is returned
// to the caller, which drops the frame without replying to the sender.
func ParseCommand(data []byte) (Command, error) {
	var f rawFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.RoomID == "" {
		return nil, fmt.Errorf("%w: roomId", errMissingField)
	}
	room := string(f.RoomID)

	switch f.Type {
	case MessageTypeJoinRoom:
		return JoinRoomCommand{RoomID: room}, nil

	case MessageTypeLeaveRoom:
		return LeaveRoomCommand{RoomID: room}, nil

	case MessageTypeShape:
		if len(f.Shape) == 0 {
			return nil, fmt.Errorf("%w: shape", errMissingField)
		}
		var shape struct {
			ID any `json:"id"`
		}
		if err := json.Unmarshal(f.Shape, &shape); err != nil || shape.ID == nil {
			return nil, fmt.Errorf("%w: shape.id", errMissingField)
		}
		switch f.Action {
		case ShapeActionDraw, ShapeActionUpdate, ShapeActionDelete:
		default:
			return nil, fmt.Errorf("invalid shape action %q", f.Action)
		}
		return ShapeCommand{RoomID: room, Shape: f.Shape, Action: f.Action}, nil

	case MessageTypeClear:
		return ClearCommand{RoomID: room}, nil

	case MessageTypeChat:
		if f.Message == "" {
			return nil, fmt.Errorf("%w: message", errMissingField)
		}
		return ChatCommand{RoomID: room, Message: f.Message}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownType, f.Type)
	}
}

// Outbound envelopes. The hub stamps userId (sender identity) on every
// peer-visible broadcast except participantUpdate, which carries the
// full member list instead.

type ShapeEvent struct {
	Type      MessageType     `json:"type"`
	RoomID    string          `json:"roomId"`
	UserID    string          `json:"userId"`
	Shape     json.RawMessage `json:"shape"`
	Action    string          `json:"action"`
	Timestamp int64           `json:"timestamp"`
}

type ClearEvent struct {
	Type      MessageType `json:"type"`
	RoomID    string      `json:"roomId"`
	UserID    string      `json:"userId"`
	Timestamp int64       `json:"timestamp"`
}

type ChatEvent struct {
	Type      MessageType `json:"type"`
	RoomID    string      `json:"roomId"`
	UserID    string      `json:"userId"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp"`
}

type Participant struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

type ParticipantUpdateEvent struct {
	Type             MessageType   `json:"type"`
	RoomID           string        `json:"roomId"`
	ParticipantCount int           `json:"participantCount"`
	Participants     []Participant `json:"participants"`
}
