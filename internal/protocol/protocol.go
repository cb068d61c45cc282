// Package protocol is the JSON wire format spoken over the websocket.
// Every frame is {"type": ..., "data": ...}.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manpreetbhatti/roomsync/internal/room"
)

// Type names a frame
type Type string

// Inbound
const (
	TypeJoinRoom    Type = "join-room"
	TypeLeaveRoom   Type = "leave-room"
	TypeSendMessage Type = "send-message"
	TypeDrawStroke  Type = "draw-stroke"
	TypeClearChat   Type = "clear-chat"
	TypeClearBoard  Type = "clear-board"
	TypeClear       Type = "clear"
)

// Outbound
const (
	TypeRoomState   Type = "room-state"
	TypeNewMessage  Type = "new-message"
	TypeNewStroke   Type = "new-stroke"
	TypeRoomCleared Type = "room-cleared"
	TypeUserJoined  Type = "user-joined"
	TypeUserLeft    Type = "user-left"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown frame type")
)

type Frame struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode parses one inbound frame. The payload is left raw until the
// caller asks for the shape its type implies.
func Decode(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Type == "" {
		return Frame{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return f, nil
}

// IsClear reports whether the frame asks for a room reset. The chat and
// board variants clear the same log.
func (f Frame) IsClear() bool {
	return f.Type == TypeClear || f.Type == TypeClearChat || f.Type == TypeClearBoard
}

type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// Join reads a join-room payload, which is either the bare room id or an
// object carrying the id and a display name.
func (f Frame) Join() (JoinRequest, error) {
	var req JoinRequest
	s, ok, err := f.stringData()
	if err != nil {
		return req, err
	}
	if ok {
		req.RoomID = s
		return req, nil
	}
	err = f.objectData(&req)
	return req, err
}

// RoomID reads the payload of leave and clear frames: a bare id, an object
// with roomId, or nothing at all, in which case the id is "".
func (f Frame) RoomID() (string, error) {
	if len(bytes.TrimSpace(f.Data)) == 0 {
		return "", nil
	}
	s, ok, err := f.stringData()
	if err != nil {
		return "", err
	}
	if ok {
		return s, nil
	}
	var req struct {
		RoomID string `json:"roomId"`
	}
	if err := f.objectData(&req); err != nil {
		return "", err
	}
	return req.RoomID, nil
}

type MessageRequest struct {
	RoomID    string `json:"roomId"`
	ID        string `json:"id"`
	Message   string `json:"message"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// Message converts a send-message payload into a room event. The fallback
// username is used when the frame does not name one.
func (f Frame) Message(fallbackUsername string) (string, room.Event, error) {
	var req MessageRequest
	if err := f.objectData(&req); err != nil {
		return "", room.Event{}, err
	}
	username := req.Username
	if username == "" {
		username = fallbackUsername
	}
	return req.RoomID, room.NewMessageEvent(room.Message{
		ID:        req.ID,
		Username:  username,
		Content:   req.Message,
		Timestamp: req.Timestamp,
	}), nil
}

type StrokeRequest struct {
	RoomID string       `json:"roomId"`
	Stroke *room.Stroke `json:"stroke"`
}

func (f Frame) Stroke() (string, room.Event, error) {
	var req StrokeRequest
	if err := f.objectData(&req); err != nil {
		return "", room.Event{}, err
	}
	if req.Stroke == nil {
		return "", room.Event{}, fmt.Errorf("%w: stroke missing", ErrMalformed)
	}
	return req.RoomID, room.NewStrokeEvent(*req.Stroke), nil
}

func (f Frame) stringData() (string, bool, error) {
	data := bytes.TrimSpace(f.Data)
	if len(data) == 0 || data[0] != '"' {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, true, nil
}

func (f Frame) objectData(v any) error {
	data := bytes.TrimSpace(f.Data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("%w: %s expects an object", ErrMalformed, f.Type)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
