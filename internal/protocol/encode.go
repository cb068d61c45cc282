package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/manpreetbhatti/roomsync/internal/room"
)

type outbound struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

type taggedMessage struct {
	Kind room.Kind `json:"kind"`
	room.Message
}

type taggedStroke struct {
	Kind room.Kind `json:"kind"`
	room.Stroke
}

type RoomState struct {
	RoomID string `json:"roomId"`
	Events []any  `json:"events"`
}

type Cleared struct {
	RoomID string `json:"roomId"`
}

type PresenceNotice struct {
	RoomID       string `json:"roomId"`
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username,omitempty"`
}

// EncodeSnapshot builds the room-state frame a joiner receives. Events keep
// log order and carry a kind tag so chat and canvas clients can pick theirs.
func EncodeSnapshot(roomID string, events []room.Event) ([]byte, error) {
	tagged := make([]any, 0, len(events))
	for _, e := range events {
		t, err := tag(e)
		if err != nil {
			return nil, err
		}
		tagged = append(tagged, t)
	}
	return json.Marshal(outbound{Type: TypeRoomState, Data: RoomState{RoomID: roomID, Events: tagged}})
}

// EncodeEvent builds new-message or new-stroke depending on the event kind.
func EncodeEvent(e room.Event) ([]byte, error) {
	t, err := tag(e)
	if err != nil {
		return nil, err
	}
	typ := TypeNewMessage
	if e.Kind == room.KindStroke {
		typ = TypeNewStroke
	}
	return json.Marshal(outbound{Type: typ, Data: t})
}

func EncodeCleared(roomID string) ([]byte, error) {
	return json.Marshal(outbound{Type: TypeRoomCleared, Data: Cleared{RoomID: roomID}})
}

func EncodePresence(p room.Presence) ([]byte, error) {
	typ := TypeUserJoined
	if p.Action == room.PresenceLeft {
		typ = TypeUserLeft
	}
	return json.Marshal(outbound{Type: typ, Data: PresenceNotice{
		RoomID:       p.RoomID,
		ConnectionID: p.ConnectionID,
		Username:     p.Username,
	}})
}

func tag(e room.Event) (any, error) {
	switch {
	case e.Kind == room.KindMessage && e.Message != nil:
		return taggedMessage{Kind: e.Kind, Message: *e.Message}, nil
	case e.Kind == room.KindStroke && e.Stroke != nil:
		return taggedStroke{Kind: e.Kind, Stroke: *e.Stroke}, nil
	}
	return nil, fmt.Errorf("cannot encode event of kind %q", e.Kind)
}
