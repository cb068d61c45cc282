package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manpreetbhatti/roomsync/internal/room"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Type
		wantErr bool
	}{
		{name: "join", raw: `{"type":"join-room","data":"abc"}`, want: TypeJoinRoom},
		{name: "no data", raw: `{"type":"leave-room"}`, want: TypeLeaveRoom},
		{name: "not json", raw: `join-room abc`, wantErr: true},
		{name: "missing type", raw: `{"data":"abc"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, f.Type)
		})
	}
}

func TestJoinAcceptsStringOrObject(t *testing.T) {
	req := require.New(t)

	f, err := Decode([]byte(`{"type":"join-room","data":"abc"}`))
	req.NoError(err)
	join, err := f.Join()
	req.NoError(err)
	req.Equal(JoinRequest{RoomID: "abc"}, join)

	f, err = Decode([]byte(`{"type":"join-room","data":{"roomId":"abc","username":"alice"}}`))
	req.NoError(err)
	join, err = f.Join()
	req.NoError(err)
	req.Equal(JoinRequest{RoomID: "abc", Username: "alice"}, join)

	f, err = Decode([]byte(`{"type":"join-room","data":42}`))
	req.NoError(err)
	_, err = f.Join()
	req.ErrorIs(err, ErrMalformed)
}

func TestRoomID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare id", raw: `{"type":"clear-chat","data":"abc"}`, want: "abc"},
		{name: "object", raw: `{"type":"clear-board","data":{"roomId":"abc"}}`, want: "abc"},
		{name: "absent", raw: `{"type":"clear"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			require.True(t, f.IsClear())
			id, err := f.RoomID()
			require.NoError(t, err)
			require.Equal(t, tt.want, id)
		})
	}
}

func TestMessageFrame(t *testing.T) {
	req := require.New(t)

	f, err := Decode([]byte(`{"type":"send-message","data":{"roomId":"abc","message":"hi","username":"alice","id":"m1"}}`))
	req.NoError(err)
	roomID, e, err := f.Message("ignored")
	req.NoError(err)
	req.Equal("abc", roomID)
	req.Equal(room.KindMessage, e.Kind)
	req.Equal(room.Message{ID: "m1", Username: "alice", Content: "hi"}, *e.Message)

	f, err = Decode([]byte(`{"type":"send-message","data":{"message":"hi"}}`))
	req.NoError(err)
	_, e, err = f.Message("guest")
	req.NoError(err)
	req.Equal("guest", e.Message.Username)
}

func TestStrokeFrame(t *testing.T) {
	req := require.New(t)

	f, err := Decode([]byte(`{"type":"draw-stroke","data":{"roomId":"abc","stroke":{"tool":"pen","color":"#000","size":3,"points":[{"x":1,"y":2},{"x":3,"y":4}]}}}`))
	req.NoError(err)
	roomID, e, err := f.Stroke()
	req.NoError(err)
	req.Equal("abc", roomID)
	req.Equal(room.KindStroke, e.Kind)
	req.Equal([]room.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, e.Stroke.Points)

	f, err = Decode([]byte(`{"type":"draw-stroke","data":{"roomId":"abc"}}`))
	req.NoError(err)
	_, _, err = f.Stroke()
	req.ErrorIs(err, ErrMalformed)
}

func TestEncodeSnapshotTagsKinds(t *testing.T) {
	req := require.New(t)

	raw, err := EncodeSnapshot("abc", []room.Event{
		room.NewMessageEvent(room.Message{ID: "m1", Username: "alice", Content: "hi", Timestamp: 10}),
		room.NewStrokeEvent(room.Stroke{Tool: "pen", Color: "#000", Size: 2, Points: []room.Point{{X: 1, Y: 1}}}),
	})
	req.NoError(err)
	req.JSONEq(`{
		"type": "room-state",
		"data": {
			"roomId": "abc",
			"events": [
				{"kind": "message", "id": "m1", "username": "alice", "content": "hi", "timestamp": 10},
				{"kind": "stroke", "tool": "pen", "color": "#000", "size": 2, "points": [{"x": 1, "y": 1}]}
			]
		}
	}`, string(raw))

	raw, err = EncodeSnapshot("empty", nil)
	req.NoError(err)
	req.JSONEq(`{"type":"room-state","data":{"roomId":"empty","events":[]}}`, string(raw))
}

func TestEncodePushes(t *testing.T) {
	req := require.New(t)

	raw, err := EncodeEvent(room.NewStrokeEvent(room.Stroke{ID: "s1", Tool: "eraser", Color: "#fff", Size: 8, Points: []room.Point{{}}}))
	req.NoError(err)
	var frame struct {
		Type Type `json:"type"`
	}
	req.NoError(json.Unmarshal(raw, &frame))
	req.Equal(TypeNewStroke, frame.Type)

	raw, err = EncodeCleared("abc")
	req.NoError(err)
	req.JSONEq(`{"type":"room-cleared","data":{"roomId":"abc"}}`, string(raw))

	raw, err = EncodePresence(room.Presence{RoomID: "abc", ConnectionID: "c1", Username: "bob", Action: room.PresenceLeft})
	req.NoError(err)
	req.JSONEq(`{"type":"user-left","data":{"roomId":"abc","connectionId":"c1","username":"bob"}}`, string(raw))

	_, err = EncodeEvent(room.Event{Kind: "bogus"})
	req.Error(err)
}
