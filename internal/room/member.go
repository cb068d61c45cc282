package room

//go:generate mockgen -destination=../mocks/room.go -package=mocks github.com/manpreetbhatti/roomsync/internal/room Recorder,Member

// Member is the outbound capability of one connection in a room. Room
// mutations call it while holding the room lock, so implementations must
// not block: queue the push and return.
type Member interface {
	ID() string
	SendSnapshot(roomID string, events []Event) error
	SendEvent(roomID string, e Event) error
	SendCleared(roomID string) error
	SendPresence(p Presence) error
}

// Participant carries what a connection declared when joining.
type Participant struct {
	Username string
}

type PresenceAction string

const (
	PresenceJoined PresenceAction = "joined"
	PresenceLeft   PresenceAction = "left"
)

// Presence is a best-effort notice about someone entering or leaving a
// room. Membership truth is the room's own member set, not these notices.
type Presence struct {
	RoomID       string
	ConnectionID string
	Username     string
	Action       PresenceAction
}
