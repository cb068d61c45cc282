package room

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/metrics"
)

type State int

const (
	// At least one member is connected
	Active State = iota
	// No members, eviction timer armed
	Draining
	// Removed from the registry; terminal
	Evicted
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Draining:
		return "draining"
	case Evicted:
		return "evicted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type member struct {
	Member
	username string
}

// A collaborative session. All mutations take mu, which makes it the
// single ordering authority for the room: whatever order events are
// appended in is the order every member receives them in.
type Room struct {
	id        string
	sessionID string
	createdAt time.Time

	mu         sync.Mutex
	events     []entry
	members    map[string]member
	state      State
	drainToken uint64

	accepted    int
	clears      int
	peakMembers int

	sched *Scheduler
	dedup DedupPolicy
	now   func() time.Time
	log   *zap.Logger
}

// Info is a point-in-time view of a room for listings and the journal.
type Info struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	State       string    `json:"state"`
	Members     int       `json:"members"`
	Events      int       `json:"events"`
	Accepted    int       `json:"accepted"`
	Clears      int       `json:"clears"`
	PeakMembers int       `json:"peak_members"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *Room) ID() string { return r.id }

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Returns a copy of the log in acceptance order
func (r *Room) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() []Event {
	events := make([]Event, len(r.events))
	for i, e := range r.events {
		events[i] = e.event
	}
	return events
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) HasMember(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[connID]
	return ok
}

func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() Info {
	return Info{
		ID:          r.id,
		SessionID:   r.sessionID,
		State:       r.state.String(),
		Members:     len(r.members),
		Events:      len(r.events),
		Accepted:    r.accepted,
		Clears:      r.clears,
		PeakMembers: r.peakMembers,
		CreatedAt:   r.createdAt,
	}
}

// join adds m to the room, hands it the current log and tells the others.
// A connection that is already a member just gets the snapshot again.
func (r *Room) join(m Member, p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Evicted {
		return ErrRoomEvicted
	}

	id := m.ID()
	_, rejoin := r.members[id]
	if !rejoin {
		r.members[id] = member{Member: m, username: p.Username}
		if len(r.members) > r.peakMembers {
			r.peakMembers = len(r.members)
		}
	}

	if r.state == Draining {
		r.state = Active
		r.drainToken = 0
		r.sched.Cancel(r.id)
		r.log.Debug("room reactivated", zap.String("room", r.id))
	}

	if err := m.SendSnapshot(r.id, r.snapshotLocked()); err != nil {
		metrics.DeliveryFailures.Inc()
		r.log.Debug("snapshot delivery failed", zap.String("room", r.id), zap.String("conn", id), zap.Error(err))
	}

	if !rejoin {
		presence := Presence{RoomID: r.id, ConnectionID: id, Username: p.Username, Action: PresenceJoined}
		fanOut(r.log, r.id, r.othersLocked(id), func(to Member) error {
			return to.SendPresence(presence)
		})
	}
	return nil
}

// leave removes connID. The last member out moves the room to Draining and
// arms its eviction.
func (r *Room) leave(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connID]
	if !ok {
		return ErrNotMember
	}
	delete(r.members, connID)

	presence := Presence{RoomID: r.id, ConnectionID: connID, Username: m.username, Action: PresenceLeft}
	fanOut(r.log, r.id, r.othersLocked(connID), func(to Member) error {
		return to.SendPresence(presence)
	})

	if len(r.members) == 0 && r.state == Active {
		r.state = Draining
		r.drainToken = r.sched.Arm(r.id)
		r.log.Debug("room draining", zap.String("room", r.id))
	}
	return nil
}

// append accepts e into the log unless it repeats a recent entry, then
// pushes it to every member except the sender.
func (r *Room) append(e Event, senderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Evicted {
		return ErrRoomEvicted
	}

	now := r.now()
	if r.dedup.isDuplicate(r.events, e, now) {
		return ErrDuplicateEvent
	}

	r.events = append(r.events, entry{event: e, acceptedAt: now})
	r.accepted++

	fanOut(r.log, r.id, r.othersLocked(senderID), func(to Member) error {
		return to.SendEvent(r.id, e)
	})
	return nil
}

// clear empties the log and tells every member, requester included.
// Membership and lifecycle state are untouched.
func (r *Room) clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Evicted {
		return ErrRoomEvicted
	}

	r.events = nil
	r.clears++

	fanOut(r.log, r.id, r.allLocked(), func(to Member) error {
		return to.SendCleared(r.id)
	})
	return nil
}

// tryEvict commits the eviction only if the room has stayed empty since
// the drain that armed token.
func (r *Room) tryEvict(token uint64) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Draining || len(r.members) != 0 || r.drainToken != token {
		return Info{}, false
	}
	r.state = Evicted
	r.drainToken = 0
	return r.infoLocked(), true
}

// close marks the room evicted during registry teardown.
func (r *Room) close() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Evicted
	return r.infoLocked()
}

func (r *Room) allLocked() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m.Member)
	}
	return out
}

func (r *Room) othersLocked(exclude string) []Member {
	out := make([]Member, 0, len(r.members))
	for id, m := range r.members {
		if id != exclude {
			out = append(out, m.Member)
		}
	}
	return out
}
