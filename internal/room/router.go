package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/metrics"
)

// Router is the entry point for everything a connection does: it keeps the
// connection -> room index, validates and stamps inbound events, and drives
// room mutations through the Registry.
//
// Errors returned by Router methods are for logging and tests; callers are
// expected to drop them rather than report them to the connection.
type Router struct {
	registry  *Registry
	validator *Validator
	log       *zap.Logger
	now       func() time.Time
	newID     func() string

	mu    sync.RWMutex
	index map[string]membership
}

type membership struct {
	roomID      string
	participant Participant
}

func NewRouter(registry *Registry, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		registry:  registry,
		validator: NewValidator(),
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
		index:     make(map[string]membership),
	}
}

func (rt *Router) Registry() *Registry { return rt.registry }

// Join puts m in roomID, leaving whatever room it was in before. The new
// member receives the full log before any later event. The empty id is
// reserved for "the room this connection is in" and cannot be joined.
func (rt *Router) Join(m Member, roomID string, p Participant) error {
	if roomID == "" {
		return ErrNoRoom
	}
	connID := m.ID()

	if prev, ok := rt.lookup(connID); ok && prev.roomID != roomID {
		if err := rt.Leave(connID); err != nil && !errors.Is(err, ErrNotMember) {
			return err
		}
	}

	for {
		r := rt.registry.GetOrCreate(roomID)
		err := r.join(m, p)
		if errors.Is(err, ErrRoomEvicted) {
			// Evicted between lookup and join; the next GetOrCreate makes a fresh room
			continue
		}
		if err != nil {
			return err
		}
		break
	}

	rt.mu.Lock()
	rt.index[connID] = membership{roomID: roomID, participant: p}
	count := len(rt.index)
	rt.mu.Unlock()

	metrics.ActiveConnections.Set(float64(count))
	rt.log.Debug("joined", zap.String("room", roomID), zap.String("conn", connID), zap.String("username", p.Username))
	return nil
}

// Publish appends e to roomID and forwards it to every other member. An
// empty roomID means the room the connection joined. Invalid and duplicate
// events are dropped.
func (rt *Router) Publish(connID, roomID string, e Event) error {
	e = Normalize(e)
	if err := rt.validator.Validate(e); err != nil {
		metrics.EventsRejected.WithLabelValues("invalid").Inc()
		rt.log.Debug("event rejected", zap.String("conn", connID), zap.Error(err))
		return err
	}

	roomID, err := rt.resolve(connID, roomID)
	if err != nil {
		metrics.EventsRejected.WithLabelValues("no_room").Inc()
		return err
	}

	e = rt.stamp(e)
	for {
		r := rt.registry.GetOrCreate(roomID)
		err := r.append(e, connID)
		if errors.Is(err, ErrRoomEvicted) {
			continue
		}
		if errors.Is(err, ErrDuplicateEvent) {
			metrics.EventsRejected.WithLabelValues("duplicate").Inc()
			rt.log.Debug("duplicate dropped", zap.String("room", roomID), zap.String("conn", connID))
			return err
		}
		if err != nil {
			return fmt.Errorf("append to %s: %w", roomID, err)
		}
		break
	}

	metrics.EventsAccepted.WithLabelValues(string(e.Kind)).Inc()
	return nil
}

// Clear empties the log of roomID (or the connection's room when empty)
// and tells every member, the requester included.
func (rt *Router) Clear(connID, roomID string) error {
	roomID, err := rt.resolve(connID, roomID)
	if err != nil {
		return err
	}

	for {
		r := rt.registry.GetOrCreate(roomID)
		err := r.clear()
		if errors.Is(err, ErrRoomEvicted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("clear %s: %w", roomID, err)
		}
		break
	}

	metrics.RoomsCleared.Inc()
	rt.log.Info("room cleared", zap.String("room", roomID), zap.String("conn", connID))
	return nil
}

// Leave takes the connection out of its room. The room itself stays
// registered; the eviction scheduler decides when it goes.
func (rt *Router) Leave(connID string) error {
	rt.mu.Lock()
	mem, ok := rt.index[connID]
	delete(rt.index, connID)
	count := len(rt.index)
	rt.mu.Unlock()

	if !ok {
		return ErrNotMember
	}
	metrics.ActiveConnections.Set(float64(count))

	r, ok := rt.registry.Lookup(mem.roomID)
	if !ok {
		return nil
	}
	if err := r.leave(connID); err != nil && !errors.Is(err, ErrNotMember) {
		return err
	}
	rt.log.Debug("left", zap.String("room", mem.roomID), zap.String("conn", connID))
	return nil
}

// Disconnect is Leave for a connection that went away. The transport does
// not know the room, so it is resolved through the index.
func (rt *Router) Disconnect(connID string) {
	if err := rt.Leave(connID); err != nil && !errors.Is(err, ErrNotMember) {
		rt.log.Warn("disconnect cleanup failed", zap.String("conn", connID), zap.Error(err))
	}
}

// RoomOf reports the room connID is currently in.
func (rt *Router) RoomOf(connID string) (string, bool) {
	mem, ok := rt.lookup(connID)
	return mem.roomID, ok
}

func (rt *Router) Connections() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.index)
}

func (rt *Router) lookup(connID string) (membership, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	mem, ok := rt.index[connID]
	return mem, ok
}

func (rt *Router) resolve(connID, roomID string) (string, error) {
	if roomID != "" {
		return roomID, nil
	}
	if mem, ok := rt.lookup(connID); ok {
		return mem.roomID, nil
	}
	return "", ErrNoRoom
}

// stamp fills the server-owned fields of a message: an id when the client
// sent none, and the acceptance time when it sent no timestamp.
func (rt *Router) stamp(e Event) Event {
	if e.Kind != KindMessage {
		return e
	}
	m := *e.Message
	if m.ID == "" {
		m.ID = rt.newID()
	}
	if m.Timestamp == 0 {
		m.Timestamp = rt.now().UnixMilli()
	}
	return NewMessageEvent(m)
}

// fanOut delivers to each recipient in turn. A failing or panicking member
// is logged and skipped; it never stops delivery to the rest.
func fanOut(log *zap.Logger, roomID string, recipients []Member, send func(Member) error) {
	for _, m := range recipients {
		if err := deliver(m, send); err != nil {
			metrics.DeliveryFailures.Inc()
			log.Debug("delivery failed", zap.String("room", roomID), zap.String("conn", m.ID()), zap.Error(err))
		}
	}
}

func deliver(m Member, send func(Member) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("member panicked: %v", r)
		}
	}()
	return send(m)
}
