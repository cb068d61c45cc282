package room

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/metrics"
)

const DefaultGracePeriod = 60 * time.Second

// Recorder receives room lifecycle notices, e.g. to keep an activity
// journal. It is called outside every room lock.
type Recorder interface {
	RoomOpened(info Info) error
	RoomClosed(info Info, closedAt time.Time) error
}

type Options struct {
	// How long an empty room is kept before eviction
	GracePeriod time.Duration
	// Zero value means DefaultDedupPolicy; set Depth < 0 to disable
	Dedup    DedupPolicy
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// Registry owns every live room. It is the only place rooms are created or
// removed; callers reach a room through it and never keep their own map.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	sched    *Scheduler
	dedup    DedupPolicy
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewRegistry(opts Options) *Registry {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Dedup == (DedupPolicy{}) {
		opts.Dedup = DefaultDedupPolicy()
	}

	g := &Registry{
		rooms:    make(map[string]*Room),
		dedup:    opts.Dedup,
		recorder: opts.Recorder,
		log:      opts.Logger,
		now:      opts.Now,
	}
	g.sched = NewScheduler(opts.GracePeriod, g.evictIfIdle)
	return g
}

// GetOrCreate returns the live room for id, creating it when absent. A new
// room has no members, so it starts out Draining with its eviction armed;
// the first join cancels that.
func (g *Registry) GetOrCreate(id string) *Room {
	g.mu.Lock()
	if r, ok := g.rooms[id]; ok {
		g.mu.Unlock()
		return r
	}

	r := &Room{
		id:        id,
		sessionID: uuid.NewString(),
		createdAt: g.now(),
		members:   make(map[string]member),
		state:     Draining,
		sched:     g.sched,
		dedup:     g.dedup,
		now:       g.now,
		log:       g.log,
	}
	r.drainToken = g.sched.Arm(id)
	g.rooms[id] = r
	count := len(g.rooms)
	g.mu.Unlock()

	metrics.ActiveRooms.Set(float64(count))
	g.log.Info("room created", zap.String("room", id), zap.Int("rooms", count))
	g.record(func(rec Recorder) error { return rec.RoomOpened(r.Info()) })
	return r
}

func (g *Registry) Lookup(id string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	return r, ok
}

func (g *Registry) Exists(id string) bool {
	_, ok := g.Lookup(id)
	return ok
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Rooms lists every live room, sorted by id.
func (g *Registry) Rooms() []Info {
	g.mu.Lock()
	rooms := lo.Values(g.rooms)
	g.mu.Unlock()

	infos := lo.Map(rooms, func(r *Room, _ int) Info { return r.Info() })
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// evictIfIdle runs when an eviction timer fires. It removes the room only
// if it is still the Draining instance that armed token and nobody joined
// in between; anything else is a stale timer and does nothing.
func (g *Registry) evictIfIdle(id string, token uint64) {
	g.mu.Lock()
	r, ok := g.rooms[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	info, evicted := r.tryEvict(token)
	if !evicted {
		g.mu.Unlock()
		g.log.Debug("stale eviction ignored", zap.String("room", id))
		return
	}
	delete(g.rooms, id)
	count := len(g.rooms)
	g.mu.Unlock()

	metrics.ActiveRooms.Set(float64(count))
	metrics.RoomsEvicted.Inc()
	g.log.Info("room evicted", zap.String("room", id), zap.Int("accepted", info.Accepted))
	g.record(func(rec Recorder) error { return rec.RoomClosed(info, g.now()) })
}

// Close tears the registry down: pending evictions are cancelled and every
// remaining room is closed and forgotten.
func (g *Registry) Close() {
	g.sched.Stop()

	g.mu.Lock()
	rooms := lo.Values(g.rooms)
	g.rooms = make(map[string]*Room)
	g.mu.Unlock()

	metrics.ActiveRooms.Set(0)
	now := g.now()
	for _, r := range rooms {
		info := r.close()
		g.record(func(rec Recorder) error { return rec.RoomClosed(info, now) })
	}
}

func (g *Registry) record(fn func(Recorder) error) {
	if g.recorder == nil {
		return
	}
	if err := fn(g.recorder); err != nil {
		g.log.Warn("journal write failed", zap.Error(err))
	}
}
