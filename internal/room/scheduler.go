package room

import (
	"sync"
	"time"
)

// Scheduler keeps at most one pending eviction per room id. Arming a room
// again replaces its earlier timer; a timer that was replaced or cancelled
// never calls fire.
//
// Cancelling can still lose a race with a timer that already started
// firing, so the fire callback must re-check the room itself.
type Scheduler struct {
	delay time.Duration
	fire  func(roomID string, token uint64)

	mu      sync.Mutex
	pending map[string]pendingEviction
	next    uint64
	stopped bool
}

type pendingEviction struct {
	token uint64
	timer *time.Timer
}

func NewScheduler(delay time.Duration, fire func(roomID string, token uint64)) *Scheduler {
	return &Scheduler{
		delay:   delay,
		fire:    fire,
		pending: make(map[string]pendingEviction),
	}
}

// Arm schedules roomID for eviction after the grace period and returns the
// token identifying this arming. Zero means the scheduler is stopped.
func (s *Scheduler) Arm(roomID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0
	}
	if prev, ok := s.pending[roomID]; ok {
		prev.timer.Stop()
	}

	s.next++
	token := s.next
	s.pending[roomID] = pendingEviction{
		token: token,
		timer: time.AfterFunc(s.delay, func() { s.expire(roomID, token) }),
	}
	return token
}

func (s *Scheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[roomID]; ok {
		p.timer.Stop()
		delete(s.pending, roomID)
	}
}

func (s *Scheduler) Pending(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[roomID]
	return ok
}

// Stop cancels every outstanding timer. Later Arm calls are no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

func (s *Scheduler) expire(roomID string, token uint64) {
	s.mu.Lock()
	p, ok := s.pending[roomID]
	if !ok || p.token != token {
		s.mu.Unlock()
		return
	}
	delete(s.pending, roomID)
	s.mu.Unlock()

	s.fire(roomID, token)
}
