package room

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// Records everything pushed to one connection
type fakeMember struct {
	id string

	mu        sync.Mutex
	snapshots [][]Event
	events    []Event
	cleared   int
	presence  []Presence
	fail      bool
	panics    bool
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: id}
}

func (m *fakeMember) ID() string { return m.id }

func (m *fakeMember) SendSnapshot(roomID string, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.snapshots = append(m.snapshots, events)
	return nil
}

func (m *fakeMember) SendEvent(roomID string, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *fakeMember) SendCleared(roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.cleared++
	return nil
}

func (m *fakeMember) SendPresence(p Presence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.presence = append(m.presence, p)
	return nil
}

func (m *fakeMember) check() error {
	if m.panics {
		panic("connection gone")
	}
	if m.fail {
		return errors.New("connection gone")
	}
	return nil
}

func (m *fakeMember) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *fakeMember) LastSnapshot() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snapshots) == 0 {
		return nil
	}
	return m.snapshots[len(m.snapshots)-1]
}

func (m *fakeMember) Cleared() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

func (m *fakeMember) Presence() []Presence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Presence(nil), m.presence...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestRouter(t *testing.T, grace time.Duration) *Router {
	t.Helper()
	log := zaptest.NewLogger(t)
	registry := NewRegistry(Options{GracePeriod: grace, Logger: log})
	t.Cleanup(registry.Close)
	return NewRouter(registry, log)
}

func message(username, content string) Event {
	return NewMessageEvent(Message{Username: username, Content: content})
}

func stroke(id string, points ...Point) Event {
	return NewStrokeEvent(Stroke{ID: id, Tool: "pen", Color: "#000000", Size: 3, Points: points})
}

func contents(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		if e.Kind == KindMessage {
			out = append(out, e.Message.Content)
		}
	}
	return out
}
