package room

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type firings struct {
	mu     sync.Mutex
	tokens map[string][]uint64
}

func (f *firings) fire(roomID string, token uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens == nil {
		f.tokens = make(map[string][]uint64)
	}
	f.tokens[roomID] = append(f.tokens[roomID], token)
}

func (f *firings) get(roomID string) []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.tokens[roomID]...)
}

func TestSchedulerFiresOnce(t *testing.T) {
	req := require.New(t)
	var f firings
	s := NewScheduler(10*time.Millisecond, f.fire)
	defer s.Stop()

	token := s.Arm("abc")
	req.NotZero(token)
	req.True(s.Pending("abc"))

	req.Eventually(func() bool { return len(f.get("abc")) == 1 }, time.Second, 5*time.Millisecond)
	req.Equal([]uint64{token}, f.get("abc"))
	req.False(s.Pending("abc"))
}

func TestSchedulerArmSupersedes(t *testing.T) {
	req := require.New(t)
	var f firings
	s := NewScheduler(30*time.Millisecond, f.fire)
	defer s.Stop()

	first := s.Arm("abc")
	second := s.Arm("abc")
	req.NotEqual(first, second)

	req.Eventually(func() bool { return len(f.get("abc")) > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	req.Equal([]uint64{second}, f.get("abc"))
}

func TestSchedulerCancel(t *testing.T) {
	req := require.New(t)
	var f firings
	s := NewScheduler(20*time.Millisecond, f.fire)
	defer s.Stop()

	s.Arm("abc")
	other := s.Arm("xyz")
	s.Cancel("abc")
	s.Cancel("never-armed")

	req.Eventually(func() bool { return len(f.get("xyz")) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	req.Empty(f.get("abc"))
	req.Equal([]uint64{other}, f.get("xyz"))
}

func TestSchedulerStop(t *testing.T) {
	req := require.New(t)
	var f firings
	s := NewScheduler(10*time.Millisecond, f.fire)

	s.Arm("abc")
	s.Stop()
	req.Zero(s.Arm("xyz"))

	time.Sleep(40 * time.Millisecond)
	req.Empty(f.get("abc"))
	req.Empty(f.get("xyz"))
}
