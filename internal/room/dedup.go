package room

import "time"

// DedupPolicy decides whether an incoming event repeats one already in the
// log. Two rules apply, both against the newest Depth entries only:
//   - any event carrying an explicit id matches an entry with the same id;
//   - a message matches an earlier message with the same username and
//     content accepted no more than Window before it.
//
// The second rule is a heuristic. Two identical messages typed on purpose
// within Window collapse into one. A zero Window disables it.
type DedupPolicy struct {
	Window time.Duration
	Depth  int
}

func DefaultDedupPolicy() DedupPolicy {
	return DedupPolicy{
		Window: 2 * time.Second,
		Depth:  64,
	}
}

type entry struct {
	event      Event
	acceptedAt time.Time
}

func (p DedupPolicy) isDuplicate(log []entry, e Event, now time.Time) bool {
	if p.Depth <= 0 {
		return false
	}
	start := len(log) - p.Depth
	if start < 0 {
		start = 0
	}

	id := e.ID()
	for i := len(log) - 1; i >= start; i-- {
		prev := log[i]
		if id != "" && prev.event.ID() == id {
			return true
		}
		if p.sameMessage(prev, e, now) {
			return true
		}
	}
	return false
}

func (p DedupPolicy) sameMessage(prev entry, e Event, now time.Time) bool {
	if p.Window <= 0 || e.Kind != KindMessage || prev.event.Kind != KindMessage {
		return false
	}
	if now.Sub(prev.acceptedAt) > p.Window {
		return false
	}
	a, b := prev.event.Message, e.Message
	return a.Username == b.Username && a.Content == b.Content
}
