package service

import (
	"sync"

	"sky266_backend/internal/model"
)

// ProgressEvent is broadcast after every successful progress mutation so
// views mounted in the same process (e.g. an open manager roster) can
// reconcile without re-fetching.
type ProgressEvent struct {
	UserID   string                 `json:"user_id"`
	Progress model.TrainingProgress `json:"progress"`
}

// ProgressBus is an in-process publish/subscribe fan-out. Delivery is best
// effort: a subscriber that is not draining its channel misses events and
// must reconcile with its own fetch, and a listener subscribed after an
// event never sees it.
type ProgressBus struct {
	mu   sync.Mutex
	seq  int
	subs map[int]chan ProgressEvent
}

func NewProgressBus() *ProgressBus {
	return &ProgressBus{subs: make(map[int]chan ProgressEvent)}
}

// Subscription is a handle to one listener; Close releases it.
type Subscription struct {
	C   <-chan ProgressEvent
	id  int
	bus *ProgressBus
}

func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if ch, ok := s.bus.subs[s.id]; ok {
		delete(s.bus.subs, s.id)
		close(ch)
	}
}

func (b *ProgressBus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ch := make(chan ProgressEvent, 16)
	b.subs[b.seq] = ch
	return &Subscription{C: ch, id: b.seq, bus: b}
}

func (b *ProgressBus) Publish(ev ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// subscriber is not draining; drop rather than block
		}
	}
}
