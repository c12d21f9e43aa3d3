package carousel

import (
	"sync"
	"time"

	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/rotation"
)

type Session struct {
	id    string
	ctrl  *rotation.Controller[catalog.Game]
	clock rotation.Clock

	mu        sync.Mutex
	itemCount int
	subs      map[int]chan Event
	nextSub   int
	seq       int64
	last      *Event
	lastSeen  time.Time
	closed    bool
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() rotation.State {
	return s.ctrl.State()
}

func (s *Session) Current() (catalog.Game, bool) {
	return s.ctrl.Current()
}

func (s *Session) Cadence() time.Duration {
	return s.ctrl.Cadence()
}

func (s *Session) Cooldown() time.Duration {
	return s.ctrl.Cooldown()
}

func (s *Session) Next() {
	s.touch()
	s.ctrl.Next()
}

func (s *Session) Prev() {
	s.touch()
	s.ctrl.Prev()
}

func (s *Session) GoTo(index int) error {
	s.touch()
	if !s.ctrl.GoTo(index) {
		return ErrInvalidIndex
	}
	return nil
}

func (s *Session) SetPaused(paused bool) {
	s.touch()
	s.ctrl.SetPaused(paused)
}

// Subscribe returns a channel of selections, primed with the latest one.
// The channel is closed when the session closes or cancel is called. A slow
// subscriber loses its oldest pending events, never the newest.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	if s.last != nil {
		ch <- *s.last
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
			s.lastSeen = s.clock.Now()
		})
	}
}

// publish runs under the controller lock and must not call back into it.
func (s *Session) publish(index int, game catalog.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	evt := Event{
		SessionID: s.id,
		Seq:       s.seq,
		Index:     index,
		Count:     s.itemCount,
		Game:      game,
	}
	s.last = &evt
	for _, ch := range s.subs {
		enqueue(ch, evt)
	}
}

func enqueue(ch chan Event, evt Event) {
	select {
	case ch <- evt:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- evt:
	default:
	}
}

func (s *Session) setItems(items []catalog.Game) {
	s.mu.Lock()
	s.itemCount = len(items)
	s.mu.Unlock()
	s.ctrl.SetItems(items)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return 0
	}
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	s.ctrl.Teardown()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
