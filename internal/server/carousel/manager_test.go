package carousel

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testGames(n int) []catalog.Game {
	out := make([]catalog.Game, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, catalog.Game{ID: i, Title: "Game " + string(rune('A'+i-1))})
	}
	return out
}

func newTestManager(t *testing.T, items []catalog.Game) (*Manager, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewManager(items, Options{
		Cadence:        5 * time.Second,
		CooldownFactor: 3,
		IdleTimeout:    time.Minute,
		Clock:          clock,
	})
	t.Cleanup(m.CloseAll)
	return m, clock
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestSessionPublishesSelections(t *testing.T) {
	m, clock := newTestManager(t, testGames(3))
	s := m.Create()
	events, cancel := s.Subscribe()
	defer cancel()

	clock.Advance(5 * time.Second)
	s.Next()

	got := drain(events)
	if len(got) != 3 {
		t.Fatalf("expected primed + tick + next events, got %+v", got)
	}
	for i, want := range []int{0, 1, 2} {
		if got[i].Index != want || got[i].Count != 3 || got[i].SessionID != s.ID() {
			t.Fatalf("event %d: unexpected %+v", i, got[i])
		}
	}
	if got[2].Seq != 3 || got[2].Game.ID != 3 {
		t.Fatalf("unexpected last event %+v", got[2])
	}
}

func TestSessionGoToRejectsOutOfRange(t *testing.T) {
	m, _ := newTestManager(t, testGames(3))
	s := m.Create()
	if err := s.GoTo(5); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if err := s.GoTo(1); err != nil {
		t.Fatalf("goto 1: %v", err)
	}
	if g, _ := s.Current(); g.ID != 2 {
		t.Fatalf("unexpected current %+v", g)
	}
}

func TestSlowSubscriberKeepsNewestEvents(t *testing.T) {
	m, clock := newTestManager(t, testGames(4))
	s := m.Create()
	events, cancel := s.Subscribe()
	defer cancel()

	clock.Advance(time.Duration(subscriberBuffer+10) * 5 * time.Second)
	got := drain(events)
	if len(got) != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d events, got %d", subscriberBuffer, len(got))
	}
	last := got[len(got)-1]
	if last.Seq != int64(subscriberBuffer+11) {
		t.Fatalf("expected newest event to survive, got seq %d", last.Seq)
	}
}

func TestCloseEndsSubscriptionsAndTimers(t *testing.T) {
	m, clock := newTestManager(t, testGames(3))
	s := m.Create()
	events, _ := s.Subscribe()
	if err := m.Close(s.ID()); err != nil {
		t.Fatalf("close: %v", err)
	}
	drain(events)
	if _, ok := <-events; ok {
		t.Fatalf("expected closed channel")
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after close, got %v", err)
	}
	if err := m.Close(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double close, got %v", err)
	}
	closed, cancel := s.Subscribe()
	cancel()
	if _, ok := <-closed; ok {
		t.Fatalf("expected subscribe on closed session to return a closed channel")
	}
}

func TestReapClosesIdleSessionsOnly(t *testing.T) {
	m, clock := newTestManager(t, testGames(2))
	idle := m.Create()
	watched := m.Create()
	_, cancel := watched.Subscribe()
	defer cancel()

	clock.Advance(2 * time.Minute)
	if n := m.Reap(clock.Now()); n != 1 {
		t.Fatalf("expected one reaped session, got %d", n)
	}
	if _, err := m.Get(idle.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected idle session to be gone")
	}
	if _, err := m.Get(watched.ID()); err != nil {
		t.Fatalf("expected watched session to survive: %v", err)
	}
}

func TestSetItemsRevalidatesSessions(t *testing.T) {
	m, clock := newTestManager(t, testGames(5))
	s := m.Create()
	clock.Advance(20 * time.Second) // index 4
	events, cancel := s.Subscribe()
	defer cancel()
	drain(events)

	m.SetItems(testGames(2))
	got := drain(events)
	if len(got) != 1 || got[0].Index != 0 || got[0].Count != 2 {
		t.Fatalf("expected reselect at 0 of 2, got %+v", got)
	}

	fresh := m.Create()
	if st := fresh.State(); st.Length != 2 {
		t.Fatalf("expected new sessions to use the new items, got length %d", st.Length)
	}

	m.SetItems(nil)
	if _, ok := s.Current(); ok {
		t.Fatalf("expected empty items to stop the session")
	}
}
