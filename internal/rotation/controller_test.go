package rotation_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/izzyreal/stitch/internal/rotation"
	"github.com/izzyreal/stitch/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	clock *testutil.FakeClock
	start time.Time
	calls []selection
}

type selection struct {
	At    time.Duration
	Index int
	Item  string
}

func (r *recorder) onSelect(index int, item string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, selection{At: r.clock.Now().Sub(r.start), Index: index, Item: item})
}

func (r *recorder) snapshot() []selection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]selection(nil), r.calls...)
}

func newTestController(t *testing.T, items []string, opts ...rotation.Option) (*rotation.Controller[string], *testutil.FakeClock, *recorder) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := testutil.NewFakeClock(start)
	rec := &recorder{clock: clock, start: start}
	opts = append([]rotation.Option{
		rotation.WithClock(clock),
		rotation.WithCadence(5 * time.Second),
		rotation.WithCooldownFactor(3),
	}, opts...)
	c := rotation.New(items, rec.onSelect, opts...)
	t.Cleanup(c.Teardown)
	return c, clock, rec
}

func TestControllerManualNavigationCooldown(t *testing.T) {
	c, clock, rec := newTestController(t, []string{"a", "b", "c"})

	clock.Advance(5 * time.Second)
	clock.Advance(1 * time.Second)
	c.Next()
	clock.Advance(4 * time.Second) // t=10: cooldown suppresses the tick
	if got := c.State().Phase(); got != rotation.PhaseManualCooldown {
		t.Fatalf("phase at t=10: got %s", got)
	}
	clock.Advance(11 * time.Second) // t=21: cooldown expires
	if got := c.State().Phase(); got != rotation.PhaseRunning {
		t.Fatalf("phase at t=21: got %s", got)
	}
	clock.Advance(5 * time.Second) // t=26

	want := []selection{
		{At: 0, Index: 0, Item: "a"},
		{At: 5 * time.Second, Index: 1, Item: "b"},
		{At: 6 * time.Second, Index: 2, Item: "c"},
		{At: 26 * time.Second, Index: 0, Item: "a"},
	}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("selections mismatch (-want +got):\n%s", diff)
	}
}

func TestControllerCycleClosure(t *testing.T) {
	c, clock, rec := newTestController(t, []string{"a", "b", "c"})
	clock.Advance(15 * time.Second)
	calls := rec.snapshot()
	if len(calls) != 4 || calls[3].Index != 0 {
		t.Fatalf("expected to wrap back to 0 after n ticks, got %+v", calls)
	}
	if item, ok := c.Current(); !ok || item != "a" {
		t.Fatalf("unexpected current item %q ok=%v", item, ok)
	}
}

func TestControllerSingleItemNeverAdvances(t *testing.T) {
	_, clock, rec := newTestController(t, []string{"solo"})
	if clock.Pending() != 0 {
		t.Fatalf("expected no timer for a single item, got %d", clock.Pending())
	}
	clock.Advance(time.Minute)
	if got := len(rec.snapshot()); got != 1 {
		t.Fatalf("expected exactly the initial selection, got %d", got)
	}
}

func TestControllerEmptyIsStopped(t *testing.T) {
	c, clock, rec := newTestController(t, nil)
	if c.State().Phase() != rotation.PhaseStopped {
		t.Fatalf("expected stopped controller")
	}
	c.Next()
	clock.Advance(time.Minute)
	if len(rec.snapshot()) != 0 {
		t.Fatalf("expected no selections for an empty sequence")
	}
	if _, ok := c.Current(); ok {
		t.Fatalf("expected no current item")
	}
}

func TestControllerPauseResumeStartsFreshCadence(t *testing.T) {
	c, clock, rec := newTestController(t, []string{"a", "b", "c"})
	clock.Advance(4 * time.Second)
	c.SetPaused(true)
	clock.Advance(30 * time.Second)
	if got := len(rec.snapshot()); got != 1 {
		t.Fatalf("expected no advance while paused, got %d selections", got)
	}
	c.SetPaused(false)
	clock.Advance(4 * time.Second)
	if got := len(rec.snapshot()); got != 1 {
		t.Fatalf("expected a full cadence after resume, got %d selections", got)
	}
	clock.Advance(time.Second)
	if got := rec.snapshot(); len(got) != 2 || got[1].Index != 1 {
		t.Fatalf("expected advance one cadence after resume, got %+v", got)
	}
}

func TestControllerNextPrevReturnsWithoutTick(t *testing.T) {
	c, clock, rec := newTestController(t, []string{"a", "b", "c"})
	clock.Advance(2 * time.Second)
	c.Next()
	c.Prev()
	calls := rec.snapshot()
	if len(calls) != 3 || calls[1].Index != 1 || calls[2].Index != 0 {
		t.Fatalf("unexpected selections: %+v", calls)
	}
	if clock.Pending() != 1 {
		t.Fatalf("expected exactly one armed timer, got %d", clock.Pending())
	}
	// The cooldown restarted at the second navigation.
	clock.Advance(15 * time.Second)
	clock.Advance(4 * time.Second)
	if got := len(rec.snapshot()); got != 3 {
		t.Fatalf("expected no tick before a full cadence after cooldown, got %d", got)
	}
	clock.Advance(time.Second)
	if got := rec.snapshot(); len(got) != 4 || got[3].Index != 1 {
		t.Fatalf("expected auto advance to resume, got %+v", got)
	}
}

func TestControllerGoTo(t *testing.T) {
	c, _, rec := newTestController(t, []string{"a", "b", "c"})
	if c.GoTo(3) || c.GoTo(-1) {
		t.Fatalf("expected out-of-range GoTo to be rejected")
	}
	if len(rec.snapshot()) != 1 {
		t.Fatalf("rejected GoTo must not select")
	}
	if !c.GoTo(2) {
		t.Fatalf("expected GoTo(2) to succeed")
	}
	if item, _ := c.Current(); item != "c" {
		t.Fatalf("unexpected current %q", item)
	}
}

func TestControllerSetItems(t *testing.T) {
	c, clock, rec := newTestController(t, []string{"a", "b", "c", "d"})
	clock.Advance(15 * time.Second)
	c.SetItems([]string{"x", "y"})
	calls := rec.snapshot()
	last := calls[len(calls)-1]
	if last.Index != 0 || last.Item != "x" {
		t.Fatalf("expected reselect of x at 0, got %+v", last)
	}
	if diff := cmp.Diff([]string{"x", "y"}, c.Items()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	c.SetItems(nil)
	if c.State().Phase() != rotation.PhaseStopped || clock.Pending() != 0 {
		t.Fatalf("expected empty items to stop the controller")
	}
}

func TestControllerTeardownReleasesEverything(t *testing.T) {
	var (
		mu           sync.Mutex
		setter       func(bool)
		unsubscribed int
	)
	source := func(set func(bool)) func() {
		mu.Lock()
		setter = set
		mu.Unlock()
		return func() {
			mu.Lock()
			unsubscribed++
			mu.Unlock()
		}
	}
	c, clock, rec := newTestController(t, []string{"a", "b"}, rotation.WithPauseSource(source))

	setter(true)
	if c.State().Phase() != rotation.PhasePaused {
		t.Fatalf("expected pause source to pause the controller")
	}
	setter(false)

	c.Teardown()
	c.Teardown()
	if unsubscribed != 1 {
		t.Fatalf("expected exactly one unsubscribe, got %d", unsubscribed)
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no armed timers after teardown, got %d", clock.Pending())
	}
	before := len(rec.snapshot())
	c.Next()
	c.Prev()
	c.GoTo(1)
	setter(true)
	c.SetItems([]string{"z"})
	clock.Advance(time.Minute)
	if got := len(rec.snapshot()); got != before {
		t.Fatalf("expected no selections after teardown, got %d more", got-before)
	}
}

func TestControllerRealClockTeardownLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)
	selected := make(chan int, 16)
	c := rotation.New([]int{1, 2, 3}, func(_ int, item int) {
		select {
		case selected <- item:
		default:
		}
	}, rotation.WithCadence(10*time.Millisecond))
	select {
	case <-selected:
	case <-time.After(time.Second):
		t.Fatalf("expected initial selection")
	}
	select {
	case <-selected:
	case <-time.After(time.Second):
		t.Fatalf("expected an auto advance")
	}
	c.Teardown()
}

func TestPauseLatchReplaysStateToNewController(t *testing.T) {
	var latch rotation.PauseLatch
	latch.Set(true)

	c, clock, rec := newTestController(t, []string{"a", "b", "c"}, rotation.WithPauseSource(latch.Source))
	if !c.State().Paused || clock.Pending() != 0 {
		t.Fatalf("expected controller created under a held pointer to start paused: %+v pending=%d", c.State(), clock.Pending())
	}
	clock.Advance(20 * time.Second)
	if got := len(rec.snapshot()); got != 1 {
		t.Fatalf("expected only the initial selection while paused, got %d", got)
	}

	latch.Set(false)
	clock.Advance(5 * time.Second)
	calls := rec.snapshot()
	if last := calls[len(calls)-1]; last.Index != 1 {
		t.Fatalf("expected advance after release, got %+v", calls)
	}

	c.Teardown()
	latch.Set(true)
	if !latch.Paused() || c.State().Phase() != rotation.PhaseStopped {
		t.Fatalf("expected latch to outlive the torn down controller")
	}
}

func TestPauseLatchUnsubscribeKeepsNewerSubscriber(t *testing.T) {
	var latch rotation.PauseLatch
	first, _, _ := newTestController(t, []string{"a", "b"}, rotation.WithPauseSource(latch.Source))
	second, _, _ := newTestController(t, []string{"x", "y"}, rotation.WithPauseSource(latch.Source))

	first.Teardown()
	latch.Set(true)
	if !second.State().Paused {
		t.Fatalf("expected the newer controller to keep receiving pause signals")
	}
}
