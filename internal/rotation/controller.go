package rotation

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultCadence        = 5 * time.Second
	DefaultCooldownFactor = 3
)

// PauseSource delivers external pause signals (hover, focus). It is called
// once with a setter and returns the function that unsubscribes it.
type PauseSource func(setPaused func(bool)) (unsubscribe func())

type Option func(*options)

type options struct {
	clock          Clock
	cadence        time.Duration
	cooldownFactor int
	pauseSource    PauseSource
	logger         *slog.Logger
}

func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithCadence(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cadence = d
		}
	}
}

// WithCooldownFactor sets the cooldown as a multiple of the cadence.
func WithCooldownFactor(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cooldownFactor = n
		}
	}
}

func WithPauseSource(src PauseSource) Option {
	return func(o *options) { o.pauseSource = src }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Controller runs the rotation state machine for items of type T. Every
// operation is serialized; onSelect runs while the controller is locked and
// must not call back into it. After Teardown every operation is a no-op.
type Controller[T any] struct {
	mu       sync.Mutex
	opts     options
	items    []T
	onSelect func(index int, item T)
	state    State

	timer       Timer
	timerGen    uint64
	unsubscribe func()
}

// New initializes the controller and fires the initial selection once.
func New[T any](items []T, onSelect func(index int, item T), opts ...Option) *Controller[T] {
	o := options{
		clock:          RealClock,
		cadence:        DefaultCadence,
		cooldownFactor: DefaultCooldownFactor,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if onSelect == nil {
		onSelect = func(int, T) {}
	}
	c := &Controller[T]{
		opts:     o,
		items:    append([]T(nil), items...),
		onSelect: onSelect,
	}

	c.mu.Lock()
	state, effects := Start(len(c.items))
	c.apply(state, effects)
	c.mu.Unlock()

	if o.pauseSource != nil {
		unsub := o.pauseSource(c.SetPaused)
		c.mu.Lock()
		if c.state.Stopped {
			c.mu.Unlock()
			if unsub != nil {
				unsub()
			}
			return c
		}
		c.unsubscribe = unsub
		c.mu.Unlock()
	}
	return c
}

func (c *Controller[T]) Cadence() time.Duration {
	return c.opts.cadence
}

func (c *Controller[T]) Cooldown() time.Duration {
	return c.opts.cadence * time.Duration(c.opts.cooldownFactor)
}

func (c *Controller[T]) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(c.state.Next(c.opts.clock.Now()))
}

func (c *Controller[T]) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(c.state.Prev(c.opts.clock.Now()))
}

// GoTo jumps to index. Out-of-range indexes are rejected and reported as
// false.
func (c *Controller[T]) GoTo(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, effects, ok := c.state.GoTo(index, c.opts.clock.Now())
	if !ok {
		c.opts.logger.Debug("rotation goto rejected", "index", index, "length", c.state.Length)
		return false
	}
	c.apply(state, effects)
	return true
}

func (c *Controller[T]) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(c.state.SetPaused(paused))
}

// SetItems replaces the sequence, re-clamps the index and re-selects the
// current item. An empty sequence stops the controller.
func (c *Controller[T]) SetItems(items []T) {
	c.mu.Lock()
	state, effects := c.state.Resize(len(items))
	if !c.state.Stopped {
		c.items = append([]T(nil), items...)
	}
	c.apply(state, effects)
	unsub := c.takeUnsubscribeIfStopped()
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Teardown cancels all timers and releases the pause source.
func (c *Controller[T]) Teardown() {
	c.mu.Lock()
	c.apply(c.state.Stop())
	unsub := c.takeUnsubscribeIfStopped()
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T]) Current() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if c.state.Stopped || c.state.Index >= len(c.items) {
		return zero, false
	}
	return c.items[c.state.Index], true
}

// Items returns a copy of the current sequence.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Controller[T]) takeUnsubscribeIfStopped() func() {
	if !c.state.Stopped {
		return nil
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	return unsub
}

// apply must be called with c.mu held.
func (c *Controller[T]) apply(state State, effects []Effect) {
	c.state = state
	for _, e := range effects {
		switch e.Kind {
		case EffectCancelTimers:
			c.cancelTimer()
		case EffectArmAdvance:
			c.arm(c.opts.cadence, c.onAdvance)
		case EffectArmCooldown:
			c.arm(c.Cooldown(), c.onCooldown)
		case EffectSelect:
			if e.Index >= 0 && e.Index < len(c.items) {
				c.onSelect(e.Index, c.items[e.Index])
			}
		}
	}
	if state.Stopped {
		c.cancelTimer()
	}
}

// arm replaces whichever timer is armed; only one exists at a time.
func (c *Controller[T]) arm(d time.Duration, fire func(gen uint64)) {
	c.cancelTimer()
	gen := c.timerGen
	c.timer = c.opts.clock.AfterFunc(d, func() { fire(gen) })
}

func (c *Controller[T]) cancelTimer() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller[T]) onAdvance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen {
		return
	}
	c.timer = nil
	c.apply(c.state.Tick())
}

func (c *Controller[T]) onCooldown(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen {
		return
	}
	c.timer = nil
	c.apply(c.state.CooldownExpired())
}
