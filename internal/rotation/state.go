// Package rotation drives the "current item" of a bounded sequence: timed
// auto-advance, pause while hovered, and manual navigation followed by a
// cooldown before auto-advance resumes.
//
// State holds the pure transition functions. Each returns the next state and
// the effects the caller must perform; Controller is the runtime that
// performs them with real (or fake) timers.
package rotation

import (
	"fmt"
	"time"
)

type Phase int

const (
	PhaseStopped Phase = iota
	PhaseRunning
	PhasePaused
	PhaseManualCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseManualCooldown:
		return "manual_cooldown"
	default:
		return "stopped"
	}
}

type EffectKind int

const (
	// EffectArmAdvance arms the advance timer for one full cadence.
	EffectArmAdvance EffectKind = iota + 1
	// EffectArmCooldown arms the cooldown timer.
	EffectArmCooldown
	// EffectCancelTimers disarms whichever timer is armed.
	EffectCancelTimers
	// EffectSelect reports Index as the current item.
	EffectSelect
)

type Effect struct {
	Kind  EffectKind
	Index int
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectArmAdvance:
		return "arm_advance"
	case EffectArmCooldown:
		return "arm_cooldown"
	case EffectCancelTimers:
		return "cancel_timers"
	case EffectSelect:
		return fmt.Sprintf("select(%d)", e.Index)
	default:
		return "unknown"
	}
}

func selectEffect(i int) Effect { return Effect{Kind: EffectSelect, Index: i} }

var (
	armAdvance   = Effect{Kind: EffectArmAdvance}
	armCooldown  = Effect{Kind: EffectArmCooldown}
	cancelTimers = Effect{Kind: EffectCancelTimers}
)

// State is a value; transitions never mutate the receiver.
type State struct {
	Index        int
	Length       int
	Paused       bool
	Cooldown     bool
	Stopped      bool
	LastManualAt time.Time
}

func (s State) Phase() Phase {
	switch {
	case s.Stopped:
		return PhaseStopped
	case s.Paused:
		return PhasePaused
	case s.Cooldown:
		return PhaseManualCooldown
	default:
		return PhaseRunning
	}
}

// advancing reports whether the advance timer should be armed.
func (s State) advancing() bool {
	return !s.Stopped && !s.Paused && !s.Cooldown && s.Length > 1
}

func Start(length int) (State, []Effect) {
	if length <= 0 {
		return State{Stopped: true}, nil
	}
	s := State{Length: length}
	effects := []Effect{selectEffect(0)}
	if s.advancing() {
		effects = append(effects, armAdvance)
	}
	return s, effects
}

// Tick handles the advance timer firing. Ticks outside the running phase
// are stale and ignored.
func (s State) Tick() (State, []Effect) {
	if !s.advancing() {
		return s, nil
	}
	s.Index = (s.Index + 1) % s.Length
	return s, []Effect{selectEffect(s.Index), armAdvance}
}

func (s State) SetPaused(paused bool) (State, []Effect) {
	if s.Stopped || s.Paused == paused {
		return s, nil
	}
	if paused {
		wasAdvancing := s.advancing()
		s.Paused = true
		if wasAdvancing {
			return s, []Effect{cancelTimers}
		}
		// A pending cooldown timer stays armed.
		return s, nil
	}
	s.Paused = false
	if s.advancing() {
		return s, []Effect{armAdvance}
	}
	return s, nil
}

func (s State) Next(now time.Time) (State, []Effect) {
	if s.Stopped || s.Length == 0 {
		return s, nil
	}
	return s.navigate((s.Index+1)%s.Length, now)
}

func (s State) Prev(now time.Time) (State, []Effect) {
	if s.Stopped || s.Length == 0 {
		return s, nil
	}
	return s.navigate((s.Index-1+s.Length)%s.Length, now)
}

// GoTo rejects indexes outside [0, Length) without touching the state.
func (s State) GoTo(index int, now time.Time) (State, []Effect, bool) {
	if s.Stopped || index < 0 || index >= s.Length {
		return s, nil, false
	}
	next, effects := s.navigate(index, now)
	return next, effects, true
}

func (s State) navigate(index int, now time.Time) (State, []Effect) {
	effects := []Effect{cancelTimers}
	if index != s.Index {
		s.Index = index
		effects = append(effects, selectEffect(index))
	}
	s.Cooldown = true
	s.LastManualAt = now
	return s, append(effects, armCooldown)
}

func (s State) CooldownExpired() (State, []Effect) {
	if s.Stopped || !s.Cooldown {
		return s, nil
	}
	s.Cooldown = false
	if s.advancing() {
		return s, []Effect{armAdvance}
	}
	return s, nil
}

// Resize re-validates the state against a replaced sequence.
func (s State) Resize(length int) (State, []Effect) {
	if s.Stopped {
		return s, nil
	}
	if length <= 0 {
		return s.Stop()
	}
	s.Length = length
	if s.Index >= length {
		s.Index = 0
	}
	effects := []Effect{selectEffect(s.Index)}
	if !s.Paused && !s.Cooldown {
		effects = append(effects, cancelTimers)
		if s.advancing() {
			effects = append(effects, armAdvance)
		}
	}
	return s, effects
}

func (s State) Stop() (State, []Effect) {
	if s.Stopped {
		return s, nil
	}
	return State{Index: s.Index, Stopped: true, LastManualAt: s.LastManualAt}, []Effect{cancelTimers}
}
