// Package engine - scheduler.go
// Timed routines on the simulation clock.
//
// A Routine is "armed until condition": it wakes after its interval, re-checks
// its condition and only then fires. A wakeup whose condition no longer holds
// disarms the routine and does nothing else. Every Advance also sweeps armed
// routines and disarms those whose condition has gone false, so a routine
// never outlives the state that justified it.
package engine

import (
	"math/rand"
	"time"
)

// Routine is a cancellable timed callback owned by a component.
type Routine struct {
	name     string
	interval time.Duration
	repeat   bool
	cond     func() bool
	fire     func()

	sched *Scheduler
	armed bool
	next  time.Duration
}

// Name returns the routine label used in logs.
func (r *Routine) Name() string { return r.name }

// Armed reports whether a wakeup is pending.
func (r *Routine) Armed() bool { return r.armed }

// Arm schedules the next wakeup one interval from now. Arming an armed routine is a no-op.
func (r *Routine) Arm() {
	if r.armed {
		return
	}
	r.ArmFor(r.interval)
}

// ArmFor schedules a wakeup after d, replacing any pending one.
func (r *Routine) ArmFor(d time.Duration) {
	if d <= 0 {
		d = time.Nanosecond
	}
	r.armed = true
	r.next = r.sched.now + d
}

// Disarm cancels the pending wakeup.
func (r *Routine) Disarm() {
	r.armed = false
}

// Remaining returns the time left until the next wakeup, or 0 when disarmed.
func (r *Routine) Remaining() time.Duration {
	if !r.armed {
		return 0
	}
	return r.next - r.sched.now
}

func (r *Routine) holds() bool {
	return r.cond == nil || r.cond()
}

// Scheduler owns the simulation clock and wakes routines in registration order.
type Scheduler struct {
	now      time.Duration
	routines []*Routine
}

// NewScheduler creates a scheduler at simulation time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the simulation clock.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Every registers a repeating routine. It starts disarmed.
func (s *Scheduler) Every(name string, interval time.Duration, cond func() bool, fire func()) *Routine {
	return s.add(name, interval, true, cond, fire)
}

// After registers a one-shot routine. It starts disarmed.
func (s *Scheduler) After(name string, delay time.Duration, cond func() bool, fire func()) *Routine {
	return s.add(name, delay, false, cond, fire)
}

func (s *Scheduler) add(name string, interval time.Duration, repeat bool, cond func() bool, fire func()) *Routine {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	r := &Routine{
		name:     name,
		interval: interval,
		repeat:   repeat,
		cond:     cond,
		fire:     fire,
		sched:    s,
	}
	s.routines = append(s.routines, r)
	return r
}

// Remove drops a routine permanently.
func (s *Scheduler) Remove(r *Routine) {
	r.armed = false
	for i, x := range s.routines {
		if x == r {
			s.routines = append(s.routines[:i], s.routines[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by dt, waking every due routine in time order.
// Routines due at the same instant wake in registration order.
func (s *Scheduler) Advance(dt time.Duration) {
	s.sweep()
	target := s.now + dt

	for {
		due, ok := s.earliest(target)
		if !ok {
			break
		}
		s.now = due
		n := len(s.routines)
		for i := 0; i < n && i < len(s.routines); i++ {
			r := s.routines[i]
			if r.armed && r.next == due {
				s.wake(r)
			}
		}
	}
	s.now = target
}

func (s *Scheduler) sweep() {
	for _, r := range s.routines {
		if r.armed && !r.holds() {
			r.armed = false
		}
	}
}

func (s *Scheduler) earliest(limit time.Duration) (time.Duration, bool) {
	found := false
	var first time.Duration
	for _, r := range s.routines {
		if !r.armed || r.next > limit {
			continue
		}
		if !found || r.next < first {
			first = r.next
			found = true
		}
	}
	return first, found
}

func (s *Scheduler) wake(r *Routine) {
	// Stale wakeup: the state that armed it is gone.
	if !r.holds() {
		r.armed = false
		return
	}
	if r.repeat {
		r.next += r.interval
	} else {
		r.armed = false
	}
	r.fire()
}

// randomWait returns a duration uniformly drawn from [lo, hi].
func randomWait(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Int63n(int64(hi-lo)+1))
}
