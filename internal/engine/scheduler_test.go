package engine

import (
	"testing"
	"time"
)

func TestRoutineRepeatsWhileConditionHolds(t *testing.T) {
	s := NewScheduler()
	budget := 3
	fired := 0
	r := s.Every("countdown", time.Second, func() bool { return budget > 0 }, func() {
		fired++
		budget--
	})
	r.Arm()

	s.Advance(10 * time.Second)

	if fired != 3 {
		t.Errorf("fired %d times, want 3", fired)
	}
	if r.Armed() {
		t.Error("routine still armed after its condition went false")
	}
}

func TestArmIsIdempotent(t *testing.T) {
	s := NewScheduler()
	fired := 0
	r := s.Every("tick", 2*time.Second, nil, func() { fired++ })
	r.Arm()
	s.Advance(time.Second)
	r.Arm() // must not push the wakeup back
	s.Advance(time.Second)

	if fired != 1 {
		t.Fatalf("fired %d, want 1 at t=2s", fired)
	}
}

func TestStaleWakeupIsNoOp(t *testing.T) {
	s := NewScheduler()
	valid := true
	fired := 0
	r := s.After("once", time.Second, func() bool { return valid }, func() { fired++ })
	r.Arm()

	valid = false
	s.Advance(2 * time.Second)
	if fired != 0 {
		t.Fatal("stale wakeup fired")
	}

	valid = true
	r.Arm()
	s.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("re-armed routine fired %d times, want 1", fired)
	}
}

func TestRoutinesWakeInTimeThenRegistrationOrder(t *testing.T) {
	s := NewScheduler()
	var order []string
	a := s.After("a", 2*time.Second, nil, func() { order = append(order, "a") })
	b := s.After("b", time.Second, nil, func() { order = append(order, "b") })
	c := s.After("c", 2*time.Second, nil, func() { order = append(order, "c") })
	a.Arm()
	b.Arm()
	c.Arm()

	s.Advance(5 * time.Second)

	want := "bac"
	got := ""
	for _, o := range order {
		got += o
	}
	if got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if s.Now() != 5*time.Second {
		t.Errorf("clock = %v, want 5s", s.Now())
	}
}

func TestDisarmCancels(t *testing.T) {
	s := NewScheduler()
	fired := false
	r := s.After("x", time.Second, nil, func() { fired = true })
	r.Arm()
	r.Disarm()
	s.Advance(3 * time.Second)
	if fired {
		t.Error("disarmed routine fired")
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining = %v, want 0", r.Remaining())
	}
}
