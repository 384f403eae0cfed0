package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
)

func TestSanityAlwaysClamped(t *testing.T) {
	r := newRig(t, nil)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 500; i++ {
		amount := rng.Intn(80) - 10
		if rng.Intn(2) == 0 {
			r.sanity.Decrease(amount)
		} else {
			r.sanity.Increase(amount)
		}
		if c := r.sanity.Current(); c < 0 || c > r.sanity.Max() {
			t.Fatalf("step %d: current %d outside [0,%d]", i, c, r.sanity.Max())
		}
	}
}

func TestDepletedFiresOncePerCrossing(t *testing.T) {
	r := newRig(t, nil)

	r.sanity.Decrease(500)
	r.sanity.Decrease(5)
	r.sanity.Decrease(5)
	r.sanity.SetSanity(0)

	if n := r.rec.count(events.EventTypeSanityDepleted); n != 1 {
		t.Fatalf("depleted fired %d times, want 1", n)
	}
	if n := r.rec.count(events.EventTypeSanityChanged); n != 1 {
		t.Errorf("changed fired %d times, want 1 (no-ops must be silent)", n)
	}

	r.sanity.Increase(10)
	r.sanity.Decrease(10)
	if n := r.rec.count(events.EventTypeSanityDepleted); n != 2 {
		t.Errorf("depleted fired %d times after second crossing, want 2", n)
	}
	if n := r.rec.count(events.EventTypeSanityRestored); n != 1 {
		t.Errorf("restored fired %d times, want 1", n)
	}
}

func TestNegativeAmountsAreNoOps(t *testing.T) {
	r := newRig(t, nil)
	before := r.sanity.Current()
	r.sanity.Decrease(-20)
	r.sanity.Increase(-20)
	if r.sanity.Current() != before {
		t.Fatalf("current = %d, want %d", r.sanity.Current(), before)
	}
	if len(r.rec.evs) != 0 {
		t.Errorf("published %d events for no-op calls", len(r.rec.evs))
	}
}

func TestDecayStopsAtZeroAndResumesOnRestore(t *testing.T) {
	r := newRig(t, nil)
	r.sanity.SetSanity(1)

	r.advance(2 * time.Second)
	if r.sanity.Current() != 0 {
		t.Fatalf("current = %d after one decay step, want 0", r.sanity.Current())
	}
	if r.sanity.Decaying() {
		t.Fatal("decay still armed at zero")
	}

	r.rec.reset()
	r.advance(10 * time.Second)
	if n := r.rec.count(events.EventTypeSanityChanged); n != 0 {
		t.Fatalf("sanity changed %d times while depleted", n)
	}

	r.sanity.Increase(5)
	if !r.sanity.Decaying() {
		t.Fatal("decay not resumed after restoring from zero")
	}
	r.advance(2 * time.Second)
	if r.sanity.Current() != 4 {
		t.Errorf("current = %d, want 4 after one step", r.sanity.Current())
	}
}

func TestResumeIsIdempotent(t *testing.T) {
	r := newRig(t, nil)
	r.advance(time.Second)
	left := r.sanity.NextDecayIn()

	r.sanity.Resume()
	r.sanity.Resume()
	if r.sanity.NextDecayIn() != left {
		t.Fatalf("Resume moved the next decay from %v to %v", left, r.sanity.NextDecayIn())
	}
}

func TestThresholdEventsOnEdgesOnly(t *testing.T) {
	r := newRig(t, nil)
	r.sanity.SetSanity(55)
	r.sanity.SetSanity(52)
	if n := r.rec.count(events.EventTypeSanityThreshold); n != 0 {
		t.Fatalf("threshold fired %d times above the threshold", n)
	}

	r.sanity.SetSanity(49)
	r.sanity.SetSanity(30)
	r.sanity.SetSanity(50)
	if n := r.rec.count(events.EventTypeSanityThreshold); n != 2 {
		t.Fatalf("threshold fired %d times, want 2", n)
	}
	ev, _ := r.rec.last(events.EventTypeSanityThreshold)
	if ev.Payload.(events.ThresholdPayload).Below {
		t.Error("last crossing should be upward")
	}
}
