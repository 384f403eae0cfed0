package engine

import (
	"testing"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

type fakeMember struct {
	id       string
	frozen   bool
	freezes  int
	unfreeze int
}

func (f *fakeMember) ID() string { return f.id }
func (f *fakeMember) Freeze() {
	f.freezes++
	f.frozen = true
}
func (f *fakeMember) Unfreeze() {
	f.unfreeze++
	f.frozen = false
}

func TestRegisterReconcilesFreeze(t *testing.T) {
	c := NewCrowdFreeze(events.NewBus(nil), logger.NewNop())
	a := &fakeMember{id: "a"}
	c.Register(a)

	c.OnThresholdZero()
	if !a.frozen {
		t.Fatal("member not frozen")
	}

	late := &fakeMember{id: "late"}
	c.Register(late)
	if !late.frozen {
		t.Fatal("late member not reconciled onto frozen crowd")
	}

	c.OnThresholdRestored()
	if a.frozen || late.frozen {
		t.Fatal("members still frozen after restore")
	}
}

func TestUnregisterAndDuplicates(t *testing.T) {
	c := NewCrowdFreeze(events.NewBus(nil), logger.NewNop())
	a, b := &fakeMember{id: "a"}, &fakeMember{id: "b"}
	c.Register(a)
	c.Register(a)
	c.Register(b)
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}

	c.Unregister(a)
	c.Unregister(a)
	c.OnThresholdZero()
	if a.frozen {
		t.Error("unregistered member was frozen")
	}
	if !b.frozen || c.Len() != 1 {
		t.Errorf("b frozen=%v len=%d", b.frozen, c.Len())
	}
}

func TestFreezeAnnouncedOncePerEdge(t *testing.T) {
	bus := events.NewBus(nil)
	rec := record(bus)
	c := NewCrowdFreeze(bus, logger.NewNop())

	c.OnThresholdZero()
	c.OnThresholdZero()
	c.OnThresholdRestored()
	c.OnThresholdRestored()

	if n := rec.count(events.EventTypeCrowdFreeze); n != 2 {
		t.Errorf("crowd freeze events = %d, want 2", n)
	}
}

func TestPatientsStopAndResume(t *testing.T) {
	r := newRig(t, nil)
	patients := r.spawnPatients(3)
	r.advance(2 * time.Second)

	r.sanity.SetSanity(0)
	r.advance(time.Second)
	for _, p := range patients {
		if !p.IsFrozen() {
			t.Fatalf("patient %s not frozen", p.ID())
		}
		if p.mover.RemainingDistance() != 0 {
			t.Fatalf("patient %s still has a path", p.ID())
		}
	}

	r.sanity.SetSanity(20)
	moving := 0
	for _, p := range patients {
		if p.IsFrozen() {
			t.Fatalf("patient %s still frozen", p.ID())
		}
		if p.hasTarget {
			moving++
		}
	}
	if moving == 0 {
		t.Error("no patient re-engaged wandering after unfreeze")
	}
	r.checkCoupling(t)
}

func TestPatientDestroyUnregisters(t *testing.T) {
	r := newRig(t, nil)
	r.spawnPatients(2)
	r.DespawnPatient("A")
	if r.crowd.Len() != 1 {
		t.Errorf("crowd size = %d, want 1", r.crowd.Len())
	}
}

func TestPatientStandsStillWhileWaiting(t *testing.T) {
	r := newRig(t, nil)
	p := r.spawnPatients(1)[0]

	for i := 0; i < 600 && !p.wait.Armed(); i++ {
		r.Tick(testStep)
	}
	if !p.wait.Armed() {
		t.Fatal("patient never reached a wander point")
	}
	if p.mover.RemainingDistance() != 0 {
		t.Fatalf("patient waiting with %v left to walk", p.mover.RemainingDistance())
	}

	stop := p.mover.Position()
	r.Tick(testStep)
	if p.mover.Position() != stop {
		t.Errorf("patient walked from %v to %v during its wait", stop, p.mover.Position())
	}
}
