package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
)

func TestBatteryScenario(t *testing.T) {
	r := newRig(t, nil)
	r.flashlight.Equip()
	if err := r.flashlight.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	r.advance(6 * time.Second)
	if got := r.battery.Current(); got != 99 {
		t.Fatalf("after 6s battery = %v, want 99", got)
	}

	r.advance(594 * time.Second)
	if r.battery.Current() != 0 {
		t.Fatalf("after 600s battery = %v, want 0", r.battery.Current())
	}
	if r.flashlight.IsSwitchedOn() {
		t.Fatal("flashlight still on with an empty battery")
	}
	if n := r.rec.count(events.EventTypeBatteryDepleted); n != 1 {
		t.Fatalf("depleted fired %d times, want 1", n)
	}
	if r.battery.Draining() {
		t.Fatal("drain still armed at zero")
	}

	r.battery.Recharge(25)
	if r.battery.Current() != 25 {
		t.Fatalf("after recharge battery = %v, want 25", r.battery.Current())
	}
	r.battery.Recharge(10)
	if n := r.rec.count(events.EventTypeBatteryRestored); n != 1 {
		t.Fatalf("restored fired %d times, want 1", n)
	}
	if r.flashlight.IsSwitchedOn() {
		t.Error("recharge switched the flashlight back on")
	}
	r.advance(12 * time.Second)
	if r.battery.Current() != 35 {
		t.Errorf("battery drained while off: %v", r.battery.Current())
	}
}

func TestDrainGatedByEquipment(t *testing.T) {
	r := newRig(t, nil)

	r.advance(12 * time.Second)
	if r.battery.Current() != 100 {
		t.Fatalf("unequipped flashlight drained to %v", r.battery.Current())
	}

	r.flashlight.Equip()
	r.advance(12 * time.Second)
	if r.battery.Current() != 100 {
		t.Fatalf("switched-off flashlight drained to %v", r.battery.Current())
	}

	r.flashlight.Toggle()
	r.advance(6 * time.Second)
	r.flashlight.Unequip()
	r.advance(30 * time.Second)
	if r.battery.Current() != 99 {
		t.Errorf("battery = %v, want 99 (drain must stop once put away)", r.battery.Current())
	}
}

func TestToggleNeedsChargeAndHand(t *testing.T) {
	r := newRig(t, nil)
	if err := r.flashlight.Toggle(); !errors.Is(err, ErrNotEquipped) {
		t.Fatalf("err = %v, want ErrNotEquipped", err)
	}

	r.flashlight.Equip()
	r.battery.SetBattery(0)
	if err := r.flashlight.Toggle(); !errors.Is(err, ErrBatteryEmpty) {
		t.Fatalf("err = %v, want ErrBatteryEmpty", err)
	}

	r.battery.SetBattery(500)
	if r.battery.Current() != r.battery.Max() {
		t.Errorf("SetBattery not clamped: %v", r.battery.Current())
	}
}
