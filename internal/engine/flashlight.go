package engine

import (
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

const actorFlashlight = "PLAYER_FLASHLIGHT"

// Flashlight is the player's equipment. It owns the equipped and switched-on
// flags the battery observes.
type Flashlight struct {
	bus     *events.Bus
	logger  *logger.Logger
	battery *BatteryMeter

	equipped   bool
	switchedOn bool
}

// NewFlashlight creates an unequipped flashlight and attaches it to battery.
func NewFlashlight(battery *BatteryMeter, bus *events.Bus, log *logger.Logger) *Flashlight {
	f := &Flashlight{bus: bus, logger: log, battery: battery}
	battery.SetOwner(f)
	return f
}

// IsEquipped implements FlashlightState.
func (f *Flashlight) IsEquipped() bool { return f.equipped }

// IsSwitchedOn implements FlashlightState.
func (f *Flashlight) IsSwitchedOn() bool { return f.switchedOn }

// Equip puts the flashlight in hand, keeping its switch position.
func (f *Flashlight) Equip() {
	if f.equipped {
		return
	}
	f.equipped = true
	f.announce()
	f.battery.Resume()
}

// Unequip puts the flashlight away and switches it off.
func (f *Flashlight) Unequip() {
	if !f.equipped {
		return
	}
	f.equipped = false
	f.switchedOn = false
	f.announce()
}

// Toggle flips the switch. Turning on needs the flashlight in hand and charge left.
func (f *Flashlight) Toggle() error {
	if !f.equipped {
		reject(f.bus, f.logger, actorFlashlight, "TOGGLE", ErrNotEquipped)
		return ErrNotEquipped
	}
	if !f.switchedOn && f.battery.IsEmpty() {
		reject(f.bus, f.logger, actorFlashlight, "TOGGLE", ErrBatteryEmpty)
		return ErrBatteryEmpty
	}
	f.switchedOn = !f.switchedOn
	f.announce()
	if f.switchedOn {
		f.battery.Resume()
	}
	return nil
}

// ForceOff implements FlashlightState. Called by the battery when it runs dry.
func (f *Flashlight) ForceOff() {
	if !f.switchedOn {
		return
	}
	f.switchedOn = false
	f.announce()
}

func (f *Flashlight) announce() {
	f.bus.Publish(events.GameEvent{
		Type:    events.EventTypeFlashlightChanged,
		ActorID: actorFlashlight,
		Payload: events.FlashlightPayload{Equipped: f.equipped, SwitchedOn: f.switchedOn},
	})
}
