// Package engine - battery_meter.go
// Flashlight battery. Drains only while the flashlight is equipped and on;
// running dry switches the flashlight off through its owner.
package engine

import (
	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/rules"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// Causes attached to battery changes.
const (
	CauseDrain    = "DRAIN"
	CauseRecharge = "RECHARGE"
)

const actorBattery = "SYSTEM_BATTERY"

// BatteryMeter holds the flashlight charge.
type BatteryMeter struct {
	bus    *events.Bus
	logger *logger.Logger
	owner  FlashlightState

	current float64
	max     float64
	step    float64

	drain *Routine
}

// NewBatteryMeter creates the battery at cfg.Start. Drain stays disarmed until
// an owner is attached and switched on.
func NewBatteryMeter(cfg config.BatteryConfig, sched *Scheduler, bus *events.Bus, log *logger.Logger) *BatteryMeter {
	b := &BatteryMeter{
		bus:    bus,
		logger: log,
		max:    cfg.Max,
		step:   cfg.DrainAmount,
	}
	if b.step < 0 {
		b.step = 0
	}
	b.current = rules.ClampFloat(cfg.Start, 0, b.max)
	b.drain = sched.Every("battery-drain", cfg.DrainInterval, b.shouldDrain, func() {
		b.apply(b.current-b.step, CauseDrain)
	})
	return b
}

// SetOwner attaches the equipment whose flags gate draining.
func (b *BatteryMeter) SetOwner(owner FlashlightState) {
	b.owner = owner
	b.Resume()
}

// Current returns the charge.
func (b *BatteryMeter) Current() float64 { return b.current }

// Max returns the capacity.
func (b *BatteryMeter) Max() float64 { return b.max }

// IsEmpty reports whether the charge is zero.
func (b *BatteryMeter) IsEmpty() bool { return b.current <= 0 }

// Draining reports whether the drain routine is armed.
func (b *BatteryMeter) Draining() bool { return b.drain.Armed() }

func (b *BatteryMeter) shouldDrain() bool {
	return b.owner != nil && b.owner.IsEquipped() && b.owner.IsSwitchedOn() && b.current > 0
}

// Resume arms draining when all gating conditions hold. Idempotent.
func (b *BatteryMeter) Resume() {
	if b.shouldDrain() {
		b.drain.Arm()
	}
}

// Recharge adds charge, clamped to max. It never switches the flashlight back on.
func (b *BatteryMeter) Recharge(amount float64) {
	if amount < 0 {
		amount = 0
	}
	b.apply(b.current+amount, CauseRecharge)
}

// SetBattery is the debug entry point, clamped to [0, max].
func (b *BatteryMeter) SetBattery(value float64) {
	b.apply(value, CauseDebug)
}

func (b *BatteryMeter) apply(target float64, cause string) {
	prev := b.current
	next := rules.ClampFloat(target, 0, b.max)
	if next == prev {
		return
	}
	b.current = next

	batch := []events.GameEvent{{
		Type:    events.EventTypeBatteryChanged,
		ActorID: actorBattery,
		Payload: events.BatteryChangePayload{Current: next, Max: b.max},
	}}

	switch rules.ZeroCrossing(prev, next) {
	case rules.CrossingDepleted:
		b.drain.Disarm()
		if b.owner != nil {
			b.owner.ForceOff()
		}
		b.logger.Warn("battery depleted", "cause", cause)
		batch = append(batch, events.GameEvent{
			Type:    events.EventTypeBatteryDepleted,
			ActorID: actorBattery,
			Payload: events.ZeroCrossingPayload{Resource: "battery", Value: 0},
		})
	case rules.CrossingRestored:
		b.logger.Info("battery restored", "value", next, "cause", cause)
		batch = append(batch, events.GameEvent{
			Type:    events.EventTypeBatteryRestored,
			ActorID: actorBattery,
			Payload: events.ZeroCrossingPayload{Resource: "battery", Value: next},
		})
	}

	b.bus.PublishBatch(batch...)
}
