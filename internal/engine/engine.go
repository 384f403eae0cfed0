package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/item"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

const actorEngine = "SYSTEM_ENGINE"

// Engine is the central orchestrator. It builds every component, wires their
// bus subscriptions in a fixed order and serializes all access behind one lock.
type Engine struct {
	mu     sync.Mutex
	cfg    config.Config
	bus    *events.Bus
	logger *logger.Logger
	ticker *Ticker
	sched  *Scheduler
	rng    *rand.Rand
	nav    NavSampler

	// Sub-systems
	sanity      *SanityMeter
	lighting    *LightingSystem
	lightSwitch *LightSwitch
	generator   *GeneratorGate
	crowd       *CrowdFreeze
	antagonist  *AntagonistSystem
	battery     *BatteryMeter
	flashlight  *Flashlight
	inventory   *item.Inventory

	// State
	steppers []Stepper
	patients map[string]*Patient
	ticks    uint64
}

// NewEngine initializes the core systems. Collaborators may be partially nil.
func NewEngine(cfg *config.Config, bus *events.Bus, c Collaborators, log *logger.Logger) *Engine {
	seed := cfg.Tick.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sched := NewScheduler()
	bus.SetClock(sched.Now)

	e := &Engine{
		cfg:       *cfg,
		bus:       bus,
		logger:    log,
		sched:     sched,
		rng:       rand.New(rand.NewSource(seed)),
		nav:       c.Nav,
		inventory: item.NewInventory(),
		patients:  make(map[string]*Patient),
	}

	e.sanity = NewSanityMeter(cfg.Sanity, sched, bus, log.With("sanity"))
	e.lighting = NewLightingSystem(e.sanity, bus, log.With("lighting"))
	e.lightSwitch = NewLightSwitch(e.sanity, e.lighting, bus, log.With("switch"))
	e.generator = NewGeneratorGate(cfg.Generator, e.sanity, e.lighting, c.Sequence, sched, bus, log.With("generator"))
	e.crowd = NewCrowdFreeze(bus, log.With("crowd"))

	detector := NewDetector(cfg.Antagonist.Detection, cfg.Antagonist.HearingRange,
		cfg.Antagonist.SightRange, cfg.Antagonist.FieldOfView, c.Sight)
	e.antagonist = NewAntagonistSystem(cfg.Antagonist, detector, c, sched, e.rng, bus, log.With("antagonist"))

	e.battery = NewBatteryMeter(cfg.Battery, sched, bus, log.With("battery"))
	e.flashlight = NewFlashlight(e.battery, bus, log.With("flashlight"))
	e.ticker = NewTicker(e, cfg.Tick.Interval, log.With("ticker"))

	e.wire()
	e.reconcile()
	return e
}

// wire registers subscriptions. Order is delivery order: lighting, crowd,
// antagonist, generator. Presentation sinks subscribe later with SubscribeAll.
func (e *Engine) wire() {
	e.bus.Subscribe(events.EventTypeSanityThreshold, e.lighting.OnSanityThreshold)
	e.bus.Subscribe(events.EventTypeSanityDepleted, e.lighting.OnSanityDepleted)

	e.bus.Subscribe(events.EventTypeSanityDepleted, e.crowd.OnSanityDepleted)
	e.bus.Subscribe(events.EventTypeSanityRestored, e.crowd.OnSanityRestored)

	e.bus.Subscribe(events.EventTypeSanityDepleted, e.antagonist.OnSanityDepleted)
	e.bus.Subscribe(events.EventTypeSanityRestored, e.antagonist.OnSanityRestored)

	e.bus.Subscribe(events.EventTypeSanityDepleted, e.generator.OnSanityDepleted)
}

// reconcile applies the zero-sanity state when a session starts depleted.
func (e *Engine) reconcile() {
	if !e.sanity.IsDepleted() {
		return
	}
	e.logger.Warn("session starts with zero sanity")
	e.crowd.OnThresholdZero()
	e.antagonist.SetActive(true)
}

// Start spawns the real-time ticker.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting ward engine...", "tick", e.cfg.Tick.Interval.String())
	go e.ticker.Start(ctx)
}

// OnTick installs an observer called with the wall-clock cost of every
// real-time tick. Must be called before Start.
func (e *Engine) OnTick(fn func(latency time.Duration)) {
	e.ticker.onTick = fn
}

// Stop halts the ticker.
func (e *Engine) Stop() {
	e.ticker.Stop()
}

// Do runs fn under the engine lock. Every access from outside the tick thread
// goes through here.
func (e *Engine) Do(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Tick advances the simulation by dt: external steppers, timed routines, then
// the per-tick AI updates.
func (e *Engine) Tick(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.sched.Now()
	for _, s := range e.steppers {
		s.Step(dt)
	}
	e.sched.Advance(dt)
	e.antagonist.Update()
	e.crowd.Update()
	e.ticks++

	// Heartbeat once per simulated second
	if now := e.sched.Now(); now/time.Second != before/time.Second {
		e.bus.Publish(events.GameEvent{
			Type:    events.EventTypeTimeTick,
			ActorID: actorEngine,
			Payload: events.TimeTickPayload{TickNumber: e.ticks, SimSeconds: now.Seconds()},
		})
	}
}

// AddStepper registers an external simulation hook.
func (e *Engine) AddStepper(s Stepper) {
	e.Do(func() { e.steppers = append(e.steppers, s) })
}

// SpawnPatient creates a patient driven by mover and registers it with the crowd.
func (e *Engine) SpawnPatient(id string, mover Mover) *Patient {
	var p *Patient
	e.Do(func() {
		p = NewPatient(id, mover, e.nav, e.crowd, e.sched, e.cfg.Patients, e.rng, e.logger.With("patient"))
		e.patients[id] = p
	})
	return p
}

// DespawnPatient destroys a patient. Unknown ids are ignored.
func (e *Engine) DespawnPatient(id string) {
	e.Do(func() {
		if p, ok := e.patients[id]; ok {
			p.Destroy()
			delete(e.patients, id)
		}
	})
}

// ActivateGenerator asks the generator to start.
func (e *Engine) ActivateGenerator() (err error) {
	e.Do(func() { err = e.generator.Activate() })
	return err
}

// UseSwitch flips the wall switch.
func (e *Engine) UseSwitch() (err error) {
	e.Do(func() { err = e.lightSwitch.Interact() })
	return err
}

// EquipFlashlight puts the flashlight in hand.
func (e *Engine) EquipFlashlight() {
	e.Do(e.flashlight.Equip)
}

// UnequipFlashlight puts the flashlight away.
func (e *Engine) UnequipFlashlight() {
	e.Do(e.flashlight.Unequip)
}

// ToggleFlashlight flips the flashlight switch.
func (e *Engine) ToggleFlashlight() (err error) {
	e.Do(func() { err = e.flashlight.Toggle() })
	return err
}

// GivePickup adds an item to the player's inventory.
func (e *Engine) GivePickup(t item.ItemType) (err error) {
	e.Do(func() {
		if err = e.inventory.Add(t); err != nil {
			reject(e.bus, e.logger, actorEngine, "PICKUP:"+string(t), err)
		}
	})
	return err
}

// UsePickup consumes one carried item and applies its effect.
func (e *Engine) UsePickup(t item.ItemType) (err error) {
	e.Do(func() { err = e.usePickup(t) })
	return err
}

func (e *Engine) usePickup(t item.ItemType) error {
	request := "USE:" + string(t)
	def, ok := item.GetItem(t)
	if !ok {
		reject(e.bus, e.logger, actorEngine, request, item.ErrUnknownItem)
		return item.ErrUnknownItem
	}
	if !e.inventory.Has(t) {
		reject(e.bus, e.logger, actorEngine, request, item.ErrNotCarried)
		return item.ErrNotCarried
	}

	// A full meter keeps the item in the inventory
	switch {
	case def.Effect == item.EffectSanity && e.sanity.Current() >= e.sanity.Max(),
		def.Effect == item.EffectBattery && e.battery.Current() >= e.battery.Max():
		reject(e.bus, e.logger, actorEngine, request, ErrNoEffect)
		return ErrNoEffect
	}

	switch {
	case def.Effect == item.EffectSanity:
		e.sanity.increase(int(def.Amount), CausePickup)
	case def.Effect == item.EffectBattery:
		e.battery.Recharge(def.Amount)
	case t == item.ItemGeneratorFuse:
		// The fuse is only spent when the generator accepts it
		if err := e.generator.Activate(); err != nil {
			return fmt.Errorf("fuse: %w", err)
		}
	default:
		reject(e.bus, e.logger, actorEngine, request, ErrNoEffect)
		return ErrNoEffect
	}

	if _, err := e.inventory.Take(t); err != nil {
		return err
	}
	e.bus.Publish(events.GameEvent{
		Type:    events.EventTypePickupUsed,
		ActorID: actorEngine,
		Payload: events.PickupPayload{Item: string(t), Amount: def.Amount},
	})
	return nil
}

// SetSanity is the debug setter for the sanity meter.
func (e *Engine) SetSanity(v int) {
	e.Do(func() { e.sanity.SetSanity(v) })
}

// SetBattery is the debug setter for the battery.
func (e *Engine) SetBattery(v float64) {
	e.Do(func() { e.battery.SetBattery(v) })
}

// ForceActivateGenerator is the debug generator start.
func (e *Engine) ForceActivateGenerator() (err error) {
	e.Do(func() { err = e.generator.ForceActivate() })
	return err
}

// ResetGenerator is the debug generator reset.
func (e *Engine) ResetGenerator() {
	e.Do(e.generator.ResetGenerator)
}

// Bus exposes the event bus for presentation sinks.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Accessors below return live components; use them inside Do.

func (e *Engine) Sanity() *SanityMeter { return e.sanity }
func (e *Engine) Lighting() *LightingSystem { return e.lighting }
func (e *Engine) Switch() *LightSwitch { return e.lightSwitch }
func (e *Engine) Generator() *GeneratorGate { return e.generator }
func (e *Engine) Crowd() *CrowdFreeze { return e.crowd }
func (e *Engine) Antagonist() *AntagonistSystem { return e.antagonist }
func (e *Engine) Battery() *BatteryMeter { return e.battery }
func (e *Engine) Flashlight() *Flashlight { return e.flashlight }
func (e *Engine) Inventory() *item.Inventory { return e.inventory }
func (e *Engine) Scheduler() *Scheduler { return e.sched }
