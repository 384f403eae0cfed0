// Package engine - generator_gate.go
// The emergency generator. Runs only while there is sanity left; once the
// start-up sequence completes it pins the lights on through the override.
package engine

import (
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// Generator phases as published in GeneratorPayload.
const (
	PhaseIdle       = "IDLE"
	PhaseActivating = "ACTIVATING"
	PhaseCooldown   = "COOLDOWN"
	PhaseSpent      = "SPENT"
)

const actorGenerator = "SYSTEM_GENERATOR"

// GeneratorGate gates the lighting override behind a timed activation.
type GeneratorGate struct {
	bus      *events.Bus
	logger   *logger.Logger
	sanity   *SanityMeter
	lighting *LightingSystem
	sequence ActivationSequence

	duration   time.Duration
	repeatable bool

	activating    bool
	onCooldown    bool
	spent         bool
	everActivated bool

	completion *Routine
	cooldown   *Routine
}

// NewGeneratorGate creates an idle generator. sequence may be nil.
func NewGeneratorGate(cfg config.GeneratorConfig, sanity *SanityMeter, lighting *LightingSystem,
	sequence ActivationSequence, sched *Scheduler, bus *events.Bus, log *logger.Logger) *GeneratorGate {
	g := &GeneratorGate{
		bus:        bus,
		logger:     log,
		sanity:     sanity,
		lighting:   lighting,
		sequence:   sequence,
		duration:   cfg.ActivationDuration,
		repeatable: cfg.Repeatable,
	}
	g.completion = sched.After("generator-activation", cfg.ActivationDuration,
		func() bool { return g.activating },
		g.complete,
	)
	g.cooldown = sched.After("generator-cooldown", cfg.Cooldown,
		func() bool { return g.onCooldown },
		g.ready,
	)
	return g
}

// Phase returns the current generator phase.
func (g *GeneratorGate) Phase() string {
	switch {
	case g.activating:
		return PhaseActivating
	case g.spent:
		return PhaseSpent
	case g.onCooldown:
		return PhaseCooldown
	default:
		return PhaseIdle
	}
}

// EverActivated reports whether an activation has ever completed.
func (g *GeneratorGate) EverActivated() bool { return g.everActivated }

// CanActivate reports whether Activate would be accepted.
func (g *GeneratorGate) CanActivate() bool {
	return g.eligibility() == nil
}

func (g *GeneratorGate) eligibility() error {
	switch {
	case g.sanity.IsDepleted():
		return ErrPowerFailure
	case g.activating:
		return ErrActivating
	case g.spent:
		return ErrSpent
	case g.onCooldown:
		return ErrOnCooldown
	}
	return nil
}

// Activate starts the activation sequence if eligible.
func (g *GeneratorGate) Activate() error {
	if err := g.eligibility(); err != nil {
		reject(g.bus, g.logger, actorGenerator, "ACTIVATE", err)
		return err
	}

	g.activating = true
	if g.sequence != nil {
		g.sequence.Play(g.duration)
	}
	g.completion.Arm()

	g.logger.Event("GENERATOR_STARTED", actorGenerator, g.duration.String())
	g.publish(events.EventTypeGeneratorStarted, false)
	return nil
}

func (g *GeneratorGate) complete() {
	g.activating = false
	// Sanity may have hit zero on the same instant the sequence finished
	if g.sanity.IsDepleted() {
		g.abort("power failure at completion")
		return
	}

	g.lighting.SetLights(true, true)
	g.everActivated = true
	if g.repeatable {
		g.onCooldown = true
		g.cooldown.Arm()
	} else {
		g.spent = true
	}

	g.logger.Event("GENERATOR_ACTIVATED", actorGenerator, g.Phase())
	g.publish(events.EventTypeGeneratorActivated, false)
}

func (g *GeneratorGate) ready() {
	g.onCooldown = false
	g.publish(events.EventTypeGeneratorReady, false)
}

func (g *GeneratorGate) abort(reason string) {
	g.activating = false
	g.completion.Disarm()
	g.logger.Warn("generator activation aborted", "reason", reason)
	g.publish(events.EventTypeGeneratorAborted, false)
}

// OnSanityDepleted aborts a running activation sequence.
func (g *GeneratorGate) OnSanityDepleted(events.GameEvent) {
	if g.activating {
		g.abort("sanity depleted")
	}
}

// ForceActivate is the debug entry point: lights on with override immediately,
// ignoring cooldown and spent state. It still refuses at zero sanity.
func (g *GeneratorGate) ForceActivate() error {
	if g.sanity.IsDepleted() {
		reject(g.bus, g.logger, actorGenerator, "FORCE_ACTIVATE", ErrPowerFailure)
		return ErrPowerFailure
	}
	g.activating = false
	g.completion.Disarm()
	g.lighting.SetLights(true, true)
	g.everActivated = true

	g.logger.Event("GENERATOR_ACTIVATED", actorGenerator, "forced")
	g.publish(events.EventTypeGeneratorActivated, true)
	return nil
}

// ResetGenerator clears every flag and pending routine. The lighting override is left alone.
func (g *GeneratorGate) ResetGenerator() {
	g.completion.Disarm()
	g.cooldown.Disarm()
	g.activating, g.onCooldown, g.spent, g.everActivated = false, false, false, false
	g.logger.Info("generator reset")
	g.publish(events.EventTypeGeneratorReady, true)
}

func (g *GeneratorGate) publish(t events.EventType, forced bool) {
	g.bus.Publish(events.GameEvent{
		Type:    t,
		ActorID: actorGenerator,
		Payload: events.GeneratorPayload{
			Phase:      g.Phase(),
			Forced:     forced,
			Repeatable: g.repeatable,
		},
	})
}
