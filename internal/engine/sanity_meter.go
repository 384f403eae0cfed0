// Package engine - sanity_meter.go
// The primary resource pool. Decays on a timer while above zero and publishes
// change, threshold and zero-crossing notifications as one batch per mutation.
//
// This is the ONLY writer of the sanity value.
package engine

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/rules"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// Causes attached to sanity changes.
const (
	CauseDecay    = "DECAY"
	CauseDecrease = "DECREASE"
	CauseRestore  = "RESTORE"
	CausePickup   = "PICKUP"
	CauseDebug    = "DEBUG"
)

const actorSanity = "SYSTEM_SANITY"

// SanityMeter holds the player's sanity.
type SanityMeter struct {
	bus    *events.Bus
	logger *logger.Logger

	current   int
	max       int
	threshold int
	step      int

	decay *Routine
}

// NewSanityMeter creates the meter at cfg.Start and arms decay if it is above zero.
// No notification is published for the initial value.
func NewSanityMeter(cfg config.SanityConfig, sched *Scheduler, bus *events.Bus, log *logger.Logger) *SanityMeter {
	m := &SanityMeter{
		bus:       bus,
		logger:    log,
		max:       cfg.Max,
		threshold: cfg.Threshold,
		step:      rules.NonNegative(cfg.DecreaseAmount),
	}
	m.current = rules.ClampInt(cfg.Start, 0, m.max)
	m.decay = sched.Every("sanity-decay", cfg.DecreaseInterval,
		func() bool { return m.current > 0 },
		func() { m.apply(m.current-m.step, CauseDecay) },
	)
	m.Resume()
	return m
}

// Current returns the sanity value.
func (m *SanityMeter) Current() int { return m.current }

// Max returns the upper bound.
func (m *SanityMeter) Max() int { return m.max }

// Threshold returns the lighting threshold.
func (m *SanityMeter) Threshold() int { return m.threshold }

// IsDepleted reports whether sanity is exactly zero.
func (m *SanityMeter) IsDepleted() bool { return m.current == 0 }

// BelowThreshold reports whether sanity is strictly below the lighting threshold.
func (m *SanityMeter) BelowThreshold() bool { return m.current < m.threshold }

// Decaying reports whether the decay routine is armed.
func (m *SanityMeter) Decaying() bool { return m.decay.Armed() }

// NextDecayIn returns the time until the next decay step, 0 when not decaying.
func (m *SanityMeter) NextDecayIn() time.Duration { return m.decay.Remaining() }

// Decrease lowers sanity by amount, clamped at zero.
func (m *SanityMeter) Decrease(amount int) {
	m.apply(m.current-rules.NonNegative(amount), CauseDecrease)
}

// Increase raises sanity by amount, clamped at max.
func (m *SanityMeter) Increase(amount int) {
	m.increase(amount, CauseRestore)
}

func (m *SanityMeter) increase(amount int, cause string) {
	m.apply(m.current+rules.NonNegative(amount), cause)
}

// SetAbsolute sets sanity directly, clamped to [0, max].
func (m *SanityMeter) SetAbsolute(value int) {
	m.apply(value, CauseRestore)
}

// SetSanity is the debug entry point. Same semantics as SetAbsolute.
func (m *SanityMeter) SetSanity(value int) {
	m.apply(value, CauseDebug)
}

// Resume arms the decay routine if sanity is above zero. Idempotent.
func (m *SanityMeter) Resume() {
	if m.current > 0 {
		m.decay.Arm()
	}
}

// apply is the single mutation path. A clamped value equal to the current one
// publishes nothing.
func (m *SanityMeter) apply(target int, cause string) {
	prev := m.current
	next := rules.ClampInt(target, 0, m.max)
	if next == prev {
		return
	}
	m.current = next

	batch := []events.GameEvent{{
		Type:    events.EventTypeSanityChanged,
		ActorID: actorSanity,
		Payload: events.SanityChangePayload{
			Previous:  prev,
			Current:   next,
			Max:       m.max,
			Threshold: m.threshold,
			Delta:     next - prev,
			Cause:     cause,
		},
	}}

	if crossed, below := rules.ThresholdEdge(prev, next, m.threshold); crossed {
		batch = append(batch, events.GameEvent{
			Type:    events.EventTypeSanityThreshold,
			ActorID: actorSanity,
			Payload: events.ThresholdPayload{Below: below, Current: next, Threshold: m.threshold},
		})
	}

	switch rules.ZeroCrossing(float64(prev), float64(next)) {
	case rules.CrossingDepleted:
		m.decay.Disarm()
		m.logger.Warn("sanity depleted", "cause", cause)
		batch = append(batch, events.GameEvent{
			Type:    events.EventTypeSanityDepleted,
			ActorID: actorSanity,
			Payload: events.ZeroCrossingPayload{Resource: "sanity", Value: 0},
		})
	case rules.CrossingRestored:
		m.decay.Arm()
		m.logger.Info("sanity restored", "value", next, "cause", cause)
		batch = append(batch, events.GameEvent{
			Type:    events.EventTypeSanityRestored,
			ActorID: actorSanity,
			Payload: events.ZeroCrossingPayload{Resource: "sanity", Value: float64(next)},
		})
	}

	m.logger.Debug("sanity changed", "from", prev, "to", next, "cause", cause)
	m.bus.PublishBatch(batch...)
}

func (m *SanityMeter) String() string {
	return fmt.Sprintf("%d/%d", m.current, m.max)
}
