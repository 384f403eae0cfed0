package engine

import (
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

const actorSwitch = "SYSTEM_SWITCH"

// LightSwitch is the manual control channel. It only works while the breaker
// holds: sanity at or above threshold, or the generator override is active.
type LightSwitch struct {
	bus      *events.Bus
	logger   *logger.Logger
	sanity   *SanityMeter
	lighting *LightingSystem
}

// NewLightSwitch creates a wall switch bound to the ward lighting.
func NewLightSwitch(sanity *SanityMeter, lighting *LightingSystem, bus *events.Bus, log *logger.Logger) *LightSwitch {
	return &LightSwitch{bus: bus, logger: log, sanity: sanity, lighting: lighting}
}

// Usable reports whether Interact would be accepted.
func (s *LightSwitch) Usable() error {
	if s.sanity.IsDepleted() {
		return ErrPowerFailure
	}
	if s.sanity.BelowThreshold() && !s.lighting.OverrideActive() {
		return ErrBreakerTripped
	}
	return nil
}

// Interact toggles the lights.
func (s *LightSwitch) Interact() error {
	if err := s.Usable(); err != nil {
		reject(s.bus, s.logger, actorSwitch, "TOGGLE", err)
		return err
	}
	s.lighting.Request(LightRequest{On: !s.lighting.AreLightsOn(), Source: SourceSwitch})
	return nil
}
