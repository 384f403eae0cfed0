// Package engine - lighting_system.go
// Ward lighting with a sticky generator override.
//
// Three channels request transitions through Request:
//   - automatic: threshold policy driven by sanity notifications
//   - generator: forced on, sets the override
//   - switch: plain on/off, never touches the override
//
// Zero sanity wins over every channel: lights off, override cleared.
package engine

import (
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// LightSource identifies who asked for a lighting transition.
type LightSource string

const (
	SourceAutomatic LightSource = "AUTOMATIC"
	SourceGenerator LightSource = "GENERATOR"
	SourceSwitch    LightSource = "SWITCH"
)

const actorLighting = "SYSTEM_LIGHTING"

// LightRequest is a single transition request.
type LightRequest struct {
	On     bool
	Force  bool
	Source LightSource
}

// LightingSystem owns the two lighting flags. Nothing else writes them.
type LightingSystem struct {
	bus    *events.Bus
	logger *logger.Logger
	sanity *SanityMeter

	lightsOn       bool
	overrideActive bool
}

// NewLightingSystem creates the controller with lights matching the current sanity.
func NewLightingSystem(sanity *SanityMeter, bus *events.Bus, log *logger.Logger) *LightingSystem {
	return &LightingSystem{
		bus:      bus,
		logger:   log,
		sanity:   sanity,
		lightsOn: !sanity.IsDepleted() && !sanity.BelowThreshold(),
	}
}

// AreLightsOn reports the current lighting state. Consumers must re-poll.
func (ls *LightingSystem) AreLightsOn() bool { return ls.lightsOn }

// OverrideActive reports whether the generator override pins the lights.
func (ls *LightingSystem) OverrideActive() bool { return ls.overrideActive }

// SetLights is the automatic/generator entry point.
func (ls *LightingSystem) SetLights(on, force bool) bool {
	src := SourceAutomatic
	if force && on {
		src = SourceGenerator
	}
	return ls.Request(LightRequest{On: on, Force: force, Source: src})
}

// Request applies a transition. Returns false when the request was refused.
func (ls *LightingSystem) Request(req LightRequest) bool {
	on, override := ls.lightsOn, ls.overrideActive

	switch {
	case req.On && ls.sanity.IsDepleted():
		ls.logger.Debug("light request refused at zero sanity", "source", req.Source)
		return false
	case req.Source == SourceSwitch:
		on = req.On
	case req.Force:
		on = req.On
		override = req.On
	default:
		if !req.On && ls.overrideActive {
			ls.logger.Debug("automatic lights-off ignored, override active")
			return false
		}
		on = req.On
		if req.On {
			override = false
		}
	}

	if on == ls.lightsOn && override == ls.overrideActive {
		return true
	}
	ls.lightsOn, ls.overrideActive = on, override

	ls.logger.Event("LIGHTS_CHANGED", actorLighting, string(req.Source))
	ls.bus.Publish(events.GameEvent{
		Type:    events.EventTypeLightsChanged,
		ActorID: actorLighting,
		Payload: events.LightsChangedPayload{
			On:             on,
			OverrideActive: override,
			Source:         string(req.Source),
		},
	})
	return true
}

// OnSanityThreshold applies the edge-triggered threshold policy.
func (ls *LightingSystem) OnSanityThreshold(ev events.GameEvent) {
	p, ok := ev.Payload.(events.ThresholdPayload)
	if !ok {
		ls.logger.Error("failed to parse ThresholdPayload", "event", ev.ID)
		return
	}
	if p.Below {
		// Zero is handled by the depletion path
		if p.Current > 0 {
			ls.SetLights(false, false)
		}
		return
	}
	ls.SetLights(true, false)
}

// OnSanityDepleted forces the lights off and clears the override.
func (ls *LightingSystem) OnSanityDepleted(events.GameEvent) {
	ls.SetLights(false, true)
}
