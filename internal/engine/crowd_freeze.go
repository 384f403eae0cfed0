// Package engine - crowd_freeze.go
// Freezes every registered non-player actor while sanity is at zero.
package engine

import (
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

const actorCrowd = "SYSTEM_CROWD"

// Freezable is an actor whose autonomous behavior can be suspended.
// Freeze and Unfreeze must be idempotent.
type Freezable interface {
	ID() string
	Freeze()
	Unfreeze()
}

// updater is implemented by members that act every tick.
type updater interface {
	Update()
}

// CrowdFreeze is the registry of freezable actors.
type CrowdFreeze struct {
	bus    *events.Bus
	logger *logger.Logger

	members []Freezable
	index   map[string]int
	frozen  bool
}

// NewCrowdFreeze creates an empty, unfrozen registry.
func NewCrowdFreeze(bus *events.Bus, log *logger.Logger) *CrowdFreeze {
	return &CrowdFreeze{
		bus:    bus,
		logger: log,
		index:  make(map[string]int),
	}
}

// Frozen reports the crowd-wide freeze flag.
func (c *CrowdFreeze) Frozen() bool { return c.frozen }

// Len returns the number of registered members.
func (c *CrowdFreeze) Len() int { return len(c.members) }

// Members returns a copy of the registered actors.
func (c *CrowdFreeze) Members() []Freezable {
	out := make([]Freezable, len(c.members))
	copy(out, c.members)
	return out
}

// Register adds an actor and applies the current freeze state to it.
func (c *CrowdFreeze) Register(f Freezable) {
	if _, ok := c.index[f.ID()]; ok {
		return
	}
	c.index[f.ID()] = len(c.members)
	c.members = append(c.members, f)
	if c.frozen {
		f.Freeze()
	}
}

// Unregister removes an actor. Unknown actors are ignored.
func (c *CrowdFreeze) Unregister(f Freezable) {
	i, ok := c.index[f.ID()]
	if !ok {
		return
	}
	c.members = append(c.members[:i], c.members[i+1:]...)
	delete(c.index, f.ID())
	for j := i; j < len(c.members); j++ {
		c.index[c.members[j].ID()] = j
	}
}

// OnThresholdZero freezes every member.
func (c *CrowdFreeze) OnThresholdZero() {
	for _, m := range c.members {
		m.Freeze()
	}
	if c.frozen {
		return
	}
	c.frozen = true
	c.announce()
}

// OnThresholdRestored unfreezes every member, which resumes its own behavior.
func (c *CrowdFreeze) OnThresholdRestored() {
	for _, m := range c.members {
		m.Unfreeze()
	}
	if !c.frozen {
		return
	}
	c.frozen = false
	c.announce()
}

// OnSanityDepleted is the bus hook for the zero crossing.
func (c *CrowdFreeze) OnSanityDepleted(events.GameEvent) { c.OnThresholdZero() }

// OnSanityRestored is the bus hook for the restoring crossing.
func (c *CrowdFreeze) OnSanityRestored(events.GameEvent) { c.OnThresholdRestored() }

// Update ticks every member that acts on its own. Frozen crowds do nothing.
func (c *CrowdFreeze) Update() {
	if c.frozen {
		return
	}
	for _, m := range c.Members() {
		if u, ok := m.(updater); ok {
			u.Update()
		}
	}
}

func (c *CrowdFreeze) announce() {
	state := "released"
	if c.frozen {
		state = "frozen"
	}
	c.logger.Event("CROWD_FREEZE", actorCrowd, state)
	c.bus.Publish(events.GameEvent{
		Type:    events.EventTypeCrowdFreeze,
		ActorID: actorCrowd,
		Payload: events.CrowdFreezePayload{Frozen: c.frozen, Members: len(c.members)},
	})
}
