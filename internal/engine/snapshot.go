package engine

import (
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/item"
)

// Snapshot is a consistent read of every component, taken under the engine lock.
type Snapshot struct {
	SimTime time.Duration `json:"sim_time"`
	Ticks   uint64        `json:"ticks"`

	Sanity    int  `json:"sanity"`
	SanityMax int  `json:"sanity_max"`
	Threshold int  `json:"threshold"`
	Decaying  bool `json:"decaying"`

	LightsOn       bool   `json:"lights_on"`
	OverrideActive bool   `json:"override_active"`
	SwitchUsable   bool   `json:"switch_usable"`
	GeneratorPhase string `json:"generator_phase"`
	GeneratorReady bool   `json:"generator_ready"`

	CrowdFrozen     bool   `json:"crowd_frozen"`
	Patients        int    `json:"patients"`
	AntagonistState string `json:"antagonist_state"`
	AntagonistOn    bool   `json:"antagonist_active"`
	AntagonistMoves bool   `json:"antagonist_moving"`

	Battery    float64 `json:"battery"`
	BatteryMax float64 `json:"battery_max"`
	Equipped   bool    `json:"flashlight_equipped"`
	SwitchedOn bool    `json:"flashlight_on"`

	Inventory map[string]int `json:"inventory"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	var s Snapshot
	e.Do(func() { s = e.snapshot() })
	return s
}

func (e *Engine) snapshot() Snapshot {
	inv := make(map[string]int)
	for t := range item.Registry {
		if n := e.inventory.Count(t); n > 0 {
			inv[string(t)] = n
		}
	}
	return Snapshot{
		SimTime:         e.sched.Now(),
		Ticks:           e.ticks,
		Sanity:          e.sanity.Current(),
		SanityMax:       e.sanity.Max(),
		Threshold:       e.sanity.Threshold(),
		Decaying:        e.sanity.Decaying(),
		LightsOn:        e.lighting.AreLightsOn(),
		OverrideActive:  e.lighting.OverrideActive(),
		SwitchUsable:    e.lightSwitch.Usable() == nil,
		GeneratorPhase:  e.generator.Phase(),
		GeneratorReady:  e.generator.CanActivate(),
		CrowdFrozen:     e.crowd.Frozen(),
		Patients:        e.crowd.Len(),
		AntagonistState: e.antagonist.State().String(),
		AntagonistOn:    e.antagonist.Active(),
		AntagonistMoves: e.antagonist.IsMoving(),
		Battery:         e.battery.Current(),
		BatteryMax:      e.battery.Max(),
		Equipped:        e.flashlight.IsEquipped(),
		SwitchedOn:      e.flashlight.IsSwitchedOn(),
		Inventory:       inv,
	}
}
