package engine

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/sim"
)

const testStep = 100 * time.Millisecond

// recorder collects every event published on a bus.
type recorder struct {
	evs []events.GameEvent
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(func(ev events.GameEvent) { r.evs = append(r.evs, ev) })
	return r
}

func (r *recorder) count(t events.EventType) int {
	n := 0
	for _, ev := range r.evs {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *recorder) last(t events.EventType) (events.GameEvent, bool) {
	for i := len(r.evs) - 1; i >= 0; i-- {
		if r.evs[i].Type == t {
			return r.evs[i], true
		}
	}
	return events.GameEvent{}, false
}

func (r *recorder) reset() { r.evs = nil }

// rig is a full engine on an open 60x60 floor with the player far from the antagonist.
type rig struct {
	*Engine
	floor   *sim.Floor
	world   *sim.World
	monster *sim.Mover
	player  *sim.Player
	effects *sim.Effects
	rec     *recorder
}

func newRig(t *testing.T, tune func(*config.Config)) *rig {
	t.Helper()
	cfg := config.Default()
	cfg.Tick.Seed = 1
	if tune != nil {
		tune(cfg)
	}

	floor := sim.NewFloor(60, 60, 1)
	world := sim.NewWorld(floor)
	monster := sim.NewMover(r3.Vec{X: 10, Y: 10}, cfg.Antagonist.PatrolSpeed, floor)
	world.Add(monster)
	player := sim.NewPlayer(r3.Vec{X: 55, Y: 55})
	effects := sim.NewEffects(logger.NewNop())

	bus := events.NewBus(events.NewEventLog(nil))
	rec := record(bus)
	e := NewEngine(cfg, bus, Collaborators{
		AntagonistMover: monster,
		Nav:             floor,
		Player:          player,
		Sight:           floor,
		Sequence:        effects,
		Animator:        effects,
	}, logger.NewNop())
	e.AddStepper(world)

	return &rig{Engine: e, floor: floor, world: world, monster: monster, player: player, effects: effects, rec: rec}
}

// advance ticks the engine for d of simulated time.
func (r *rig) advance(d time.Duration) {
	for el := time.Duration(0); el < d; el += testStep {
		r.Tick(testStep)
	}
}

// spawnPatients adds n patients spread along the floor.
func (r *rig) spawnPatients(n int) []*Patient {
	var out []*Patient
	for i := 0; i < n; i++ {
		m := sim.NewMover(r3.Vec{X: 30 + float64(i)*3, Y: 30}, 1, r.floor)
		r.world.Add(m)
		out = append(out, r.SpawnPatient(string(rune('A'+i)), m))
	}
	return out
}

// checkCoupling asserts the quiescent invariants that must hold between ticks.
func (r *rig) checkCoupling(t *testing.T) {
	t.Helper()
	if r.crowd.Frozen() != r.antagonist.Active() {
		t.Fatalf("crowd frozen=%v but antagonist active=%v", r.crowd.Frozen(), r.antagonist.Active())
	}
	if r.sanity.IsDepleted() && (r.lighting.AreLightsOn() || r.lighting.OverrideActive()) {
		t.Fatalf("zero sanity with lights=%v override=%v", r.lighting.AreLightsOn(), r.lighting.OverrideActive())
	}
	if r.sanity.IsDepleted() != r.antagonist.Active() {
		t.Fatalf("sanity=%d but antagonist active=%v", r.sanity.Current(), r.antagonist.Active())
	}
}
