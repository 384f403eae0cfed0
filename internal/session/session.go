// Package session builds headless wards: the engine wired to the kinematic
// sim on an open floor. The scenario suite ticks them by hand; ward-tui runs
// one on the real-time ticker.
package session

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/sim"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/telemetry"
)

// Session is a headless ward.
type Session struct {
	Engine   *engine.Engine
	Bus      *events.Bus
	Floor    *sim.Floor
	World    *sim.World
	Monster  *sim.Mover
	Player   *sim.Player
	Effects  *sim.Effects
	Patients []*engine.Patient
	Timeline *telemetry.TimelineWriter // optional, sampled once per simulated second

	step time.Duration
}

// NewSession builds a ward on a 60x60 floor: the antagonist near one corner,
// the player standing near the opposite one and cfg.Patients.Count patients
// in a row across the middle.
func NewSession(cfg *config.Config, log *logger.Logger) *Session {
	floor := sim.NewFloor(60, 60, cfg.Tick.Seed)
	world := sim.NewWorld(floor)
	monster := sim.NewMover(r3.Vec{X: 10, Y: 10}, cfg.Antagonist.PatrolSpeed, floor)
	world.Add(monster)
	player := sim.NewPlayer(r3.Vec{X: 55, Y: 55})
	effects := sim.NewEffects(log.With("effects"))

	bus := events.NewBus(events.NewEventLog(nil))
	eng := engine.NewEngine(cfg, bus, engine.Collaborators{
		AntagonistMover: monster,
		Nav:             floor,
		Player:          player,
		Sight:           floor,
		Sequence:        effects,
		Animator:        effects,
	}, log)
	eng.AddStepper(world)

	s := &Session{
		Engine:  eng,
		Bus:     bus,
		Floor:   floor,
		World:   world,
		Monster: monster,
		Player:  player,
		Effects: effects,
		step:    cfg.Tick.Interval,
	}
	for i := 0; i < cfg.Patients.Count; i++ {
		m := sim.NewMover(r3.Vec{X: 15 + float64(i)*5, Y: 30}, cfg.Patients.Speed, floor)
		world.Add(m)
		s.Patients = append(s.Patients, eng.SpawnPatient(fmt.Sprintf("PATIENT_%02d", i+1), m))
	}
	return s
}

// Run advances the session by d of simulated time in fixed ticks.
func (s *Session) Run(d time.Duration) {
	for el := time.Duration(0); el < d; el += s.step {
		before := s.Engine.Scheduler().Now()
		s.Engine.Tick(s.step)
		if s.Timeline != nil && before/time.Second != (before+s.step)/time.Second {
			s.Timeline.WriteSnapshot(s.Engine.Snapshot())
		}
	}
}

// MovePlayer teleports the player under the engine lock.
func (s *Session) MovePlayer(pos r3.Vec) {
	s.Engine.Do(func() { s.Player.SetPosition(pos) })
}

// Count returns how many retained events of type t were published.
func (s *Session) Count(t events.EventType) int {
	return s.Bus.Log().Count(t)
}
