package sim

import (
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// stepper is anything World advances.
type stepper interface {
	Step(dt time.Duration)
}

// World steps every simulated body once per engine tick.
type World struct {
	Floor  *Floor
	bodies []stepper
}

// NewWorld creates a world over floor.
func NewWorld(floor *Floor) *World {
	return &World{Floor: floor}
}

// Add registers a body.
func (w *World) Add(s stepper) {
	w.bodies = append(w.bodies, s)
}

// Step implements engine.Stepper.
func (w *World) Step(dt time.Duration) {
	for _, b := range w.bodies {
		b.Step(dt)
	}
}

// Effects logs generator sequences and counts animator updates.
type Effects struct {
	logger  *logger.Logger
	Plays   int
	Moving  bool
	Changes int
}

// NewEffects creates presentation hooks writing to log.
func NewEffects(log *logger.Logger) *Effects {
	return &Effects{logger: log}
}

// Play implements engine.ActivationSequence.
func (e *Effects) Play(d time.Duration) {
	e.Plays++
	e.logger.Info("generator sequence playing", "duration", d.String())
}

// SetMoving implements engine.Animator.
func (e *Effects) SetMoving(moving bool) {
	if moving != e.Moving {
		e.Changes++
	}
	e.Moving = moving
}
