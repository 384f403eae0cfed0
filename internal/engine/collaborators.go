// Package engine - collaborators.go
// Boundary contracts consumed by the core. Implementations live outside the
// engine (internal/sim for the headless server, a game client in production).
package engine

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mover is the path-follow capability of an actor.
type Mover interface {
	MoveTo(point r3.Vec) bool
	CurrentVelocity() r3.Vec
	StopAndClearPath()
	IsPathPending() bool
	RemainingDistance() float64
	Position() r3.Vec
	SetSpeed(speed float64)
}

// NavSampler finds reachable points. It may fail when nothing valid is near center.
type NavSampler interface {
	SampleNavigablePointNear(center r3.Vec, radius float64) (r3.Vec, bool)
}

// PlayerLocator reports where the player is. Values may lag one tick behind.
type PlayerLocator interface {
	CurrentPlayerPosition() r3.Vec
	PlayerFacing() r3.Vec
}

// LineOfSight answers occlusion queries for the sight detector.
type LineOfSight interface {
	Clear(from, to r3.Vec) bool
}

// ActivationSequence plays the generator start-up effect.
type ActivationSequence interface {
	Play(duration time.Duration)
}

// Animator receives the derived movement flag every tick.
type Animator interface {
	SetMoving(moving bool)
}

// FlashlightState is the equipment the battery observes.
type FlashlightState interface {
	IsEquipped() bool
	IsSwitchedOn() bool
	ForceOff()
}

// Stepper is an external simulation hook advanced at the start of every tick.
type Stepper interface {
	Step(dt time.Duration)
}

// Collaborators bundles the external capabilities handed to NewEngine.
// Any of them may be nil; the affected component degrades to an inert state.
type Collaborators struct {
	AntagonistMover Mover
	Nav             NavSampler
	Player          PlayerLocator
	Sight           LineOfSight
	Sequence        ActivationSequence
	Animator        Animator
}
