// Package sim provides headless stand-ins for the engine's external
// collaborators: straight-line movers on an open floor, a scripted player and
// no-op presentation hooks. The ward server runs on these when no game client
// is attached; tests use them as deterministic fakes.
package sim

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mover walks in a straight line toward its destination. It has no pathfinding:
// paths are resolved instantly, so IsPathPending is always false.
type Mover struct {
	pos      r3.Vec
	target   r3.Vec
	velocity r3.Vec
	speed    float64
	moving   bool
	bounds   *Floor
}

// NewMover places a mover at pos. floor may be nil for unbounded movement.
func NewMover(pos r3.Vec, speed float64, floor *Floor) *Mover {
	return &Mover{pos: pos, speed: speed, bounds: floor}
}

// MoveTo sets a new destination. Points outside the floor are refused.
func (m *Mover) MoveTo(point r3.Vec) bool {
	if m.bounds != nil && !m.bounds.Contains(point) {
		return false
	}
	m.target = point
	m.moving = true
	return true
}

// CurrentVelocity returns the velocity of the last step.
func (m *Mover) CurrentVelocity() r3.Vec { return m.velocity }

// StopAndClearPath halts the mover where it stands.
func (m *Mover) StopAndClearPath() {
	m.moving = false
	m.velocity = r3.Vec{}
}

// IsPathPending implements engine.Mover.
func (m *Mover) IsPathPending() bool { return false }

// RemainingDistance returns the distance to the destination, 0 when idle.
func (m *Mover) RemainingDistance() float64 {
	if !m.moving {
		return 0
	}
	return r3.Norm(r3.Sub(m.target, m.pos))
}

// Position returns the current position.
func (m *Mover) Position() r3.Vec { return m.pos }

// SetSpeed changes the walking speed in units per second.
func (m *Mover) SetSpeed(speed float64) { m.speed = speed }

// Speed returns the walking speed.
func (m *Mover) Speed() float64 { return m.speed }

// Teleport moves the mover without walking. Used by tests and scenarios.
func (m *Mover) Teleport(pos r3.Vec) {
	m.pos = pos
	m.StopAndClearPath()
}

// Step advances the mover by dt.
func (m *Mover) Step(dt time.Duration) {
	if !m.moving || dt <= 0 {
		m.velocity = r3.Vec{}
		return
	}
	to := r3.Sub(m.target, m.pos)
	dist := r3.Norm(to)
	stride := m.speed * dt.Seconds()
	if dist <= stride || dist == 0 {
		m.velocity = r3.Scale(1/dt.Seconds(), to)
		m.pos = m.target
		m.moving = false
		return
	}
	m.velocity = r3.Scale(m.speed/dist, to)
	m.pos = r3.Add(m.pos, r3.Scale(stride/dist, to))
}
