// Package engine - detection.go
// Detection strategies for the antagonist. Both are pure functions of the
// current positions and facing.
package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Observation is what a detector knows about one actor.
type Observation struct {
	Position r3.Vec
	Facing   r3.Vec
}

// Detector decides whether the antagonist perceives the player.
type Detector interface {
	DetectPlayer(self, player Observation) bool
}

// Searcher is implemented by detectors that can lose sight of the player
// without losing track of them, which enables the Searching state.
type Searcher interface {
	SupportsSearch() bool
}

// RadiusDetector hears the player within Range, through walls and behind its back.
type RadiusDetector struct {
	Range float64
}

// DetectPlayer implements Detector.
func (d RadiusDetector) DetectPlayer(self, player Observation) bool {
	return r3.Norm(r3.Sub(player.Position, self.Position)) <= d.Range
}

// SightDetector sees the player inside a view cone when nothing blocks the ray.
type SightDetector struct {
	Range       float64
	FieldOfView float64     // Full cone angle in degrees
	Occlusion   LineOfSight // nil means open floor
}

// DetectPlayer implements Detector.
func (d SightDetector) DetectPlayer(self, player Observation) bool {
	to := r3.Sub(player.Position, self.Position)
	dist := r3.Norm(to)
	if dist > d.Range {
		return false
	}
	if dist > 0 && r3.Norm(self.Facing) > 0 {
		halfAngle := d.FieldOfView / 2 * math.Pi / 180
		if r3.Cos(self.Facing, to) < math.Cos(halfAngle) {
			return false
		}
	}
	if d.Occlusion != nil && !d.Occlusion.Clear(self.Position, player.Position) {
		return false
	}
	return true
}

// SupportsSearch implements Searcher.
func (SightDetector) SupportsSearch() bool { return true }

// NewDetector builds the detector named by kind ("radius" or "sight").
// Unknown kinds fall back to the radius detector.
func NewDetector(kind string, hearingRange, sightRange, fov float64, los LineOfSight) Detector {
	if kind == "sight" {
		return SightDetector{Range: sightRange, FieldOfView: fov, Occlusion: los}
	}
	return RadiusDetector{Range: hearingRange}
}
