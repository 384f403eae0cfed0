package sim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// sampleAttempts bounds the rejection sampling in SampleNavigablePointNear.
const sampleAttempts = 16

// Rect is an axis-aligned box on the floor plane (Z is ignored).
type Rect struct {
	Min, Max r3.Vec
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p r3.Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Floor is a rectangular ward with solid walls inside it.
// It answers navigation and line-of-sight queries.
type Floor struct {
	Bounds Rect
	Walls  []Rect
	rng    *rand.Rand
}

// NewFloor creates an empty floor of the given size with its corner at the origin.
func NewFloor(width, depth float64, seed int64) *Floor {
	return &Floor{
		Bounds: Rect{Max: r3.Vec{X: width, Y: depth}},
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// AddWall places a solid block.
func (f *Floor) AddWall(r Rect) {
	f.Walls = append(f.Walls, r)
}

// Contains reports whether p is walkable.
func (f *Floor) Contains(p r3.Vec) bool {
	if !f.Bounds.Contains(p) {
		return false
	}
	for _, w := range f.Walls {
		if w.Contains(p) {
			return false
		}
	}
	return true
}

// SampleNavigablePointNear draws a walkable point within radius of center.
// It fails when no attempt lands on the floor.
func (f *Floor) SampleNavigablePointNear(center r3.Vec, radius float64) (r3.Vec, bool) {
	for i := 0; i < sampleAttempts; i++ {
		angle := f.rng.Float64() * 2 * math.Pi
		dist := radius * math.Sqrt(f.rng.Float64())
		p := r3.Vec{X: center.X + dist*math.Cos(angle), Y: center.Y + dist*math.Sin(angle)}
		if f.Contains(p) {
			return p, true
		}
	}
	return r3.Vec{}, false
}

// Clear reports whether the segment from-to crosses no wall.
func (f *Floor) Clear(from, to r3.Vec) bool {
	for _, w := range f.Walls {
		if segmentHitsRect(from, to, w) {
			return false
		}
	}
	return true
}

// segmentHitsRect is a slab test on the X/Y plane.
func segmentHitsRect(a, b r3.Vec, r Rect) bool {
	tMin, tMax := 0.0, 1.0
	d := r3.Sub(b, a)
	for _, axis := range [2]struct{ o, d, lo, hi float64 }{
		{a.X, d.X, r.Min.X, r.Max.X},
		{a.Y, d.Y, r.Min.Y, r.Max.Y},
	} {
		if axis.d == 0 {
			if axis.o < axis.lo || axis.o > axis.hi {
				return false
			}
			continue
		}
		t1 := (axis.lo - axis.o) / axis.d
		t2 := (axis.hi - axis.o) / axis.d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}
