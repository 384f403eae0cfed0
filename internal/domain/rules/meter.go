// Package rules contains the pure calculation logic for the ward's meters.
// This package is PURE and must NOT import any infrastructure packages.
package rules

// Crossing classifies a meter transition relative to zero.
type Crossing int

const (
	CrossingNone     Crossing = iota // Both sides on the same side of zero, or no change
	CrossingDepleted                 // >0 to 0
	CrossingRestored                 // 0 to >0
)

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat bounds v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ZeroCrossing classifies a before/after pair.
func ZeroCrossing(before, after float64) Crossing {
	switch {
	case before > 0 && after <= 0:
		return CrossingDepleted
	case before <= 0 && after > 0:
		return CrossingRestored
	default:
		return CrossingNone
	}
}

// ThresholdEdge reports whether a transition crosses the threshold and in which direction.
// "Below" means strictly less than threshold. A change that stays on one side returns crossed=false.
func ThresholdEdge(before, after, threshold int) (crossed bool, below bool) {
	wasBelow := before < threshold
	isBelow := after < threshold
	if wasBelow == isBelow {
		return false, isBelow
	}
	return true, isBelow
}

// NonNegative turns negative request amounts into no-ops.
func NonNegative(amount int) int {
	if amount < 0 {
		return 0
	}
	return amount
}
