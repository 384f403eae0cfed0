package rules

import "testing"

func TestZeroCrossing(t *testing.T) {
	cases := []struct {
		before, after float64
		want          Crossing
	}{
		{10, 0, CrossingDepleted},
		{1, 0, CrossingDepleted},
		{0, 0, CrossingNone},
		{0, 5, CrossingRestored},
		{5, 3, CrossingNone},
		{0.5, 0, CrossingDepleted},
	}
	for _, c := range cases {
		if got := ZeroCrossing(c.before, c.after); got != c.want {
			t.Errorf("ZeroCrossing(%v,%v) = %v, want %v", c.before, c.after, got, c.want)
		}
	}
}

func TestThresholdEdge(t *testing.T) {
	cases := []struct {
		before, after      int
		crossed, wantBelow bool
	}{
		{50, 49, true, true},
		{49, 50, true, false},
		{60, 55, false, false},
		{30, 0, false, true},
		{0, 70, true, false},
		{0, 20, false, true},
	}
	for _, c := range cases {
		crossed, below := ThresholdEdge(c.before, c.after, 50)
		if crossed != c.crossed || below != c.wantBelow {
			t.Errorf("ThresholdEdge(%d,%d) = %v,%v want %v,%v", c.before, c.after, crossed, below, c.crossed, c.wantBelow)
		}
	}
}

func TestClamp(t *testing.T) {
	if ClampInt(-5, 0, 100) != 0 || ClampInt(140, 0, 100) != 100 || ClampInt(40, 0, 100) != 40 {
		t.Error("ClampInt out of range")
	}
	if ClampFloat(-0.1, 0, 1) != 0 || ClampFloat(2, 0, 1) != 1 {
		t.Error("ClampFloat out of range")
	}
	if NonNegative(-3) != 0 || NonNegative(3) != 3 {
		t.Error("NonNegative")
	}
}
