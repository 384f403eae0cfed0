package sim

import (
	"time"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"
)

// Player is a position the engine can locate. Network clients move it directly.
type Player struct {
	pos    r3.Vec
	facing r3.Vec
}

// NewPlayer places the player at pos facing +X.
func NewPlayer(pos r3.Vec) *Player {
	return &Player{pos: pos, facing: r3.Vec{X: 1}}
}

// CurrentPlayerPosition implements engine.PlayerLocator.
func (p *Player) CurrentPlayerPosition() r3.Vec { return p.pos }

// PlayerFacing implements engine.PlayerLocator.
func (p *Player) PlayerFacing() r3.Vec { return p.facing }

// SetPosition moves the player and turns it toward the direction of travel.
func (p *Player) SetPosition(pos r3.Vec) {
	if d := r3.Sub(pos, p.pos); r3.Norm(d) > 0 {
		p.facing = r3.Unit(d)
	}
	p.pos = pos
}

// ScriptedPlayer wanders the floor on its own, steered by simplex noise.
// It drives headless sessions when no client is connected.
type ScriptedPlayer struct {
	*Player
	floor *Floor
	noise opensimplex.Noise
	speed float64
	t     float64
}

// NewScriptedPlayer creates a noise-driven player.
func NewScriptedPlayer(pos r3.Vec, speed float64, floor *Floor, seed int64) *ScriptedPlayer {
	return &ScriptedPlayer{
		Player: NewPlayer(pos),
		floor:  floor,
		noise:  opensimplex.New(seed),
		speed:  speed,
	}
}

// Step walks the player for dt. Steps that would leave the floor are skipped.
func (s *ScriptedPlayer) Step(dt time.Duration) {
	secs := dt.Seconds()
	s.t += secs * 0.2
	dir := r3.Vec{
		X: s.noise.Eval2(s.t, 0),
		Y: s.noise.Eval2(0, s.t),
	}
	n := r3.Norm(dir)
	if n == 0 {
		return
	}
	next := r3.Add(s.pos, r3.Scale(s.speed*secs/n, dir))
	if s.floor != nil && !s.floor.Contains(next) {
		return
	}
	s.SetPosition(next)
}
