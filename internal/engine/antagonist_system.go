// Package engine - antagonist_system.go
// The ward's monster. Inactive until sanity hits zero, then patrols around its
// home, chases the player on detection and searches the last known position
// when a sight detector loses them.
//
// States: Inactive -> Patrolling <-> Chasing <-> Searching, any -> Inactive.
package engine

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// AntagonistState is the AI state.
type AntagonistState int

const (
	StateInactive AntagonistState = iota
	StatePatrolling
	StateChasing
	StateSearching
)

func (s AntagonistState) String() string {
	switch s {
	case StateInactive:
		return "INACTIVE"
	case StatePatrolling:
		return "PATROLLING"
	case StateChasing:
		return "CHASING"
	case StateSearching:
		return "SEARCHING"
	default:
		return "UNKNOWN"
	}
}

const actorAntagonist = "ANTAGONIST"

// AntagonistSystem runs the monster state machine once per tick.
type AntagonistSystem struct {
	cfg      config.AntagonistConfig
	detector Detector
	mover    Mover
	nav      NavSampler
	player   PlayerLocator
	animator Animator
	rng      *rand.Rand
	sched    *Scheduler
	bus      *events.Bus
	logger   *logger.Logger

	state  AntagonistState
	active bool

	home      r3.Vec
	homeSet   bool
	hasTarget bool
	facing    r3.Vec
	isMoving  bool

	lastSeen      time.Duration
	lastKnown     r3.Vec
	searchStarted time.Duration

	patrolWait *Routine
	searchWait *Routine

	warnedNoPlayer bool
}

// NewAntagonistSystem creates an inactive antagonist. A nil mover leaves it inert;
// a nil player locator means it never detects anyone.
func NewAntagonistSystem(cfg config.AntagonistConfig, detector Detector, c Collaborators,
	sched *Scheduler, rng *rand.Rand, bus *events.Bus, log *logger.Logger) *AntagonistSystem {
	a := &AntagonistSystem{
		cfg:      cfg,
		detector: detector,
		mover:    c.AntagonistMover,
		nav:      c.Nav,
		player:   c.Player,
		animator: c.Animator,
		rng:      rng,
		sched:    sched,
		bus:      bus,
		logger:   log,
		facing:   r3.Vec{X: 1},
	}
	a.patrolWait = sched.After("antagonist-patrol-wait", cfg.MinWait,
		func() bool { return a.active && a.state == StatePatrolling },
		a.pickPatrolPoint,
	)
	a.searchWait = sched.After("antagonist-search-wait", cfg.SearchWait,
		func() bool { return a.active && a.state == StateSearching },
		a.lookAround,
	)
	if a.mover == nil {
		log.Warn("antagonist has no mover, staying inert")
	}
	return a
}

// State returns the current AI state.
func (a *AntagonistSystem) State() AntagonistState { return a.state }

// Active reports the external activation flag.
func (a *AntagonistSystem) Active() bool { return a.active }

// IsMoving reports the flag derived on the last tick.
func (a *AntagonistSystem) IsMoving() bool { return a.isMoving }

// Home returns the patrol anchor and whether one has been set.
func (a *AntagonistSystem) Home() (r3.Vec, bool) { return a.home, a.homeSet }

// Position returns where the antagonist stands.
func (a *AntagonistSystem) Position() r3.Vec {
	if a.mover == nil {
		return a.home
	}
	return a.mover.Position()
}

// SetActive gates the whole state machine.
func (a *AntagonistSystem) SetActive(on bool) {
	if a.mover == nil {
		// Inert: no body to move, but the state still mirrors the flag
		a.active = on
		if on {
			a.transition(StatePatrolling, "activated without a mover")
		} else {
			a.transition(StateInactive, "deactivated")
		}
		return
	}
	if !on {
		a.active = false
		a.mover.StopAndClearPath()
		a.patrolWait.Disarm()
		a.searchWait.Disarm()
		a.hasTarget = false
		a.transition(StateInactive, "deactivated")
		return
	}

	if a.active && a.state == StatePatrolling {
		return
	}
	a.active = true
	if !a.homeSet {
		a.home = a.mover.Position()
		a.homeSet = true
	}
	a.mover.StopAndClearPath()
	a.mover.SetSpeed(a.cfg.PatrolSpeed)
	a.searchWait.Disarm()
	a.hasTarget = false
	a.transition(StatePatrolling, "activated")
}

// OnSanityDepleted activates the antagonist.
func (a *AntagonistSystem) OnSanityDepleted(events.GameEvent) { a.SetActive(true) }

// OnSanityRestored deactivates the antagonist.
func (a *AntagonistSystem) OnSanityRestored(events.GameEvent) { a.SetActive(false) }

// Update runs one tick of the state machine.
func (a *AntagonistSystem) Update() {
	if a.mover == nil {
		return
	}
	if a.active {
		switch a.state {
		case StatePatrolling:
			a.updatePatrol()
		case StateChasing:
			a.updateChase()
		case StateSearching:
			a.updateSearch()
		}
	}
	a.refreshMotion()
}

func (a *AntagonistSystem) updatePatrol() {
	if a.detect() {
		a.startChase("player detected")
		return
	}
	if a.patrolWait.Armed() {
		return
	}
	if !a.hasTarget {
		a.pickPatrolPoint()
		return
	}
	if a.arrived() {
		a.hasTarget = false
		a.mover.StopAndClearPath()
		a.patrolWait.ArmFor(randomWait(a.rng, a.cfg.MinWait, a.cfg.MaxWait))
	}
}

// updateChase re-targets the player every tick. Leaving loseRange drops the
// chase at once. Otherwise losing detection starts a grace timer: a detector
// that can search keeps chasing until the longer search grace and then
// searches; any other detector goes back to patrol after GracePeriod.
func (a *AntagonistSystem) updateChase() {
	player, ok := a.observePlayer()
	if !ok {
		a.returnToPatrol("player lost")
		return
	}
	if r3.Norm(r3.Sub(player.Position, a.mover.Position())) > a.cfg.LoseRange {
		a.returnToPatrol("player out of range")
		return
	}

	now := a.sched.Now()
	if a.detector.DetectPlayer(a.observeSelf(), player) {
		a.lastSeen = now
		a.lastKnown = player.Position
	} else if s, ok := a.detector.(Searcher); ok && s.SupportsSearch() {
		if now-a.lastSeen > a.searchGrace() {
			a.startSearch()
			return
		}
	} else if now-a.lastSeen > a.cfg.GracePeriod {
		a.returnToPatrol("lost track")
		return
	}
	a.mover.MoveTo(player.Position)
}

func (a *AntagonistSystem) updateSearch() {
	if a.detect() {
		a.startChase("player re-detected")
		return
	}
	if a.sched.Now()-a.searchStarted > a.cfg.SearchTimeout {
		a.returnToPatrol("search timed out")
		return
	}
	if a.searchWait.Armed() {
		return
	}
	if a.hasTarget && a.arrived() {
		a.hasTarget = false
		a.mover.StopAndClearPath()
		a.searchWait.ArmFor(a.cfg.SearchWait)
	}
}

// searchGrace never undercuts the plain grace period.
func (a *AntagonistSystem) searchGrace() time.Duration {
	if a.cfg.SearchGrace < a.cfg.GracePeriod {
		return a.cfg.GracePeriod
	}
	return a.cfg.SearchGrace
}

func (a *AntagonistSystem) startChase(reason string) {
	player, _ := a.observePlayer()
	a.patrolWait.Disarm()
	a.searchWait.Disarm()
	a.lastSeen = a.sched.Now()
	a.lastKnown = player.Position
	a.mover.SetSpeed(a.cfg.ChaseSpeed)
	a.hasTarget = a.mover.MoveTo(player.Position)
	a.transition(StateChasing, reason)
}

func (a *AntagonistSystem) startSearch() {
	a.searchStarted = a.sched.Now()
	a.mover.SetSpeed(a.cfg.PatrolSpeed)
	a.hasTarget = a.mover.MoveTo(a.lastKnown)
	a.transition(StateSearching, "lost sight")
}

func (a *AntagonistSystem) returnToPatrol(reason string) {
	a.searchWait.Disarm()
	a.mover.StopAndClearPath()
	a.mover.SetSpeed(a.cfg.PatrolSpeed)
	a.hasTarget = false
	a.transition(StatePatrolling, reason)
}

func (a *AntagonistSystem) pickPatrolPoint() {
	if a.nav == nil {
		return
	}
	point, ok := a.nav.SampleNavigablePointNear(a.home, a.cfg.PatrolRadius)
	if !ok {
		a.logger.Debug("no patrol point near home, retrying next tick")
		return
	}
	a.hasTarget = a.mover.MoveTo(point)
}

func (a *AntagonistSystem) lookAround() {
	if a.nav == nil {
		return
	}
	point, ok := a.nav.SampleNavigablePointNear(a.lastKnown, a.cfg.HearingRange)
	if !ok {
		return
	}
	a.hasTarget = a.mover.MoveTo(point)
}

func (a *AntagonistSystem) arrived() bool {
	return !a.mover.IsPathPending() && a.mover.RemainingDistance() <= a.cfg.ArriveDistance
}

func (a *AntagonistSystem) detect() bool {
	player, ok := a.observePlayer()
	if !ok {
		return false
	}
	return a.detector.DetectPlayer(a.observeSelf(), player)
}

func (a *AntagonistSystem) observePlayer() (Observation, bool) {
	if a.player == nil {
		if !a.warnedNoPlayer {
			a.logger.Warn("antagonist has no player locator, detection disabled")
			a.warnedNoPlayer = true
		}
		return Observation{}, false
	}
	return Observation{
		Position: a.player.CurrentPlayerPosition(),
		Facing:   a.player.PlayerFacing(),
	}, true
}

func (a *AntagonistSystem) observeSelf() Observation {
	return Observation{Position: a.mover.Position(), Facing: a.facing}
}

// refreshMotion derives the moving flag from velocity and pushes it to the animator.
func (a *AntagonistSystem) refreshMotion() {
	v := a.mover.CurrentVelocity()
	speed := r3.Norm(v)
	a.isMoving = speed > a.cfg.MovingEpsilon
	if a.isMoving {
		a.facing = r3.Scale(1/speed, v)
	}
	if a.animator != nil {
		a.animator.SetMoving(a.isMoving)
	}
}

func (a *AntagonistSystem) transition(to AntagonistState, reason string) {
	from := a.state
	if from == to {
		return
	}
	a.state = to
	a.logger.Event("ANTAGONIST_STATE", actorAntagonist, from.String()+" -> "+to.String()+" ("+reason+")")
	a.bus.Publish(events.GameEvent{
		Type:    events.EventTypeAntagonistState,
		ActorID: actorAntagonist,
		Payload: events.AntagonistStatePayload{
			From:   from.String(),
			To:     to.String(),
			Reason: reason,
		},
	})
}
