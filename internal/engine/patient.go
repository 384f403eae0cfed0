package engine

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

const patientArriveDistance = 0.3

// Patient wanders around its bed and stands still while the crowd is frozen.
type Patient struct {
	id     string
	home   r3.Vec
	cfg    config.PatientConfig
	mover  Mover
	nav    NavSampler
	rng    *rand.Rand
	crowd  *CrowdFreeze
	sched  *Scheduler
	logger *logger.Logger

	frozen    bool
	hasTarget bool
	destroyed bool
	wait      *Routine
}

// NewPatient creates a patient anchored at its mover's position and registers it with crowd.
func NewPatient(id string, mover Mover, nav NavSampler, crowd *CrowdFreeze, sched *Scheduler,
	cfg config.PatientConfig, rng *rand.Rand, log *logger.Logger) *Patient {
	p := &Patient{
		id:     id,
		home:   mover.Position(),
		cfg:    cfg,
		mover:  mover,
		nav:    nav,
		rng:    rng,
		crowd:  crowd,
		sched:  sched,
		logger: log,
	}
	p.wait = sched.After("patient-wait-"+id, cfg.MinWait,
		func() bool { return !p.frozen && !p.destroyed },
		p.pickDestination,
	)
	mover.SetSpeed(cfg.Speed)
	crowd.Register(p)
	return p
}

// ID returns the patient identifier.
func (p *Patient) ID() string { return p.id }

// Home returns the wander anchor.
func (p *Patient) Home() r3.Vec { return p.home }

// IsFrozen reports whether the patient is stopped by the crowd freeze.
func (p *Patient) IsFrozen() bool { return p.frozen }

// Freeze stops the patient in place.
func (p *Patient) Freeze() {
	if p.frozen {
		return
	}
	p.frozen = true
	p.hasTarget = false
	p.wait.Disarm()
	p.mover.StopAndClearPath()
}

// Unfreeze resumes wandering straight away.
func (p *Patient) Unfreeze() {
	if !p.frozen {
		return
	}
	p.frozen = false
	p.pickDestination()
}

// Update advances the wander loop by one tick.
func (p *Patient) Update() {
	if p.frozen || p.destroyed || p.wait.Armed() {
		return
	}
	if !p.hasTarget {
		p.pickDestination()
		return
	}
	if p.mover.IsPathPending() || p.mover.RemainingDistance() > patientArriveDistance {
		return
	}
	p.hasTarget = false
	p.mover.StopAndClearPath()
	p.wait.ArmFor(randomWait(p.rng, p.cfg.MinWait, p.cfg.MaxWait))
}

// Destroy unregisters the patient and drops its routine.
func (p *Patient) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.mover.StopAndClearPath()
	p.crowd.Unregister(p)
	p.sched.Remove(p.wait)
}

func (p *Patient) pickDestination() {
	if p.nav == nil {
		return
	}
	point, ok := p.nav.SampleNavigablePointNear(p.home, p.cfg.WanderRadius)
	if !ok {
		// Retried on the next Update
		p.logger.Debug("no wander point", "patient", p.id)
		return
	}
	p.hasTarget = p.mover.MoveTo(point)
}
