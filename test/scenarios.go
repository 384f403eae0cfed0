// Package test - scenarios.go
// Acceptance scenarios for the ward core, run by cmd/test-runner and by
// go test. Each scenario drives a fresh headless session and checks the
// coupling rules between the meters, the lights and the AI.
package test

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/item"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/session"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/telemetry"
)

// Scenario is one named check against a fresh session.
type Scenario struct {
	Name     string
	Expected string
	Run      func(s *session.Session) error
}

// TestResult captures the outcome of each test scenario.
type TestResult struct {
	ScenarioName string
	Expected     string
	Passed       bool
	Reason       string
	Events       int
	SimTime      time.Duration
}

// Scenarios returns the acceptance suite in run order.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name:     "Sanity descent",
			Expected: "lights hold at threshold, drop below it, blackout at zero, pills restore",
			Run:      sanityDescent,
		},
		{
			Name:     "Generator override",
			Expected: "generator lights the ward below threshold, zero sanity wins",
			Run:      generatorOverride,
		},
		{
			Name:     "Generator abort",
			Expected: "depletion mid-sequence aborts without spending the generator",
			Run:      generatorAbort,
		},
		{
			Name:     "Crowd coupling",
			Expected: "patients freeze exactly while the antagonist hunts",
			Run:      crowdCoupling,
		},
		{
			Name:     "Chase and disengage",
			Expected: "antagonist chases a nearby player and gives up out of range",
			Run:      chaseAndDisengage,
		},
		{
			Name:     "Flashlight battery",
			Expected: "battery drains only when on, dies once, recharge restores once",
			Run:      flashlightBattery,
		},
	}
}

// RunAll runs every scenario with its own session built from cfg. When outDir
// is not empty each scenario writes a CSV timeline under outDir/<scenario>.
func RunAll(cfg *config.Config, outDir string, log *logger.Logger) []TestResult {
	var results []TestResult
	for _, sc := range Scenarios() {
		results = append(results, runOne(cfg, sc, outDir, log))
	}
	return results
}

func runOne(base *config.Config, sc Scenario, outDir string, log *logger.Logger) TestResult {
	cfg := *base
	s := session.NewSession(&cfg, log.With("scenario"))

	if outDir != "" {
		dir := filepath.Join(outDir, slug(sc.Name))
		if w, err := telemetry.NewTimelineFiles(dir, &cfg); err == nil {
			s.Timeline = w
			s.Bus.SubscribeAll(w.Tap)
			defer w.Close()
		} else {
			log.Warn("timeline disabled", "scenario", sc.Name, "error", err)
		}
	}

	res := TestResult{ScenarioName: sc.Name, Expected: sc.Expected}
	if err := sc.Run(s); err != nil {
		res.Reason = err.Error()
	} else {
		res.Passed = true
		res.Reason = "ok"
	}
	res.Events = s.Bus.Log().Total()
	res.SimTime = s.Engine.Scheduler().Now()
	return res
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func expect(cond bool, format string, args ...interface{}) error {
	if cond {
		return nil
	}
	return fmt.Errorf(format, args...)
}

func sanityDescent(s *session.Session) error {
	e := s.Engine
	e.SetSanity(51)
	s.Run(2100 * time.Millisecond)
	snap := e.Snapshot()
	if err := expect(snap.Sanity == 50 && snap.LightsOn, "at threshold: sanity=%d lights=%v", snap.Sanity, snap.LightsOn); err != nil {
		return err
	}

	s.Run(2 * time.Second)
	snap = e.Snapshot()
	if err := expect(snap.Sanity == 49 && !snap.LightsOn, "below threshold: sanity=%d lights=%v", snap.Sanity, snap.LightsOn); err != nil {
		return err
	}
	if err := e.UseSwitch(); !errors.Is(err, engine.ErrBreakerTripped) {
		return fmt.Errorf("switch below threshold: got %v", err)
	}

	e.SetSanity(1)
	s.Run(2 * time.Second)
	snap = e.Snapshot()
	if err := expect(snap.Sanity == 0 && !snap.LightsOn && !snap.OverrideActive && !snap.Decaying,
		"blackout: %+v", snap); err != nil {
		return err
	}
	if err := expect(snap.CrowdFrozen && snap.AntagonistOn, "zero sanity without hunt: %+v", snap); err != nil {
		return err
	}

	if err := e.GivePickup(item.ItemSanityPills); err != nil {
		return err
	}
	if err := e.UsePickup(item.ItemSanityPills); err != nil {
		return err
	}
	snap = e.Snapshot()
	if err := expect(snap.Sanity == 20 && !snap.AntagonistOn && !snap.CrowdFrozen && snap.Decaying,
		"after pills: %+v", snap); err != nil {
		return err
	}
	return expect(s.Count(events.EventTypeSanityDepleted) == 1 && s.Count(events.EventTypeSanityRestored) == 1,
		"zero crossings: depleted=%d restored=%d",
		s.Count(events.EventTypeSanityDepleted), s.Count(events.EventTypeSanityRestored))
}

func generatorOverride(s *session.Session) error {
	e := s.Engine
	e.SetSanity(30)
	if e.Snapshot().LightsOn {
		return errors.New("lights stayed on below threshold")
	}

	if err := e.ActivateGenerator(); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	if err := e.ActivateGenerator(); !errors.Is(err, engine.ErrActivating) {
		return fmt.Errorf("second activate: got %v", err)
	}
	s.Run(3100 * time.Millisecond)
	snap := e.Snapshot()
	if err := expect(snap.LightsOn && snap.OverrideActive && snap.SwitchUsable,
		"after sequence: %+v", snap); err != nil {
		return err
	}
	if err := expect(s.Effects.Plays == 1, "sequence played %d times", s.Effects.Plays); err != nil {
		return err
	}

	e.SetSanity(0)
	snap = e.Snapshot()
	if err := expect(!snap.LightsOn && !snap.OverrideActive, "zero sanity kept override: %+v", snap); err != nil {
		return err
	}
	if err := e.ActivateGenerator(); !errors.Is(err, engine.ErrPowerFailure) {
		return fmt.Errorf("activate at zero: got %v", err)
	}
	return nil
}

func generatorAbort(s *session.Session) error {
	e := s.Engine
	e.SetSanity(10)
	if err := e.ActivateGenerator(); err != nil {
		return err
	}
	s.Run(time.Second)
	e.SetSanity(0)
	s.Run(3 * time.Second)

	snap := e.Snapshot()
	if err := expect(!snap.LightsOn && snap.GeneratorPhase == engine.PhaseIdle,
		"after abort: %+v", snap); err != nil {
		return err
	}
	if err := expect(s.Count(events.EventTypeGeneratorAborted) == 1 && s.Count(events.EventTypeGeneratorActivated) == 0,
		"aborted=%d activated=%d", s.Count(events.EventTypeGeneratorAborted), s.Count(events.EventTypeGeneratorActivated)); err != nil {
		return err
	}

	e.SetSanity(40)
	return expect(e.Snapshot().GeneratorReady, "generator spent by an aborted run")
}

func crowdCoupling(s *session.Session) error {
	e := s.Engine
	s.Run(3 * time.Second)

	e.SetSanity(0)
	s.Run(5 * time.Second)
	for _, p := range s.Patients {
		var frozen bool
		e.Do(func() { frozen = p.IsFrozen() })
		if !frozen {
			return fmt.Errorf("%s still wandering at zero sanity", p.ID())
		}
	}
	snap := e.Snapshot()
	if err := expect(snap.CrowdFrozen && snap.AntagonistOn, "coupling broken at zero: %+v", snap); err != nil {
		return err
	}

	e.SetSanity(60)
	s.Run(200 * time.Millisecond)
	snap = e.Snapshot()
	if err := expect(!snap.CrowdFrozen && !snap.AntagonistOn && !snap.AntagonistMoves && snap.AntagonistState == "INACTIVE",
		"coupling broken after restore: %+v", snap); err != nil {
		return err
	}
	return expect(s.Count(events.EventTypeCrowdFreeze) == 2, "crowd edges: %d", s.Count(events.EventTypeCrowdFreeze))
}

func chaseAndDisengage(s *session.Session) error {
	e := s.Engine
	s.MovePlayer(r3.Vec{X: 12, Y: 10})
	e.SetSanity(0)
	s.Run(200 * time.Millisecond)
	if st := e.Snapshot().AntagonistState; st != "CHASING" {
		return fmt.Errorf("expected CHASING near the player, got %s", st)
	}

	s.MovePlayer(r3.Vec{X: 55, Y: 55})
	s.Run(200 * time.Millisecond)
	if st := e.Snapshot().AntagonistState; st != "PATROLLING" {
		return fmt.Errorf("expected PATROLLING after losing the player, got %s", st)
	}

	e.SetSanity(100)
	s.Run(100 * time.Millisecond)
	snap := e.Snapshot()
	return expect(snap.AntagonistState == "INACTIVE" && !snap.AntagonistMoves, "hard disengage failed: %+v", snap)
}

func flashlightBattery(s *session.Session) error {
	e := s.Engine
	s.Run(7 * time.Second)
	if b := e.Snapshot().Battery; b != 100 {
		return fmt.Errorf("battery drained while off: %v", b)
	}

	e.EquipFlashlight()
	if err := e.ToggleFlashlight(); err != nil {
		return err
	}
	e.SetBattery(1)
	s.Run(6100 * time.Millisecond)
	snap := e.Snapshot()
	if err := expect(snap.Battery == 0 && !snap.SwitchedOn && snap.Equipped, "after drain: %+v", snap); err != nil {
		return err
	}
	if err := e.ToggleFlashlight(); !errors.Is(err, engine.ErrBatteryEmpty) {
		return fmt.Errorf("toggle on empty: got %v", err)
	}

	if err := e.GivePickup(item.ItemBattery); err != nil {
		return err
	}
	if err := e.UsePickup(item.ItemBattery); err != nil {
		return err
	}
	snap = e.Snapshot()
	if err := expect(snap.Battery == 25 && !snap.SwitchedOn, "after recharge: %+v", snap); err != nil {
		return err
	}
	return expect(s.Count(events.EventTypeBatteryDepleted) == 1 && s.Count(events.EventTypeBatteryRestored) == 1,
		"battery crossings: depleted=%d restored=%d",
		s.Count(events.EventTypeBatteryDepleted), s.Count(events.EventTypeBatteryRestored))
}
