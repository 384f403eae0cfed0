// Package telemetry writes session timelines as CSV for offline analysis.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
)

// TimelineRow is one sample of the ward state.
type TimelineRow struct {
	SimSeconds      float64 `csv:"sim_s"`
	Sanity          int     `csv:"sanity"`
	LightsOn        bool    `csv:"lights_on"`
	Override        bool    `csv:"override"`
	GeneratorPhase  string  `csv:"generator"`
	CrowdFrozen     bool    `csv:"crowd_frozen"`
	AntagonistState string  `csv:"antagonist"`
	AntagonistMoves bool    `csv:"antagonist_moving"`
	Battery         float64 `csv:"battery"`
	FlashlightOn    bool    `csv:"flashlight_on"`
}

// RowFromSnapshot flattens a snapshot into a CSV row.
func RowFromSnapshot(s engine.Snapshot) TimelineRow {
	return TimelineRow{
		SimSeconds:      s.SimTime.Seconds(),
		Sanity:          s.Sanity,
		LightsOn:        s.LightsOn,
		Override:        s.OverrideActive,
		GeneratorPhase:  s.GeneratorPhase,
		CrowdFrozen:     s.CrowdFrozen,
		AntagonistState: s.AntagonistState,
		AntagonistMoves: s.AntagonistMoves,
		Battery:         s.Battery,
		FlashlightOn:    s.SwitchedOn,
	}
}

// EventRow is one bus notification.
type EventRow struct {
	SimSeconds float64 `csv:"sim_s"`
	Type       string  `csv:"type"`
	Actor      string  `csv:"actor"`
	Target     string  `csv:"target"`
}

// TimelineWriter appends timeline and event rows to two CSV streams.
type TimelineWriter struct {
	timeline io.Writer
	events   io.Writer
	closers  []io.Closer

	timelineHeaderWritten bool
	eventsHeaderWritten   bool
	rows                  int
}

// NewTimelineWriter writes to the given streams. events may be nil.
func NewTimelineWriter(timeline, events io.Writer) *TimelineWriter {
	return &TimelineWriter{timeline: timeline, events: events}
}

// NewTimelineFiles creates dir with timeline.csv, events.csv and the config used.
func NewTimelineFiles(dir string, cfg *config.Config) (*TimelineWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	tf, err := os.Create(filepath.Join(dir, "timeline.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating timeline.csv: %w", err)
	}
	ef, err := os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		tf.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	if cfg != nil {
		if err := cfg.WriteYAML(filepath.Join(dir, "config.yaml")); err != nil {
			tf.Close()
			ef.Close()
			return nil, err
		}
	}

	w := NewTimelineWriter(tf, ef)
	w.closers = []io.Closer{tf, ef}
	return w, nil
}

// WriteSnapshot appends one timeline row.
func (w *TimelineWriter) WriteSnapshot(s engine.Snapshot) error {
	records := []TimelineRow{RowFromSnapshot(s)}

	if !w.timelineHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, w.timeline); err != nil {
			return fmt.Errorf("writing timeline: %w", err)
		}
		w.timelineHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, w.timeline); err != nil {
			return fmt.Errorf("writing timeline: %w", err)
		}
	}
	w.rows++
	return nil
}

// WriteEvent appends one event row. Heartbeats are skipped.
func (w *TimelineWriter) WriteEvent(ev events.GameEvent) error {
	if w.events == nil || ev.Type == events.EventTypeTimeTick {
		return nil
	}
	records := []EventRow{{
		SimSeconds: ev.SimTime.Seconds(),
		Type:       string(ev.Type),
		Actor:      ev.ActorID,
		Target:     ev.TargetID,
	}}

	if !w.eventsHeaderWritten {
		if err := gocsv.Marshal(records, w.events); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		w.eventsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, w.events); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
	}
	return nil
}

// Tap is a bus handler for WriteEvent. Write errors are dropped.
func (w *TimelineWriter) Tap(ev events.GameEvent) {
	_ = w.WriteEvent(ev)
}

// Rows returns how many timeline rows were written.
func (w *TimelineWriter) Rows() int { return w.rows }

// Close closes any files the writer opened.
func (w *TimelineWriter) Close() error {
	var firstErr error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.closers = nil
	return firstErr
}
