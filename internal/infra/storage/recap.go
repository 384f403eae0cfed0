// Package storage - recap.go
// Session recap: a human-readable digest of the journal for the end screen
// and the /api/recap route.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
)

// Recapper reads a session back out of the journal.
type Recapper struct {
	eventRepo EventRepository
}

// NewRecapper creates a new session recapper.
func NewRecapper(eventRepo EventRepository) *Recapper {
	return &Recapper{eventRepo: eventRepo}
}

// SessionSummary aggregates the notable moments of one session.
type SessionSummary struct {
	SessionID            string        `json:"session_id"`
	Events               int           `json:"events"`
	SanityDepletions     int           `json:"sanity_depletions"`
	SanityRestorations   int           `json:"sanity_restorations"`
	GeneratorActivations int           `json:"generator_activations"`
	GeneratorAborts      int           `json:"generator_aborts"`
	Chases               int           `json:"chases"`
	BatteryDepletions    int           `json:"battery_depletions"`
	PickupsUsed          int           `json:"pickups_used"`
	Rejections           int           `json:"rejections"`
	LongestBlackout      time.Duration `json:"longest_blackout"`
	LastSimTime          time.Duration `json:"last_sim_time"`
}

// RecapEvent is a simplified event for the recap screen.
type RecapEvent struct {
	SimTime   string `json:"sim_time"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// Summarize folds a session's events into counters.
func (r *Recapper) Summarize(ctx context.Context, sessionID string) (*SessionSummary, error) {
	records, err := r.eventRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session events: %w", err)
	}

	s := &SessionSummary{SessionID: sessionID, Events: len(records)}
	var darkSince time.Duration
	dark := false

	for _, rec := range records {
		s.LastSimTime = rec.SimTime()
		switch events.EventType(rec.EventType) {
		case events.EventTypeSanityDepleted:
			s.SanityDepletions++
		case events.EventTypeSanityRestored:
			s.SanityRestorations++
		case events.EventTypeGeneratorActivated:
			s.GeneratorActivations++
		case events.EventTypeGeneratorAborted:
			s.GeneratorAborts++
		case events.EventTypeBatteryDepleted:
			s.BatteryDepletions++
		case events.EventTypePickupUsed:
			s.PickupsUsed++
		case events.EventTypeRequestRejected:
			s.Rejections++
		case events.EventTypeAntagonistState:
			var p events.AntagonistStatePayload
			if json.Unmarshal([]byte(rec.Payload), &p) == nil && p.To == "CHASING" {
				s.Chases++
			}
		case events.EventTypeLightsChanged:
			var p events.LightsChangedPayload
			if json.Unmarshal([]byte(rec.Payload), &p) != nil {
				continue
			}
			switch {
			case !p.On && !dark:
				dark, darkSince = true, rec.SimTime()
			case p.On && dark:
				dark = false
				if d := rec.SimTime() - darkSince; d > s.LongestBlackout {
					s.LongestBlackout = d
				}
			}
		}
	}
	if dark {
		if d := s.LastSimTime - darkSince; d > s.LongestBlackout {
			s.LongestBlackout = d
		}
	}
	return s, nil
}

// Timeline lists the notable events of a session, skipping meter noise.
func (r *Recapper) Timeline(ctx context.Context, sessionID string) ([]RecapEvent, error) {
	records, err := r.eventRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var recap []RecapEvent
	for _, rec := range records {
		summary := r.summarizeEvent(rec)
		if summary == "" {
			continue
		}
		recap = append(recap, RecapEvent{
			SimTime:   formatSimTime(rec.SimTime()),
			EventType: rec.EventType,
			Summary:   summary,
			Impact:    r.determineImpact(rec),
		})
	}
	return recap, nil
}

// summarizeEvent creates a human-readable summary. Empty means not notable.
func (r *Recapper) summarizeEvent(rec EventRecord) string {
	switch events.EventType(rec.EventType) {
	case events.EventTypeSanityDepleted:
		return "Your mind gave way. The ward went dark."
	case events.EventTypeSanityRestored:
		return "You pulled yourself together."
	case events.EventTypeGeneratorStarted:
		return "The generator coughed into life."
	case events.EventTypeGeneratorActivated:
		return "Power restored. The lights are back."
	case events.EventTypeGeneratorAborted:
		return "The generator died before it caught."
	case events.EventTypeBatteryDepleted:
		return "Your flashlight flickered out."
	case events.EventTypePickupUsed:
		var p events.PickupPayload
		if json.Unmarshal([]byte(rec.Payload), &p) == nil {
			return "Used " + p.Item + "."
		}
		return "Used an item."
	case events.EventTypeAntagonistState:
		var p events.AntagonistStatePayload
		if json.Unmarshal([]byte(rec.Payload), &p) != nil {
			return ""
		}
		switch p.To {
		case "CHASING":
			return "Something saw you."
		case "SEARCHING":
			return "It lost you, and started looking."
		}
	}
	return ""
}

// determineImpact classifies the event impact.
func (r *Recapper) determineImpact(rec EventRecord) string {
	switch events.EventType(rec.EventType) {
	case events.EventTypeSanityDepleted, events.EventTypeGeneratorAborted,
		events.EventTypeBatteryDepleted, events.EventTypeAntagonistState:
		return "NEGATIVE"
	case events.EventTypeSanityRestored, events.EventTypeGeneratorActivated, events.EventTypePickupUsed:
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}

func formatSimTime(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
