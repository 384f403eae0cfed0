// Package events provides the notification protocol for the ward core.
// Every state change a component makes is published as a GameEvent on the Bus
// and recorded in an append-only EventLog for replay and auditing.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeTimeTick           EventType = "TIME_TICK"
	EventTypeSanityChanged      EventType = "SANITY_CHANGED"
	EventTypeSanityDepleted     EventType = "SANITY_DEPLETED"
	EventTypeSanityRestored     EventType = "SANITY_RESTORED"
	EventTypeSanityThreshold    EventType = "SANITY_THRESHOLD"
	EventTypeLightsChanged      EventType = "LIGHTS_CHANGED"
	EventTypeBatteryChanged     EventType = "BATTERY_CHANGED"
	EventTypeBatteryDepleted    EventType = "BATTERY_DEPLETED"
	EventTypeBatteryRestored    EventType = "BATTERY_RESTORED"
	EventTypeFlashlightChanged  EventType = "FLASHLIGHT_CHANGED"
	EventTypeGeneratorStarted   EventType = "GENERATOR_STARTED"
	EventTypeGeneratorActivated EventType = "GENERATOR_ACTIVATED"
	EventTypeGeneratorAborted   EventType = "GENERATOR_ABORTED"
	EventTypeGeneratorReady     EventType = "GENERATOR_READY"
	EventTypeAntagonistState    EventType = "ANTAGONIST_STATE"
	EventTypeCrowdFreeze        EventType = "CROWD_FREEZE"
	EventTypePickupUsed         EventType = "PICKUP_USED"
	EventTypeRequestRejected    EventType = "REQUEST_REJECTED"
)

// GameEvent represents an immutable record of a state change in the session.
type GameEvent struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	SimTime   time.Duration `json:"sim_time"` // Simulation clock at publish time
	Type      EventType     `json:"type"`
	ActorID   string        `json:"actor_id"`            // Component that published it
	TargetID  string        `json:"target_id,omitempty"` // Affected entity (optional)
	Payload   interface{}   `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// DefaultLogLimit bounds the in-memory history kept for replay.
const DefaultLogLimit = 4096

// EventLog is the in-memory append-only log of session events.
// Oldest entries are dropped once the limit is reached; the persister, if any,
// keeps the full history.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	limit     int
	total     int
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0, 256),
		limit:     DefaultLogLimit,
		persister: persister,
	}
}

// SetLimit changes the number of events retained in memory.
func (el *EventLog) SetLimit(limit int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	if limit > 0 {
		el.limit = limit
		el.trimLocked()
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	el.events = append(el.events, event)
	el.total++
	el.trimLocked()
	el.mu.Unlock()

	if el.persister != nil {
		// Persisters are expected to be non-blocking (see storage.Journal)
		_ = el.persister.Append(event)
	}
}

func (el *EventLog) trimLocked() {
	if over := len(el.events) - el.limit; over > 0 {
		el.events = append(el.events[:0:0], el.events[over:]...)
	}
}

// GetByActor returns all retained events published by a specific component.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all retained events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Count returns how many events of type t are retained.
func (el *EventLog) Count(t EventType) int {
	el.mu.RLock()
	defer el.mu.RUnlock()

	n := 0
	for _, e := range el.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Total returns the number of events ever appended, including trimmed ones.
func (el *EventLog) Total() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.total
}

// Replay returns a copy of the retained history in publish order.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
