// Package storage provides the session journal: an append-only audit of every
// notification the core publishes. Game state is never restored from it.
// This package implements the repository pattern to keep the core pure.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
)

// EventRecord is the persisted form of an events.GameEvent.
type EventRecord struct {
	ID        string `json:"id" db:"id"`
	SessionID string `json:"session_id" db:"session_id"`
	Timestamp int64  `json:"timestamp_ns" db:"timestamp_ns"`
	SimMillis int64  `json:"sim_ms" db:"sim_ms"`
	EventType string `json:"event_type" db:"event_type"`
	ActorID   string `json:"actor_id" db:"actor_id"`
	TargetID  string `json:"target_id" db:"target_id"`
	Payload   string `json:"payload" db:"payload"` // JSON
}

// SimTime returns the simulation clock at publish time.
func (r EventRecord) SimTime() time.Duration {
	return time.Duration(r.SimMillis) * time.Millisecond
}

// NewEventRecord converts a bus event for storage.
func NewEventRecord(sessionID string, ev events.GameEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{
		ID:        ev.ID,
		SessionID: sessionID,
		Timestamp: ev.Timestamp.UnixNano(),
		SimMillis: ev.SimTime.Milliseconds(),
		EventType: string(ev.Type),
		ActorID:   ev.ActorID,
		TargetID:  ev.TargetID,
		Payload:   string(payload),
	}, nil
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// AppendBatch adds events to the ledger in one transaction.
	AppendBatch(ctx context.Context, records []EventRecord) error

	// GetBySession retrieves all events of a session in publish order.
	GetBySession(ctx context.Context, sessionID string) ([]EventRecord, error)

	// GetByType retrieves all events of one type in a session.
	GetByType(ctx context.Context, sessionID, eventType string) ([]EventRecord, error)

	// CountByType returns per-type totals for a session.
	CountByType(ctx context.Context, sessionID string) (map[string]int, error)
}

// Session is one run of the ward server.
type Session struct {
	ID        string        `json:"session_id" db:"session_id"`
	StartedAt int64         `json:"started_ns" db:"started_ns"`
	EndedAt   sql.NullInt64 `json:"-" db:"ended_ns"`
	Seed      int64         `json:"seed" db:"seed"`
	Detection string        `json:"detection" db:"detection"`
}

// SessionRepository defines the interface for session bookkeeping.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	End(ctx context.Context, sessionID string, at time.Time) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	List(ctx context.Context) ([]Session, error)
}
