package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const eventColumns = `id, session_id, timestamp_ns, sim_ms, event_type, actor_id, target_id, payload`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sqlx.DB
}

func NewSQLiteEventRepository(db *sqlx.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) AppendBatch(ctx context.Context, records []EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal batch: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO events (` + eventColumns + `)
		VALUES (:id, :session_id, :timestamp_ns, :sim_ms, :event_type, :actor_id, :target_id, :payload)`
	for _, rec := range records {
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("failed to append event %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit journal batch: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) GetBySession(ctx context.Context, sessionID string) ([]EventRecord, error) {
	var out []EventRecord
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? ORDER BY sim_ms ASC, rowid ASC`
	if err := r.db.SelectContext(ctx, &out, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to read session events: %w", err)
	}
	return out, nil
}

func (r *SQLiteEventRepository) GetByType(ctx context.Context, sessionID, eventType string) ([]EventRecord, error) {
	var out []EventRecord
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? AND event_type = ? ORDER BY sim_ms ASC, rowid ASC`
	if err := r.db.SelectContext(ctx, &out, query, sessionID, eventType); err != nil {
		return nil, fmt.Errorf("failed to read %s events: %w", eventType, err)
	}
	return out, nil
}

func (r *SQLiteEventRepository) CountByType(ctx context.Context, sessionID string) (map[string]int, error) {
	var rows []struct {
		EventType string `db:"event_type"`
		N         int    `db:"n"`
	}
	query := `SELECT event_type, COUNT(*) AS n FROM events WHERE session_id = ? GROUP BY event_type`
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.N
	}
	return counts, nil
}

// ---------------------------------------------------------
// SQLiteSessionRepository
// ---------------------------------------------------------

type SQLiteSessionRepository struct {
	db *sqlx.DB
}

func NewSQLiteSessionRepository(db *sqlx.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, s Session) error {
	query := `INSERT INTO sessions (session_id, started_ns, seed, detection)
		VALUES (:session_id, :started_ns, :seed, :detection)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) End(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET ended_ns = ? WHERE session_id = ?`, at.UnixNano(), sessionID)
	return err
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	query := `SELECT session_id, started_ns, ended_ns, seed, detection FROM sessions WHERE session_id = ?`
	if err := r.db.GetContext(ctx, &s, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return &s, nil
}

func (r *SQLiteSessionRepository) List(ctx context.Context) ([]Session, error) {
	var out []Session
	query := `SELECT session_id, started_ns, ended_ns, seed, detection FROM sessions ORDER BY started_ns DESC`
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return out, nil
}
