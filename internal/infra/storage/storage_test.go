package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := InitSQLite(":memory:")
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func event(t events.EventType, sim time.Duration, payload interface{}) events.GameEvent {
	return events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		SimTime:   sim,
		Type:      t,
		ActorID:   "TEST",
		Payload:   payload,
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSessionRepository(openTestDB(t))

	if err := repo.Create(ctx, Session{ID: "s1", StartedAt: 10, Seed: 7, Detection: "sight"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Seed != 7 || got.Detection != "sight" || got.EndedAt.Valid {
		t.Errorf("unexpected session %+v", got)
	}

	if err := repo.End(ctx, "s1", time.Unix(0, 99)); err != nil {
		t.Fatalf("End: %v", err)
	}
	got, _ = repo.Get(ctx, "s1")
	if !got.EndedAt.Valid || got.EndedAt.Int64 != 99 {
		t.Errorf("expected end 99, got %+v", got.EndedAt)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v %d", err, len(list))
	}

	if _, err := repo.Get(ctx, "missing"); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestEventRepositoryOrderAndCounts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	NewSQLiteSessionRepository(db).Create(ctx, Session{ID: "s1"})
	repo := NewSQLiteEventRepository(db)

	var batch []EventRecord
	for i, typ := range []events.EventType{
		events.EventTypeSanityChanged,
		events.EventTypeSanityChanged,
		events.EventTypeSanityDepleted,
	} {
		rec, err := NewEventRecord("s1", event(typ, time.Duration(i)*time.Second, events.ZeroCrossingPayload{Resource: "sanity"}))
		if err != nil {
			t.Fatal(err)
		}
		batch = append(batch, rec)
	}
	if err := repo.AppendBatch(ctx, batch); err != nil {
		t.Fatalf("AppendBatch: %v", err)
	}

	all, err := repo.GetBySession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[2].EventType != string(events.EventTypeSanityDepleted) {
		t.Fatalf("unexpected order: %+v", all)
	}
	if all[1].SimTime() != time.Second {
		t.Errorf("sim time round trip: %v", all[1].SimTime())
	}

	counts, err := repo.CountByType(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if counts[string(events.EventTypeSanityChanged)] != 2 || counts[string(events.EventTypeSanityDepleted)] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}

	depleted, _ := repo.GetByType(ctx, "s1", string(events.EventTypeSanityDepleted))
	if len(depleted) != 1 {
		t.Errorf("expected 1 depleted, got %d", len(depleted))
	}

	// Duplicate IDs roll back the whole batch
	if err := repo.AppendBatch(ctx, batch[:1]); err == nil {
		t.Error("expected duplicate id to fail")
	}
	all, _ = repo.GetBySession(ctx, "s1")
	if len(all) != 3 {
		t.Errorf("failed batch leaked rows: %d", len(all))
	}
}

func TestJournalFlushesOnClose(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	NewSQLiteSessionRepository(db).Create(ctx, Session{ID: "s1"})
	repo := NewSQLiteEventRepository(db)

	j := NewJournal(repo, "s1", logger.NewNop())
	batches := 0
	j.OnWrite(func(int) { batches++ })

	bus := events.NewBus(events.NewEventLog(j))
	for i := 0; i < 100; i++ {
		bus.Publish(events.GameEvent{Type: events.EventTypeTimeTick, ActorID: "TEST"})
	}
	j.Close()
	j.Close()

	if j.Written() != 100 || j.Dropped() != 0 {
		t.Fatalf("written=%d dropped=%d", j.Written(), j.Dropped())
	}
	if batches < 2 {
		t.Errorf("expected batching, got %d writes", batches)
	}
	counts, _ := repo.CountByType(ctx, "s1")
	if counts[string(events.EventTypeTimeTick)] != 100 {
		t.Errorf("expected 100 ticks stored, got %v", counts)
	}

	// Appends after close are ignored
	if err := j.Append(event(events.EventTypeTimeTick, 0, nil)); err != nil {
		t.Error(err)
	}
	if j.Written() != 100 {
		t.Error("append after close was written")
	}
}

func TestRecapSummarize(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	NewSQLiteSessionRepository(db).Create(ctx, Session{ID: "s1"})
	repo := NewSQLiteEventRepository(db)

	evs := []events.GameEvent{
		event(events.EventTypeSanityDepleted, 1*time.Second, events.ZeroCrossingPayload{Resource: "sanity"}),
		event(events.EventTypeLightsChanged, 1*time.Second, events.LightsChangedPayload{On: false}),
		event(events.EventTypeAntagonistState, 2*time.Second, events.AntagonistStatePayload{From: "INACTIVE", To: "PATROLLING"}),
		event(events.EventTypeAntagonistState, 3*time.Second, events.AntagonistStatePayload{From: "PATROLLING", To: "CHASING"}),
		event(events.EventTypeGeneratorActivated, 6*time.Second, events.GeneratorPayload{Phase: "COOLDOWN"}),
		event(events.EventTypeLightsChanged, 6*time.Second, events.LightsChangedPayload{On: true}),
		event(events.EventTypePickupUsed, 7*time.Second, events.PickupPayload{Item: "SANITY_PILLS", Amount: 20}),
		event(events.EventTypeSanityRestored, 7*time.Second, events.ZeroCrossingPayload{Resource: "sanity", Value: 20}),
		event(events.EventTypeLightsChanged, 8*time.Second, events.LightsChangedPayload{On: false}),
		event(events.EventTypeRequestRejected, 9*time.Second, events.RejectedPayload{Reason: "x"}),
	}
	var batch []EventRecord
	for _, ev := range evs {
		rec, _ := NewEventRecord("s1", ev)
		batch = append(batch, rec)
	}
	if err := repo.AppendBatch(ctx, batch); err != nil {
		t.Fatal(err)
	}

	r := NewRecapper(repo)
	s, err := r.Summarize(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if s.SanityDepletions != 1 || s.SanityRestorations != 1 || s.Chases != 1 ||
		s.GeneratorActivations != 1 || s.PickupsUsed != 1 || s.Rejections != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.LongestBlackout != 5*time.Second {
		t.Errorf("expected 5s blackout, got %v", s.LongestBlackout)
	}

	timeline, err := r.Timeline(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	// depleted, chase, activated, pickup, restored
	if len(timeline) != 5 {
		t.Fatalf("expected 5 notable events, got %d: %+v", len(timeline), timeline)
	}
	if timeline[1].Summary != "Something saw you." || timeline[1].SimTime != "00:03" {
		t.Errorf("unexpected chase entry %+v", timeline[1])
	}
	if timeline[3].Summary != "Used SANITY_PILLS." || timeline[3].Impact != "POSITIVE" {
		t.Errorf("unexpected pickup entry %+v", timeline[3])
	}
}
