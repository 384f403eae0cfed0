package events

import (
	"testing"
	"time"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(NewEventLog(nil))
	var order []string

	bus.Subscribe(EventTypeSanityDepleted, func(GameEvent) { order = append(order, "lighting") })
	bus.Subscribe(EventTypeSanityDepleted, func(GameEvent) { order = append(order, "crowd") })
	bus.SubscribeAll(func(GameEvent) { order = append(order, "tap") })
	bus.Subscribe(EventTypeSanityDepleted, func(GameEvent) { order = append(order, "antagonist") })

	bus.Publish(GameEvent{Type: EventTypeSanityDepleted})

	want := []string{"lighting", "crowd", "antagonist", "tap"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestBusQueuesNestedPublishUntilBroadcastCompletes(t *testing.T) {
	bus := NewBus(NewEventLog(nil))
	var seen []string

	bus.Subscribe(EventTypeSanityDepleted, func(GameEvent) {
		seen = append(seen, "first:depleted")
		bus.Publish(GameEvent{Type: EventTypeLightsChanged})
	})
	bus.Subscribe(EventTypeSanityDepleted, func(GameEvent) {
		seen = append(seen, "second:depleted")
	})
	bus.Subscribe(EventTypeLightsChanged, func(GameEvent) {
		seen = append(seen, "lights")
	})

	bus.Publish(GameEvent{Type: EventTypeSanityDepleted})

	want := []string{"first:depleted", "second:depleted", "lights"}
	for i := range want {
		if i >= len(seen) || seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
	if bus.Pending() != 0 {
		t.Errorf("pending = %d after drain", bus.Pending())
	}
}

func TestBusStampsAndLogs(t *testing.T) {
	log := NewEventLog(nil)
	bus := NewBus(log)
	bus.SetClock(func() time.Duration { return 42 * time.Second })

	bus.PublishBatch(
		GameEvent{Type: EventTypeSanityChanged},
		GameEvent{Type: EventTypeSanityDepleted},
	)

	got := log.Replay()
	if len(got) != 2 {
		t.Fatalf("logged %d events, want 2", len(got))
	}
	for _, ev := range got {
		if ev.ID == "" || ev.Timestamp.IsZero() {
			t.Errorf("event not stamped: %+v", ev)
		}
		if ev.SimTime != 42*time.Second {
			t.Errorf("sim time = %v, want 42s", ev.SimTime)
		}
	}
	if got[0].Type != EventTypeSanityChanged || got[1].Type != EventTypeSanityDepleted {
		t.Errorf("batch order not preserved: %v, %v", got[0].Type, got[1].Type)
	}
}

func TestEventLogTrimsOldest(t *testing.T) {
	log := NewEventLog(nil)
	log.SetLimit(3)
	for i := 0; i < 5; i++ {
		log.Append(GameEvent{ID: string(rune('a' + i)), Type: EventTypeTimeTick})
	}

	got := log.Replay()
	if len(got) != 3 || got[0].ID != "c" || got[2].ID != "e" {
		t.Fatalf("retained %v", got)
	}
	if log.Total() != 5 {
		t.Errorf("total = %d, want 5", log.Total())
	}
}

type recordingPersister struct {
	got []GameEvent
}

func (r *recordingPersister) Append(ev GameEvent) error {
	r.got = append(r.got, ev)
	return nil
}

func TestEventLogWritesThroughToPersister(t *testing.T) {
	p := &recordingPersister{}
	log := NewEventLog(p)
	log.Append(GameEvent{ID: "x", Type: EventTypeGeneratorActivated, ActorID: "generator"})

	if len(p.got) != 1 || p.got[0].ID != "x" {
		t.Fatalf("persister got %v", p.got)
	}
	if n := len(log.GetByActor("generator")); n != 1 {
		t.Errorf("GetByActor = %d, want 1", n)
	}
	if n := log.Count(EventTypeGeneratorActivated); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
