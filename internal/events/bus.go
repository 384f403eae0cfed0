// Package events - bus.go
// Synchronous, ordered publish/subscribe for the tick thread.
//
// Delivery rules:
//   - Handlers run in subscription order, typed handlers before taps.
//   - An event published while another is being dispatched is queued and
//     delivered after the current broadcast reaches every subscriber.
//   - The Bus is not safe for concurrent use; it lives behind the engine lock.
package events

import (
	"time"
)

// Handler reacts to a single event.
type Handler func(GameEvent)

// Bus dispatches events to subscribers and appends them to the EventLog.
type Bus struct {
	handlers    map[EventType][]Handler
	taps        []Handler
	queue       []GameEvent
	dispatching bool

	log   *EventLog
	clock func() time.Duration
	now   func() time.Time
}

// NewBus creates a bus recording into log (may be nil).
func NewBus(log *EventLog) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log,
		clock:    func() time.Duration { return 0 },
		now:      time.Now,
	}
}

// SetClock installs the simulation clock used to stamp SimTime.
func (b *Bus) SetClock(clock func() time.Duration) {
	if clock != nil {
		b.clock = clock
	}
}

// Log returns the backing event log.
func (b *Bus) Log() *EventLog {
	return b.log
}

// Subscribe registers h for one event type.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers h for every event. Taps run after typed handlers,
// which makes them the right place for presentation and journaling sinks.
func (b *Bus) SubscribeAll(h Handler) {
	b.taps = append(b.taps, h)
}

// Publish broadcasts a single event.
func (b *Bus) Publish(ev GameEvent) {
	b.PublishBatch(ev)
}

// PublishBatch enqueues all events as one unit and drains the queue unless a
// dispatch is already in progress further up the stack.
func (b *Bus) PublishBatch(evs ...GameEvent) {
	for _, ev := range evs {
		b.queue = append(b.queue, b.stamp(ev))
	}
	if b.dispatching {
		return
	}

	b.dispatching = true
	defer func() { b.dispatching = false }()

	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]

		if b.log != nil {
			b.log.Append(next)
		}
		for _, h := range b.handlers[next.Type] {
			h(next)
		}
		for _, h := range b.taps {
			h(next)
		}
	}
	b.queue = b.queue[:0]
}

// Pending reports how many events are queued behind the current dispatch.
func (b *Bus) Pending() int {
	return len(b.queue)
}

func (b *Bus) stamp(ev GameEvent) GameEvent {
	if ev.ID == "" {
		ev.ID = GenerateEventID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = b.now()
	}
	ev.SimTime = b.clock()
	return ev
}
