// Package metrics provides observability for the ward server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
)

// Collector gathers performance and gameplay counters.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Bus metrics
	EventsPublished      int64
	SanityDepletions     int64
	GeneratorActivations int64
	BatteryDepletions    int64
	AntagonistChases     int64
	RequestsRejected     int64

	// Journal metrics
	JournalWrites  int64
	JournalBatches int64
	JournalDropped int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// Tap is a bus handler counting published events. Subscribe it with SubscribeAll.
func (c *Collector) Tap(ev events.GameEvent) {
	atomic.AddInt64(&c.EventsPublished, 1)
	switch ev.Type {
	case events.EventTypeSanityDepleted:
		atomic.AddInt64(&c.SanityDepletions, 1)
	case events.EventTypeGeneratorActivated:
		atomic.AddInt64(&c.GeneratorActivations, 1)
	case events.EventTypeBatteryDepleted:
		atomic.AddInt64(&c.BatteryDepletions, 1)
	case events.EventTypeRequestRejected:
		atomic.AddInt64(&c.RequestsRejected, 1)
	case events.EventTypeAntagonistState:
		if p, ok := ev.Payload.(events.AntagonistStatePayload); ok && p.To == "CHASING" {
			atomic.AddInt64(&c.AntagonistChases, 1)
		}
	}
}

// RecordJournalWrite records a committed journal batch of n events.
func (c *Collector) RecordJournalWrite(n int) {
	atomic.AddInt64(&c.JournalWrites, int64(n))
	atomic.AddInt64(&c.JournalBatches, 1)
}

// SetJournalDropped stores the journal's running drop count.
func (c *Collector) SetJournalDropped(n int64) {
	atomic.StoreInt64(&c.JournalDropped, n)
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)

	var tickAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"published":             atomic.LoadInt64(&c.EventsPublished),
			"sanity_depletions":     atomic.LoadInt64(&c.SanityDepletions),
			"generator_activations": atomic.LoadInt64(&c.GeneratorActivations),
			"battery_depletions":    atomic.LoadInt64(&c.BatteryDepletions),
			"antagonist_chases":     atomic.LoadInt64(&c.AntagonistChases),
			"requests_rejected":     atomic.LoadInt64(&c.RequestsRejected),
		},

		"journal": map[string]interface{}{
			"written": atomic.LoadInt64(&c.JournalWrites),
			"batches": atomic.LoadInt64(&c.JournalBatches),
			"dropped": atomic.LoadInt64(&c.JournalDropped),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP pabellon_%s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE pabellon_%s counter\n", name)
			fmt.Fprintf(w, "pabellon_%s %d\n\n", name, v)
		}

		counter("tick_count", "Total tick cycles", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP pabellon_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE pabellon_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "pabellon_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		counter("events_published", "Total events published on the bus", atomic.LoadInt64(&c.EventsPublished))
		counter("sanity_depletions", "Times sanity reached zero", atomic.LoadInt64(&c.SanityDepletions))
		counter("generator_activations", "Completed generator activations", atomic.LoadInt64(&c.GeneratorActivations))
		counter("battery_depletions", "Times the flashlight battery ran dry", atomic.LoadInt64(&c.BatteryDepletions))
		counter("antagonist_chases", "Chases started by the antagonist", atomic.LoadInt64(&c.AntagonistChases))
		counter("requests_rejected", "Requests refused by the core", atomic.LoadInt64(&c.RequestsRejected))
		counter("journal_written", "Events committed to the session journal", atomic.LoadInt64(&c.JournalWrites))
		counter("journal_dropped", "Events dropped on a full journal buffer", atomic.LoadInt64(&c.JournalDropped))

		fmt.Fprintf(w, "# HELP pabellon_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE pabellon_ws_connections gauge\n")
		fmt.Fprintf(w, "pabellon_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP pabellon_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE pabellon_ws_messages_total counter\n")
		fmt.Fprintf(w, "pabellon_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "pabellon_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
