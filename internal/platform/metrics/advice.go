package metrics

import (
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
)

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseBroadcastBuffer bool
	IncreaseClientBuffer    bool
	SlowTick                bool
	Notes                   []string
}

// Analyze examines a Snapshot against the tick interval and returns tuning advice.
func Analyze(snapshot map[string]interface{}, tick time.Duration) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	// Check tick latency
	if t, ok := snapshot["tick"].(map[string]interface{}); ok {
		if maxLat, ok := t["max_latency_ms"].(float64); ok && maxLat > float64(tick.Milliseconds())/2 {
			rec.SlowTick = true
			rec.Notes = append(rec.Notes, "Tick latency exceeds half the tick interval - raise tick.interval")
		}
	}

	// Check journal backpressure
	if j, ok := snapshot["journal"].(map[string]interface{}); ok {
		if dropped, ok := j["dropped"].(int64); ok && dropped > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "Journal dropped events - the SQLite writer cannot keep up")
		}
	}

	// Check WebSocket backpressure
	if ws, ok := snapshot["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseClientBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	return rec
}

// ApplyRecommendations modifies the network config based on recommendations.
func ApplyRecommendations(cfg config.NetworkConfig, rec *Recommendations) config.NetworkConfig {
	if rec.IncreaseBroadcastBuffer {
		cfg.BroadcastBuffer *= 2
	}
	if rec.IncreaseClientBuffer {
		cfg.ClientSendBuffer *= 2
	}
	return cfg
}
