// Package network - replay.go
// Event replay and session recap endpoints.
//
// The in-memory log answers /api/events; the SQLite journal, when enabled,
// answers /api/recap for the whole session.
package network

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/infra/storage"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// ReplayHandler provides the replay API.
type ReplayHandler struct {
	eventLog  *events.EventLog
	recapper  *storage.Recapper // nil when the journal is disabled
	sessionID string
	logger    *logger.Logger
}

// NewReplayHandler creates a new replay handler. recapper may be nil.
func NewReplayHandler(el *events.EventLog, recapper *storage.Recapper, sessionID string, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog:  el,
		recapper:  recapper,
		sessionID: sessionID,
		logger:    log,
	}
}

// ReplayResponse is the API response for event replay.
type ReplayResponse struct {
	SessionID   string             `json:"session_id"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// HandleReplay returns retained events, oldest first.
// GET /api/events?type=LIGHTS_CHANGED&since_ms=5000&limit=50
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	eventType := q.Get("type")
	var since time.Duration
	if s := q.Get("since_ms"); s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, "Invalid since_ms", http.StatusBadRequest)
			return
		}
		since = time.Duration(ms) * time.Millisecond
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	filtered := make([]events.GameEvent, 0)
	for _, e := range rh.eventLog.Replay() {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		if e.SimTime < since {
			continue
		}
		filtered = append(filtered, e)
	}
	// Keep the most recent when limited
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	writeJSON(w, http.StatusOK, ReplayResponse{
		SessionID:   rh.sessionID,
		TotalEvents: len(filtered),
		FilteredBy:  eventType,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	})
}

// HandleStats returns per-type counts over the retained history.
// GET /api/events/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := make(map[string]int)
	for _, e := range rh.eventLog.Replay() {
		stats[string(e.Type)]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_ever":   rh.eventLog.Total(),
		"stats":        stats,
	})
}

// HandleRecap returns the journal summary and timeline of this session.
// GET /api/recap
func (rh *ReplayHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rh.recapper == nil {
		writeError(w, "Session journal disabled", http.StatusServiceUnavailable)
		return
	}

	summary, err := rh.recapper.Summarize(r.Context(), rh.sessionID)
	if err != nil {
		rh.logger.Error("recap failed", "error", err)
		writeError(w, "Recap unavailable", http.StatusInternalServerError)
		return
	}
	timeline, err := rh.recapper.Timeline(r.Context(), rh.sessionID)
	if err != nil {
		rh.logger.Error("recap timeline failed", "error", err)
		writeError(w, "Recap unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary":  summary,
		"timeline": timeline,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events", rh.HandleReplay)
	mux.HandleFunc("/api/events/stats", rh.HandleStats)
	mux.HandleFunc("/api/recap", rh.HandleRecap)
}
