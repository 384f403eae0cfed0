// Package network - debug_bridge.go
// REST surface for the debug entry points and the live state read.
package network

import (
	"encoding/json"
	"net/http"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

// DebugBridge exposes the engine's debug setters over HTTP.
type DebugBridge struct {
	engine *engine.Engine
	logger *logger.Logger
}

// NewDebugBridge creates a new debug handler.
func NewDebugBridge(eng *engine.Engine, log *logger.Logger) *DebugBridge {
	return &DebugBridge{engine: eng, logger: log}
}

// SanityRequest is the payload for /api/debug/sanity.
type SanityRequest struct {
	Value int `json:"value"`
}

// BatteryRequest is the payload for /api/debug/battery.
type BatteryRequest struct {
	Value float64 `json:"value"`
}

// HandleSetSanity sets the sanity meter, clamped by the core.
// POST /api/debug/sanity
func (db *DebugBridge) HandleSetSanity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req SanityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	db.engine.SetSanity(req.Value)
	db.logger.Event("DEBUG_SET_SANITY", "DEBUG", "requested value applied")
	writeJSON(w, http.StatusOK, db.engine.Snapshot())
}

// HandleSetBattery sets the battery charge, clamped by the core.
// POST /api/debug/battery
func (db *DebugBridge) HandleSetBattery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req BatteryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	db.engine.SetBattery(req.Value)
	db.logger.Event("DEBUG_SET_BATTERY", "DEBUG", "requested value applied")
	writeJSON(w, http.StatusOK, db.engine.Snapshot())
}

// HandleForceGenerator starts the generator immediately.
// POST /api/debug/generator/force
func (db *DebugBridge) HandleForceGenerator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := db.engine.ForceActivateGenerator(); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, db.engine.Snapshot())
}

// HandleResetGenerator returns the generator to idle.
// POST /api/debug/generator/reset
func (db *DebugBridge) HandleResetGenerator(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	db.engine.ResetGenerator()
	writeJSON(w, http.StatusOK, db.engine.Snapshot())
}

// HandleState returns a consistent snapshot of every component.
// GET /api/state
func (db *DebugBridge) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, db.engine.Snapshot())
}

// RegisterRoutes sets up the debug API routes.
func (db *DebugBridge) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/debug/sanity", db.HandleSetSanity)
	mux.HandleFunc("/api/debug/battery", db.HandleSetBattery)
	mux.HandleFunc("/api/debug/generator/force", db.HandleForceGenerator)
	mux.HandleFunc("/api/debug/generator/reset", db.HandleResetGenerator)
	mux.HandleFunc("/api/state", db.HandleState)
}

// writeError sends an error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON sends data with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
