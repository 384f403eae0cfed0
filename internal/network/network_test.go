package network

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/infra/storage"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/metrics"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/sim"
)

type fixture struct {
	engine *engine.Engine
	bus    *events.Bus
	player *sim.Player
	cfg    *config.Config
}

func newFixture(t *testing.T, persister events.EventPersister) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Tick.Seed = 1
	cfg.Network.ActionCooldown = 0

	floor := sim.NewFloor(60, 60, 1)
	player := sim.NewPlayer(r3.Vec{X: 55, Y: 55})
	bus := events.NewBus(events.NewEventLog(persister))
	eng := engine.NewEngine(cfg, bus, engine.Collaborators{
		AntagonistMover: sim.NewMover(r3.Vec{X: 10, Y: 10}, 2, floor),
		Nav:             floor,
		Player:          player,
	}, logger.NewNop())
	return &fixture{engine: eng, bus: bus, player: player, cfg: cfg}
}

func post(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rr
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) engine.Snapshot {
	t.Helper()
	var s engine.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&s); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	return s
}

func TestDebugBridgeSanity(t *testing.T) {
	f := newFixture(t, nil)
	db := NewDebugBridge(f.engine, logger.NewNop())

	rr := post(t, db.HandleSetSanity, "/api/debug/sanity", `{"value": -20}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	s := decodeSnapshot(t, rr)
	if s.Sanity != 0 || s.LightsOn || !s.AntagonistOn || s.AntagonistState != "PATROLLING" {
		t.Errorf("zero sanity not applied: %+v", s)
	}

	rr = post(t, db.HandleSetSanity, "/api/debug/sanity", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	db.HandleSetSanity(rr, httptest.NewRequest(http.MethodGet, "/api/debug/sanity", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestDebugBridgeGenerator(t *testing.T) {
	f := newFixture(t, nil)
	db := NewDebugBridge(f.engine, logger.NewNop())

	f.engine.SetSanity(0)
	rr := post(t, db.HandleForceGenerator, "/api/debug/generator/force", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected force to be refused at zero sanity, got %d", rr.Code)
	}

	f.engine.SetSanity(30)
	rr = post(t, db.HandleForceGenerator, "/api/debug/generator/force", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if s := decodeSnapshot(t, rr); !s.LightsOn || !s.OverrideActive {
		t.Errorf("forced generator did not light the ward: %+v", s)
	}

	rr = post(t, db.HandleResetGenerator, "/api/debug/generator/reset", "")
	if s := decodeSnapshot(t, rr); s.GeneratorPhase != engine.PhaseIdle {
		t.Errorf("expected idle after reset, got %s", s.GeneratorPhase)
	}

	rr = post(t, db.HandleSetBattery, "/api/debug/battery", `{"value": 250}`)
	if s := decodeSnapshot(t, rr); s.Battery != s.BatteryMax {
		t.Errorf("battery not clamped: %v", s.Battery)
	}
}

func TestReplayFilters(t *testing.T) {
	f := newFixture(t, nil)
	rh := NewReplayHandler(f.bus.Log(), nil, "s1", logger.NewNop())

	f.engine.SetSanity(0)
	f.engine.SetSanity(50)
	f.engine.SetSanity(0)

	rr := httptest.NewRecorder()
	rh.HandleReplay(rr, httptest.NewRequest(http.MethodGet, "/api/events?type=SANITY_DEPLETED", nil))
	var resp ReplayResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.TotalEvents != 2 || resp.SessionID != "s1" {
		t.Errorf("expected 2 depletions, got %+v", resp)
	}

	rr = httptest.NewRecorder()
	rh.HandleReplay(rr, httptest.NewRequest(http.MethodGet, "/api/events?limit=1", nil))
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.TotalEvents != 1 {
		t.Errorf("limit ignored: %d", resp.TotalEvents)
	}

	rr = httptest.NewRecorder()
	rh.HandleReplay(rr, httptest.NewRequest(http.MethodGet, "/api/events?since_ms=abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	rh.HandleRecap(rr, httptest.NewRequest(http.MethodGet, "/api/recap", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without journal, got %d", rr.Code)
	}
}

func TestRecapFromJournal(t *testing.T) {
	ctx := context.Background()
	db, err := storage.InitSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	storage.NewSQLiteSessionRepository(db).Create(ctx, storage.Session{ID: "s1", Detection: "radius"})
	repo := storage.NewSQLiteEventRepository(db)
	journal := storage.NewJournal(repo, "s1", logger.NewNop())

	f := newFixture(t, journal)
	f.engine.SetSanity(0)
	f.engine.SetSanity(60)
	journal.Close()

	rh := NewReplayHandler(f.bus.Log(), storage.NewRecapper(repo), "s1", logger.NewNop())
	rr := httptest.NewRecorder()
	rh.HandleRecap(rr, httptest.NewRequest(http.MethodGet, "/api/recap", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Summary storage.SessionSummary `json:"summary"`
	}
	json.NewDecoder(rr.Body).Decode(&body)
	if body.Summary.SanityDepletions != 1 || body.Summary.SanityRestorations != 1 {
		t.Errorf("unexpected summary %+v", body.Summary)
	}
}

// readMessages reads one frame and splits the batched envelopes in it.
func readMessages(t *testing.T, conn *websocket.Conn) []Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out []Message
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			t.Fatalf("bad envelope %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

// awaitResult reads until the RESULT for action arrives, collecting event types seen.
func awaitResult(t *testing.T, conn *websocket.Conn, action string) (ActionResult, []string) {
	t.Helper()
	var seen []string
	for i := 0; i < 20; i++ {
		for _, m := range readMessages(t, conn) {
			raw, _ := json.Marshal(m.Payload)
			switch m.Type {
			case MsgTypeEvent:
				var ev struct {
					Type string `json:"type"`
				}
				json.Unmarshal(raw, &ev)
				seen = append(seen, ev.Type)
			case MsgTypeResult:
				var res ActionResult
				json.Unmarshal(raw, &res)
				if res.Action == action {
					return res, seen
				}
			}
		}
	}
	t.Fatalf("no result for %s", action)
	return ActionResult{}, nil
}

func TestWebSocketActions(t *testing.T) {
	f := newFixture(t, nil)
	m := metrics.NewCollector()
	hub := NewHub(f.engine, f.player, f.cfg.Network, m, logger.NewNop())
	f.bus.SubscribeAll(hub.Tap)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readMessages(t, conn)
	if first[0].Type != MsgTypeState {
		t.Fatalf("expected STATE on connect, got %s", first[0].Type)
	}

	send := func(action string, payload string) {
		msg := `{"type":"` + action + `"`
		if payload != "" {
			msg += `,"payload":` + payload
		}
		msg += `}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
	}

	send("PICKUP", `{"item_type":"SANITY_PILLS"}`)
	if res, _ := awaitResult(t, conn, "PICKUP"); !res.OK {
		t.Fatalf("pickup failed: %+v", res)
	}

	f.engine.SetSanity(60)
	send("USE_ITEM", `{"item_type":"SANITY_PILLS"}`)
	if res, _ := awaitResult(t, conn, "USE_ITEM"); !res.OK {
		t.Fatalf("use failed: %+v", res)
	}

	send("TOGGLE_FLASHLIGHT", "")
	if res, _ := awaitResult(t, conn, "TOGGLE_FLASHLIGHT"); res.OK || res.Error != engine.ErrNotEquipped.Error() {
		t.Errorf("expected not-equipped rejection, got %+v", res)
	}

	send("EQUIP_FLASHLIGHT", "")
	if res, _ := awaitResult(t, conn, "EQUIP_FLASHLIGHT"); !res.OK {
		t.Fatalf("equip failed: %+v", res)
	}
	send("TOGGLE_FLASHLIGHT", "")
	if res, _ := awaitResult(t, conn, "TOGGLE_FLASHLIGHT"); !res.OK {
		t.Fatalf("toggle after equip failed: %+v", res)
	}
	var lit bool
	f.engine.Do(func() { lit = f.engine.Flashlight().IsSwitchedOn() })
	if !lit {
		t.Error("flashlight not switched on")
	}

	send("USE_SWITCH", "")
	if res, _ := awaitResult(t, conn, "USE_SWITCH"); !res.OK {
		t.Fatalf("switch failed: %+v", res)
	}
	if snap := f.engine.Snapshot(); snap.LightsOn {
		t.Error("switch did not turn the lights off")
	}

	send("MOVE", `{"x":12,"y":34}`)
	if res, _ := awaitResult(t, conn, "MOVE"); !res.OK {
		t.Fatalf("move failed: %+v", res)
	}
	var pos r3.Vec
	f.engine.Do(func() { pos = f.player.CurrentPlayerPosition() })
	if pos.X != 12 || pos.Y != 34 {
		t.Errorf("player not moved: %+v", pos)
	}

	send("DANCE", "")
	if res, _ := awaitResult(t, conn, "DANCE"); res.OK {
		t.Error("unknown action accepted")
	}

	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
	if in := atomic.LoadInt64(&m.WSMessagesIn); in != 8 {
		t.Errorf("expected 8 incoming messages, got %d", in)
	}
}
