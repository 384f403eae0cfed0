package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/engine"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/config"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/metrics"
)

// Message types sent to clients.
const (
	MsgTypeEvent  = "EVENT"  // A bus notification
	MsgTypeState  = "STATE"  // Full snapshot, sent on connect
	MsgTypeResult = "RESULT" // Outcome of one PlayerAction
)

// Message is the envelope for everything written to a websocket.
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PlayerMover is the player body MOVE actions update.
type PlayerMover interface {
	SetPosition(pos r3.Vec)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients   map[*Client]bool
	broadcast chan []byte
	mu        sync.Mutex

	engine  *engine.Engine
	player  PlayerMover
	cfg     config.NetworkConfig
	metrics *metrics.Collector
	logger  *logger.Logger
}

// NewHub initializes a new WebSocket Hub. player may be nil, which disables MOVE.
func NewHub(eng *engine.Engine, player PlayerMover, cfg config.NetworkConfig, m *metrics.Collector, log *logger.Logger) *Hub {
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Hub{
		broadcast: make(chan []byte, cfg.BroadcastBuffer),
		clients:   make(map[*Client]bool),
		engine:    eng,
		player:    player,
		cfg:       cfg,
		metrics:   m,
		logger:    log,
	}
}

// Run starts the Hub's broadcast loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer, drop it
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// add registers a client synchronously so replies to its first action are never lost.
func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.metrics.RecordWSConnection(1)
	h.logger.Info("New WebSocket client connected")
}

// remove unregisters a client and closes its send channel. Safe to call twice.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.metrics.RecordWSConnection(-1)
		h.logger.Info("WebSocket client disconnected")
	}
}

// sendTo queues msg for one client if it is still registered.
func (h *Hub) sendTo(c *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- msg:
		h.metrics.RecordWSMessage(false)
	default:
		h.metrics.RecordWSError()
	}
}

// Tap is a bus handler forwarding every event to the clients. It runs on the
// tick thread and never blocks: when the broadcast buffer is full the event is dropped.
func (h *Hub) Tap(ev events.GameEvent) {
	payload, err := encode(MsgTypeEvent, ev)
	if err != nil {
		h.logger.Error("Failed to serialize GameEvent for WebSocket broadcast", "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.metrics.RecordWSError()
		h.logger.Debug("broadcast buffer full, event dropped", "type", string(ev.Type))
	}
}

// ServeWS upgrades the request and starts the client pumps.
// GET /ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h, conn)
	if state, err := encode(MsgTypeState, h.engine.Snapshot()); err == nil {
		client.send <- state
	}
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	})
}
