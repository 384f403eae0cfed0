package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/domain/item"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client is an active WebSocket connection.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	size := hub.cfg.ClientSendBuffer
	if size <= 0 {
		size = 256
	}
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, size),
	}
}

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type    string          `json:"type"`    // "PICKUP", "USE_ITEM", "TOGGLE_FLASHLIGHT", "MOVE", ...
	Payload json.RawMessage `json:"payload"` // Action-specific data
}

// ActionResult answers a PlayerAction.
type ActionResult struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.add(c)
}

// ReadPump pumps messages from the websocket connection to the engine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", "error", err)
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse PlayerAction from WebSocket", "error", err)
			continue
		}

		c.reply(action.Type, c.handlePlayerAction(action))
	}
}

// errRateLimited is returned for actions arriving faster than the cooldown allows.
var errRateLimited = errors.New("rate limited")

func (c *Client) handlePlayerAction(action PlayerAction) error {
	// MOVE streams continuously and is not rate limited
	if action.Type != "MOVE" {
		if time.Since(c.lastActionTime) < c.hub.cfg.ActionCooldown {
			c.hub.logger.Warn("Rate limit exceeded for client action", "action", action.Type)
			return errRateLimited
		}
		c.lastActionTime = time.Now()
	}

	eng := c.hub.engine
	switch action.Type {
	case "PICKUP":
		t, err := parseItem(action.Payload)
		if err != nil {
			return err
		}
		return eng.GivePickup(t)
	case "USE_ITEM":
		t, err := parseItem(action.Payload)
		if err != nil {
			return err
		}
		return eng.UsePickup(t)
	case "EQUIP_FLASHLIGHT":
		eng.EquipFlashlight()
	case "UNEQUIP_FLASHLIGHT":
		eng.UnequipFlashlight()
	case "TOGGLE_FLASHLIGHT":
		return eng.ToggleFlashlight()
	case "USE_SWITCH":
		return eng.UseSwitch()
	case "ACTIVATE_GENERATOR":
		return eng.ActivateGenerator()
	case "MOVE":
		return c.handleMove(action.Payload)
	default:
		c.hub.logger.Warn("Unknown PlayerAction type", "action", action.Type)
		return fmt.Errorf("unknown action %q", action.Type)
	}
	return nil
}

func (c *Client) handleMove(raw json.RawMessage) error {
	if c.hub.player == nil {
		return fmt.Errorf("no player body")
	}
	var pos struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	}
	if err := json.Unmarshal(raw, &pos); err != nil {
		return fmt.Errorf("parsing move payload: %w", err)
	}
	c.hub.engine.Do(func() {
		c.hub.player.SetPosition(r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z})
	})
	return nil
}

func parseItem(raw json.RawMessage) (item.ItemType, error) {
	var parsed struct {
		ItemType string `json:"item_type"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parsing item payload: %w", err)
	}
	return item.ItemType(parsed.ItemType), nil
}

func (c *Client) reply(action string, err error) {
	res := ActionResult{Action: action, OK: err == nil}
	if err != nil {
		res.Error = err.Error()
	}
	msg, mErr := encode(MsgTypeResult, res)
	if mErr != nil {
		return
	}
	c.hub.sendTo(c, msg)
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
