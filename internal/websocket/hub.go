package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meomirror/server/internal/bus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Display clients only ever send small control/keepalive frames.
	maxMessageSize = 1024

	// Buffered synthesized-audio frames per client.
	audioQueueSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The mirror lives on a trusted LAN; accept any origin.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of connected display clients. Each client drains its
// own bus subscription for state snapshots; the hub itself only fans out
// synthesized voice audio as binary frames.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	bus    *bus.Bus
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(b *bus.Bus, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bus:        b,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Display client connected", zap.String("subscriberID", client.sub.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.audio)
			}
			h.mu.Unlock()
			h.bus.Unsubscribe(client.sub)
			h.logger.Info("Display client disconnected", zap.String("subscriberID", client.sub.ID))
		}
	}
}

// BroadcastAudio queues a synthesized-audio chunk on every client. A client
// that cannot keep up simply misses chunks; playback never blocks the
// dispatcher.
func (h *Hub) BroadcastAudio(chunk []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.audio <- chunk:
		default:
		}
	}
}

// ClientCount reports the number of connected display clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is a middleman between one websocket connection and the bus.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	sub   *bus.Subscriber
	audio chan []byte

	logger *zap.Logger
}

// HandleWebSocket upgrades the request and starts the client's pumps. The
// first snapshot the client receives is the current state, courtesy of the
// bus subscription.
func HandleWebSocket(hub *Hub, c echo.Context, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		sub:    hub.bus.Subscribe(),
		audio:  make(chan []byte, audioQueueSize),
		logger: logger,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump discards inbound frames and tears the client down when the
// connection dies.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}
	}
}

// writePump forwards snapshots as JSON text messages and synthesized audio
// as binary messages.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case snapshot, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(snapshot)
			if err != nil {
				c.logger.Error("Failed to marshal snapshot", zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Error("Failed to write snapshot", zap.Error(err))
				return
			}

		case chunk, ok := <-c.audio:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				c.logger.Error("Failed to write audio chunk", zap.Error(err))
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
