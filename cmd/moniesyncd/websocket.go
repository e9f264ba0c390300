// WebSocket fan-out of sync lifecycle and connectivity events to local
// UI clients.
package main

import (
	"encoding/json"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moniehq/moniesync/internal/ident"
	"github.com/moniehq/moniesync/internal/logging"
	syncengine "github.com/moniehq/moniesync/internal/sync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The daemon serves local UIs only.
		host := r.Host
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		return host == "localhost" || host == "127.0.0.1"
	},
}

const (
	EventSyncStarted   = "sync.started"
	EventSyncProgress  = "sync.progress"
	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"

	EventNetworkOnline  = "network.online"
	EventNetworkOffline = "network.offline"

	EventNotification = "notification"
)

// WSEnvelope wraps every message sent to clients.
type WSEnvelope struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// WSClient is one connected UI.
type WSClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *WSHub
}

// WSHub tracks connected clients and fans broadcast messages out to
// them. It doubles as the sync engine's observer and as a notifier, so
// every lifecycle event and user-facing notice reaches the UI.
type WSHub struct {
	clients    map[string]*WSClient
	broadcast  chan []byte
	register   chan *WSClient
	unregister chan *WSClient
	mu         gosync.RWMutex
}

func NewWSHub() *WSHub {
	hub := &WSHub{
		clients:    make(map[string]*WSClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
	go hub.run()
	return hub
}

func (h *WSHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			logging.Debug("websocket client connected", map[string]interface{}{
				"client_id": client.id,
				"total":     total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logging.Debug("websocket client disconnected", map[string]interface{}{
				"client_id": client.id,
				"total":     total,
			})

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it.
					close(client.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast fans an event out to every connected client.
func (h *WSHub) Broadcast(messageType string, data map[string]interface{}) {
	envelope := WSEnvelope{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		logging.Warn("failed to marshal websocket event", map[string]interface{}{
			"type":  messageType,
			"error": err.Error(),
		})
		return
	}

	h.broadcast <- payload
}

// SyncStarted implements the engine's observer.
func (h *WSHub) SyncStarted(total int) {
	h.Broadcast(EventSyncStarted, map[string]interface{}{
		"total": total,
	})
}

func (h *WSHub) SyncProgress(current, total int) {
	h.Broadcast(EventSyncProgress, map[string]interface{}{
		"current": current,
		"total":   total,
	})
}

func (h *WSHub) SyncCompleted(result syncengine.Result) {
	data := map[string]interface{}{
		"success":   result.Success,
		"processed": result.Processed,
		"failed":    result.Failed,
	}
	if len(result.Failures) > 0 {
		data["failures"] = result.Failures
	}
	h.Broadcast(EventSyncCompleted, data)

	if !result.Success {
		h.Broadcast(EventSyncFailed, map[string]interface{}{
			"failed":   result.Failed,
			"failures": result.Failures,
		})
	}
}

// NetworkChanged broadcasts connectivity transitions.
func (h *WSHub) NetworkChanged(online bool) {
	event := EventNetworkOffline
	if online {
		event = EventNetworkOnline
	}
	h.Broadcast(event, map[string]interface{}{
		"online": online,
	})
}

// Success implements the notifier: user-facing notices become toast
// events for whichever UI is attached.
func (h *WSHub) Success(message string) {
	h.Broadcast(EventNotification, map[string]interface{}{
		"kind":    "success",
		"message": message,
	})
}

func (h *WSHub) Error(message string) {
	h.Broadcast(EventNotification, map[string]interface{}{
		"kind":    "error",
		"message": message,
	})
}

func (h *WSHub) Info(message string) {
	h.Broadcast(EventNotification, map[string]interface{}{
		"kind":    "info",
		"message": message,
	})
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug("websocket read error", map[string]interface{}{
					"client_id": c.id,
					"error":     err.Error(),
				})
			}
			return
		}
		// Inbound messages are ignored; the daemon's HTTP API is the
		// command surface, the socket is events only.
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleWebSocket upgrades a connection and attaches it to the hub.
func HandleWebSocket(hub *WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("websocket upgrade failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}

		client := &WSClient{
			id:   ident.NewRequestID(),
			conn: conn,
			send: make(chan []byte, 256),
			hub:  hub,
		}

		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}
