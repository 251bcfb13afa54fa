package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturehull/internal/gesture"
	"github.com/ayusman/gesturehull/internal/log"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// clientQueue is how many events may wait for a slow client before it is
// dropped.
const clientQueue = 16

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// EventsHandler pushes stable shape changes to WebSocket clients. Each client
// has its own writer goroutine, so Broadcast never waits on the network.
type EventsHandler struct {
	clients map[*client]struct{}
	last    []byte
	mu      sync.Mutex
}

// NewEventsHandler creates an EventsHandler with no clients.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{clients: make(map[*client]struct{})}
}

// ServeHTTP upgrades the connection and keeps it registered until the client
// goes away. A new client first receives the last event, if any.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueue)}
	h.mu.Lock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.write(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// write sends queued messages to c until its queue is closed. The connection
// is closed on return.
func (h *EventsHandler) write(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug("dropping websocket client", "error", err)
			h.remove(c)
			return
		}
	}
}

func (h *EventsHandler) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop unregisters c. h.mu must be held.
func (h *EventsHandler) drop(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues ev for every connected client. A client whose queue is
// full is dropped.
func (h *EventsHandler) Broadcast(ev gesture.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error("failed to encode event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Debug("websocket client too slow, dropping")
			h.drop(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
