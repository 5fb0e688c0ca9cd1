package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity event types pushed to connected admin sessions
const (
	EventClientEnrolled   = "client_enrolled"
	EventClientStatus     = "client_status_changed"
	EventCommissionEarned = "commission_earned"
	EventCommissionPaid   = "commission_paid"
)

// Event is a message sent over WebSocket
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket session
type Client struct {
	UserID primitive.ObjectID
	Conn   *websocket.Conn

	// Serializes writes; the connection allows only one concurrent writer.
	writeMu sync.Mutex
}

func (c *Client) send(event Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(event)
}

// Hub maintains the set of connected sessions and broadcasts activity
// events to them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Conn.Close()
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected session. Write errors are
// ignored here; a dead connection unregisters itself from its read loop.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.send(event)
	}
}
