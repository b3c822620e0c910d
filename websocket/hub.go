package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to connected finance dashboards
const (
	EventTypeCalculationCompleted = "calculation.completed"
	EventTypeStructureUpdated     = "structure.updated"
	EventTypeWithdrawalProcessed  = "withdrawal.processed"
)

// Event represents a message sent over WebSocket
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userId,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID primitive.ObjectID
	Conn   *websocket.Conn
}

// Hub maintains the set of connected dashboard clients and fans events out
// to them. Connections are authenticated before the upgrade, so every client
// carries a user id.
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
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
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends an event to a specific connected user
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// Broadcast sends an event to every connected client. Write failures are
// ignored; the read loop notices the broken connection and unregisters it.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.Conn.WriteJSON(event)
	}
}

// NotifyCalculationCompleted pushes a completed calculation to every
// connected dashboard.
func (h *Hub) NotifyCalculationCompleted(calculation interface{}) {
	h.Broadcast(Event{
		Type:    EventTypeCalculationCompleted,
		Message: "Commission calculation completed",
		Data:    calculation,
	})
}

// NotifyStructureUpdated announces a created or changed commission structure
// so open dashboards can refresh their rate tables.
func (h *Hub) NotifyStructureUpdated(structure interface{}) {
	h.Broadcast(Event{
		Type:    EventTypeStructureUpdated,
		Message: "Commission structure updated",
		Data:    structure,
	})
}

// NotifyWithdrawalProcessed tells the requesting agent their withdrawal was
// approved or rejected.
func (h *Hub) NotifyWithdrawalProcessed(agentID primitive.ObjectID, withdrawal interface{}) error {
	return h.SendToUser(agentID, Event{
		Type:    EventTypeWithdrawalProcessed,
		Message: "Your withdrawal request has been processed",
		Data:    withdrawal,
		UserID:  agentID.Hex(),
	})
}
