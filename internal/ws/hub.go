package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// userEvent is an internal struct for routing events to a single user's room
type userEvent struct {
	UserID uuid.UUID
	Event  Event
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Every client joins its own user room; staff clients additionally join the
// shared staff set so kitchen-facing events reach all logged-in staff at once.
type Hub struct {
	// Registered clients by user ID
	rooms map[uuid.UUID]map[*Client]bool

	// Staff clients across all user rooms
	staff map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages
	toUser  chan *userEvent
	toStaff chan Event

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		staff:      make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		toUser:     make(chan *userEvent, 256),
		toStaff:    make(chan Event, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.userID] == nil {
				h.rooms[client.userID] = make(map[*Client]bool)
			}
			h.rooms[client.userID][client] = true
			if client.isStaff {
				h.staff[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.userID]; ok {
				if _, exists := clients[client]; exists {
					h.drop(client)
				}
			}
			h.mu.Unlock()

		case event := <-h.toUser:
			h.mu.Lock()
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}
			for client := range h.rooms[event.UserID] {
				h.deliver(client, message)
			}
			h.mu.Unlock()

		case event := <-h.toStaff:
			h.mu.Lock()
			message, err := json.Marshal(event)
			if err != nil {
				h.mu.Unlock()
				continue
			}
			for client := range h.staff {
				h.deliver(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver writes to the client's send buffer, dropping the client if the
// buffer is full. Callers hold h.mu.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.drop(client)
	}
}

// drop removes the client from its room and the staff set. Callers hold h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.rooms[client.userID], client)
	close(client.send)
	if len(h.rooms[client.userID]) == 0 {
		delete(h.rooms, client.userID)
	}
	delete(h.staff, client)
}

// BroadcastToUser sends an event to every connection the user has open
func (h *Hub) BroadcastToUser(userID uuid.UUID, event Event) {
	h.toUser <- &userEvent{
		UserID: userID,
		Event:  event,
	}
}

// BroadcastToStaff sends an event to every connected staff client
func (h *Hub) BroadcastToStaff(event Event) {
	h.toStaff <- event
}
