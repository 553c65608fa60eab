package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type delivery struct {
	userID uuid.UUID
	event  Event
}

// Hub fans per-user events out to that user's open socket. One socket per
// user; a newer connection replaces the older one.
type Hub struct {
	clients   map[uuid.UUID]Conn
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	events     chan delivery
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan delivery, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(c *Client) { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Publish queues an event without blocking; events for a full queue are
// dropped.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	select {
	case h.events <- delivery{userID: userID, event: event}:
	default:
		log.Printf("Event queue full, dropping %s for %s", event.Type, userID)
	}
}

// Notify adapts the hub to the services notifier.
func (h *Hub) Notify(userID uuid.UUID, eventType string, payload interface{}) {
	h.Publish(userID, Event{Type: eventType, Payload: payload})
}

func (h *Hub) Connected(userID uuid.UUID) bool {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			log.Printf("Client registered: %s", client.UserID)
			h.clientsMu.Lock()
			if old, ok := h.clients[client.UserID]; ok && old != client.Conn {
				_ = old.Close()
			}
			h.clients[client.UserID] = client.Conn
			h.clientsMu.Unlock()
		case client := <-h.unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			h.clientsMu.Lock()
			if conn, ok := h.clients[client.UserID]; ok && conn == client.Conn {
				delete(h.clients, client.UserID)
			}
			h.clientsMu.Unlock()
		case d := <-h.events:
			h.clientsMu.RLock()
			conn, ok := h.clients[d.userID]
			h.clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(d.event); err != nil {
				log.Printf("Error sending %s to client %s: %v", d.event.Type, d.userID, err)
				_ = conn.Close()
				h.clientsMu.Lock()
				if current, ok := h.clients[d.userID]; ok && current == conn {
					delete(h.clients, d.userID)
				}
				h.clientsMu.Unlock()
			}
		}
	}
}
