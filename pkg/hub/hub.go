// Package hub provides a thread-safe websocket broadcast hub using the
// channel-based fan-out pattern. The dashboard uses one hub per telemetry
// stream; slow clients are dropped rather than allowed to stall the loop.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/ethanLin520/turtlebot3/internal/log"
)

// Hub maintains the set of active clients and broadcasts frames to them.
type Hub struct {
	name string

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
}

// New creates a hub. Run must be started in a goroutine before clients join.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	h.running = true
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("telemetry client connected", "hub", h.name, "id", client.id, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("telemetry client disconnected", "hub", h.name, "remaining", count)

		case frame := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Client buffer full: too slow, drop it.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow telemetry client", "hub", h.name, "id", client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a frame for all connected clients. Drops the frame if
// the hub itself is backed up; telemetry is best-effort.
func (h *Hub) Broadcast(frame []byte) {
	select {
	case h.broadcast <- frame:
	default:
		log.Warn("telemetry broadcast channel full, dropping frame", "hub", h.name)
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether Run has started.
func (h *Hub) IsRunning() bool {
	return h.running
}
