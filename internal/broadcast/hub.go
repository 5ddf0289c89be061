// Package broadcast relays engine events to spectators over WebSocket.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/horde/internal/event"
)

// Command is an inbound spectator message, e.g. {"type":"choose","skill_id":"arrow"}.
type Command struct {
	Type    string `json:"type"`
	SkillID string `json:"skill_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	count   int
	onCmd   func(Command)
	sendBuf int
}

// NewHub creates a hub. sendBuffer is the per-client queue size.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		sendBuf:    sendBuffer,
	}
}

// OnCommand sets handler for inbound spectator commands. Must be set before Run.
func (h *Hub) OnCommand(fn func(Command)) {
	h.mu.Lock()
	h.onCmd = fn
	h.mu.Unlock()
}

func (h *Hub) command(c Command) {
	h.mu.RLock()
	fn := h.onCmd
	h.mu.RUnlock()
	if fn != nil {
		fn(c)
	}
}

// Clients returns number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Run serves register/unregister/broadcast until ctx is done. Closes all clients on exit.
func (h *Hub) Run(ctx context.Context) error {
	defer func() {
		close(h.done)
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.setCount(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			slog.Info("spectator connected", "remote", c.remote, "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount(len(h.clients))
				slog.Info("spectator disconnected", "remote", c.remote, "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					slog.Warn("slow spectator dropped", "remote", c.remote)
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

// Broadcast queues raw message for all clients. Drops it when the hub is backed up.
func (h *Hub) Broadcast(msg []byte) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		return false
	}
}

// BroadcastEvent marshals e to JSON and queues it.
func (h *Hub) BroadcastEvent(e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", e.Type, err)
	}
	if !h.Broadcast(data) {
		slog.Debug("broadcast queue full, event dropped", "type", e.Type)
	}
	return nil
}

// Relay forwards events until the channel closes or ctx is done.
func (h *Hub) Relay(ctx context.Context, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := h.BroadcastEvent(e); err != nil {
				slog.Error("relaying event", "type", e.Type, "error", err)
			}
		}
	}
}
