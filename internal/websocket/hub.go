package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xelth-com/wooassist/internal/logger"
)

// Hub keeps at most one live connection per session key
type Hub struct {
	// Registered clients map: session key -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	log *logger.Logger
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
		log:        log,
	}
}

// Run starts the hub's main loop and closes every client when ctx ends
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// a newer connection for the same session replaces the older one
			if old, ok := h.clients[client.SessionKey]; ok && old != client {
				old.shutdown()
				h.log.Info("session connection replaced", "session", client.SessionKey)
			}
			h.clients[client.SessionKey] = client
			h.mu.Unlock()
			h.log.Debug("session connected", "session", client.SessionKey)

		case client := <-h.unregister:
			h.mu.Lock()
			if cur, ok := h.clients[client.SessionKey]; ok && cur == client {
				delete(h.clients, client.SessionKey)
				h.log.Debug("session disconnected", "session", client.SessionKey)
			}
			h.mu.Unlock()
			client.shutdown()

		case <-ctx.Done():
			h.mu.Lock()
			for key, c := range h.clients {
				c.shutdown()
				delete(h.clients, key)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Connected reports whether a session currently has a live connection
func (h *Hub) Connected(sessionKey string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[sessionKey]
	return ok
}

// SendToSession pushes a message to the session's connection, if any
func (h *Hub) SendToSession(sessionKey string, message any) bool {
	h.mu.RLock()
	client, ok := h.clients[sessionKey]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal websocket message", "error", err)
		return false
	}
	return client.enqueue(jsonMsg)
}
