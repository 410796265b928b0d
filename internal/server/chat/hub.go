// Package chat is a broadcast chat room over WebSockets. Every connected
// client receives every message, including join and leave notices.
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/logging"
)

var timeNow = time.Now

const (
	TypeStatus  = "status"
	TypeMessage = "message"
	TypeError   = "error"

	anonymous = "Anonymous"
)

// Message is a chat frame as broadcast to clients.
type Message struct {
	Type            string    `json:"type"`
	Text            string    `json:"text"`
	Created         time.Time `json:"created"`
	DisplayName     string    `json:"display_name"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
}

// ErrorFrame is sent once before the server closes a rejected connection.
type ErrorFrame struct {
	Type  string    `json:"type"`
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hub keeps the set of connected clients and fans messages out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
	logger  logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients: map[*client]struct{}{},
		logger:  logger.With("module", "chat"),
	}
}

func (h *Hub) join(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.wg.Add(1)
	return true
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.stop()
		h.wg.Done()
	}
}

// Broadcast delivers m to every client. A client whose queue is full is
// dropped.
func (h *Hub) Broadcast(ctx context.Context, m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		h.logger.Error(ctx, "encoding chat message failed", "error", err)
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn(ctx, "dropping slow chat client", "display_name", c.name)
		h.leave(c)
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client, refuses new ones and waits until all
// client goroutines have returned.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
	h.wg.Wait()
}
