package notification

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one live websocket connection. Writes are serialized.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

// Hub pushes events to users connected over websocket. One live connection
// per user; a new connection replaces the old one.
type Hub struct {
	clients map[int64]*Client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]*Client),
	}
}

func (h *Hub) Name() string { return "websocket" }

// Send is a no-op for offline users; the inbox keeps the record.
func (h *Hub) Send(_ context.Context, e Event) error {
	h.SendToUser(e.UserID, e)
	return nil
}

func (h *Hub) Register(userID int64, conn *websocket.Conn) *Client {
	c := &Client{conn: conn}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.clients[userID]; exists && old != nil {
		_ = old.conn.Close()
	}
	h.clients[userID] = c
	return c
}

// Unregister removes the user's connection if it is still c.
func (h *Hub) Unregister(userID int64, c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if cur, exists := h.clients[userID]; exists && cur == c {
		_ = cur.conn.Close()
		delete(h.clients, userID)
	}
}

func (h *Hub) SendToUser(userID int64, message any) bool {
	h.mutex.RLock()
	c, exists := h.clients[userID]
	h.mutex.RUnlock()

	if !exists || c == nil {
		return false
	}

	if err := c.write(message); err != nil {
		h.Unregister(userID, c)
		return false
	}
	return true
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.clients {
		if c != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, userID)
	}
}
