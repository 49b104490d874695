package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// notice is the message pushed to every notification client.
type notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

func newNotice(msg string) notice {
	return notice{
		Type:    "notice",
		Message: msg,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
}

// clientConn pairs a connection with the mutex guarding its writes.
type clientConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(v)
}

// NotificationHub fans notices out to connected websocket clients.
type NotificationHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*clientConn
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[*websocket.Conn]*clientConn),
	}
}

func (h *NotificationHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &clientConn{conn: conn}
}

func (h *NotificationHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (h *NotificationHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify sends msg to every client, dropping clients whose write fails.
func (h *NotificationHub) Notify(msg string) {
	h.broadcast(newNotice(msg))
}

func (h *NotificationHub) broadcast(v any) {
	h.mu.RLock()
	clients := make([]*clientConn, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(v); err != nil {
			h.Remove(c.conn)
			c.conn.Close()
		}
	}
}
