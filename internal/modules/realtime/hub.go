package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type client struct {
	conn    *websocket.Conn
	isAdmin bool
	writeMu sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks one websocket connection per user. A newer connection replaces the older one.
type Hub struct {
	connections map[int64]*client
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*client),
	}
}

func (h *Hub) Register(userID int64, isAdmin bool, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.connections[userID]; exists {
		_ = old.conn.Close()
	}
	h.connections[userID] = &client{conn: conn, isAdmin: isAdmin}
}

// Unregister removes conn if it is still the user's current connection.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if c, exists := h.connections[userID]; exists && c.conn == conn {
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}

func (h *Hub) SendToUser(userID int64, message any) bool {
	h.mutex.RLock()
	c, exists := h.connections[userID]
	h.mutex.RUnlock()

	if !exists {
		return false
	}
	if err := c.writeJSON(message); err != nil {
		h.Unregister(userID, c.conn)
		return false
	}
	return true
}

// SendToAdmins returns how many admins received the message.
func (h *Hub) SendToAdmins(message any) int {
	h.mutex.RLock()
	admins := make(map[int64]*client)
	for id, c := range h.connections {
		if c.isAdmin {
			admins[id] = c
		}
	}
	h.mutex.RUnlock()

	sent := 0
	for id, c := range admins {
		if err := c.writeJSON(message); err != nil {
			h.Unregister(id, c.conn)
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) GetOnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.connections {
		_ = c.conn.Close()
		delete(h.connections, userID)
	}
}
