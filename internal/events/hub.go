package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client wraps a websocket connection; gorilla allows one concurrent writer,
// so every write goes through mu.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]bool)}
}

func (h *Hub) Register(workspaceID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[workspaceID] == nil {
		h.clients[workspaceID] = make(map[*Client]bool)
	}
	h.clients[workspaceID][client] = true
}

func (h *Hub) Unregister(workspaceID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[workspaceID]; exists {
		delete(clients, client)

		if len(clients) == 0 {
			delete(h.clients, workspaceID)
		}
	}
}

func (h *Hub) Count(workspaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[workspaceID])
}

// Broadcast sends event to every client of its workspace. Clients that fail
// the write are dropped and closed.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[event.WorkspaceID]))
	for client := range h.clients[event.WorkspaceID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteJSON(event); err != nil {
			slog.Warn("dropping websocket client", "workspace_id", event.WorkspaceID, "error", err)
			h.Unregister(event.WorkspaceID, client)
			client.conn.Close()
		}
	}
}
