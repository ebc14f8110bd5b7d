// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kraklabs/loglens/pkg/parser"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The viewer is a localhost tool, cross-origin pages are not served.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsUpdate is the payload pushed to connected viewers when a tailed file
// grows.
type wsUpdate struct {
	Type        string           `json:"type"`
	FilePath    string           `json:"file_path"`
	NewMessages []parser.Message `json:"new_messages"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan wsUpdate
}

// Hub fans live updates out to websocket clients. Slow clients get dropped
// rather than backing up the broadcaster.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*wsClient
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, clients: make(map[string]*wsClient)}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast pushes new messages for path to every connected client.
func (h *Hub) Broadcast(path string, msgs []parser.Message) {
	if len(msgs) == 0 {
		return
	}
	update := wsUpdate{Type: "update", FilePath: path, NewMessages: msgs}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- update:
		default:
			h.logger.Warn("web.ws.client.slow", "client_id", id)
			delete(h.clients, id)
			close(c.send)
		}
	}
}

// handle upgrades the request and serves the client until it disconnects.
func (h *Hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("web.ws.upgrade.error", "err", err)
		return
	}

	c := &wsClient{id: uuid.NewString(), conn: conn, send: make(chan wsUpdate, 16)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Info("web.ws.client.connect", "client_id", c.id)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *wsClient) {
	for update := range c.send {
		if err := c.conn.WriteJSON(update); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// readLoop exists to notice disconnects, inbound frames are discarded.
func (h *Hub) readLoop(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
	h.logger.Info("web.ws.client.disconnect", "client_id", c.id)
}
