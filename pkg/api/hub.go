/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mfreeman451/lineradar/pkg/liveerrors"
	"github.com/mfreeman451/lineradar/pkg/metrics"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	clientBuffer    = 256
	broadcastBuffer = 100

	messageSnapshot  = "snapshot"
	messageLiveError = "live_error"
)

// Message is the envelope of everything pushed to websocket clients.
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub pushes live errors to every connected websocket client. New clients
// first receive a snapshot of the recent history.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	recent     *liveerrors.Recent
	metrics    metrics.Recorder
	mu         sync.RWMutex
}

func NewHub(recent *liveerrors.Recent, m metrics.Recorder) *Hub {
	if recent == nil {
		recent = liveerrors.NewRecent(models.MaxLiveErrorHistory)
	}

	if m == nil {
		m = metrics.Noop{}
	}

	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client, 10),
		unregister: make(chan *client, 10),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		recent:     recent,
		metrics:    m,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetSubscribers("websocket", n)

	snapshot, err := encodeMessage(messageSnapshot, h.recent.Snapshot(models.MaxLiveErrorHistory))
	if err != nil {
		log.Printf("Failed to encode live error snapshot: %v", err)
		return
	}

	c.send <- snapshot
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()

	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetSubscribers("websocket", n)
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.RLock()

	var slow []*client

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}

	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("Websocket client %s is not keeping up, disconnecting", c.id)
		h.remove(c)
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}

	h.metrics.SetSubscribers("websocket", 0)
}

// Notify queues ev for every client. It makes the hub a live error sink.
func (h *Hub) Notify(_ context.Context, ev *models.LiveErrorEvent) error {
	msg, err := encodeMessage(messageLiveError, ev)
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return errHubClosed
	default:
	}

	select {
	case h.broadcast <- msg:
		return nil
	default:
		return errHubBusy
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		writeError(w, http.StatusServiceUnavailable, "unavailable", errHubClosed.Error())
		return
	default:
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	c := &client{
		id:   fmt.Sprintf("%s_%d", r.RemoteAddr, time.Now().UnixNano()),
		conn: conn,
		send: make(chan []byte, clientBuffer),
		hub:  h,
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func encodeMessage(kind string, data any) ([]byte, error) {
	return json.Marshal(Message{Type: kind, Timestamp: time.Now().UTC(), Data: data})
}

// readPump only watches for the peer going away; clients send nothing.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}

		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Websocket read error from %s: %v", c.id, err)
			}

			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
