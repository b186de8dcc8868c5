package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// EventRoomSnapshot is sent to a connection right after it subscribes.
const EventRoomSnapshot = "room-snapshot"

// wsMessage is the envelope of every server-to-client frame.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type wsClient struct {
	room   string
	userID string
	send   chan []byte
	once   sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans room events out to subscribed websocket clients. Delivery is at
// most once: a client whose buffer is full misses the message.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*wsClient]struct{}
	metrics *Metrics
}

func NewHub(metrics *Metrics) *Hub {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Hub{
		groups:  make(map[string]map[*wsClient]struct{}),
		metrics: metrics,
	}
}

func (h *Hub) add(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[client.room]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[client.room] = group
	}
	group[client] = struct{}{}
	h.metrics.wsConnections.Inc()
}

func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[client.room]
	if _, ok := group[client]; !ok {
		return
	}
	delete(group, client)
	if len(group) == 0 {
		delete(h.groups, client.room)
	}
	client.close()
	h.metrics.wsConnections.Dec()
}

// CloseRoom disconnects every client of a removed room.
func (h *Hub) CloseRoom(roomCode string) {
	h.mu.Lock()
	group := h.groups[roomCode]
	delete(h.groups, roomCode)
	h.mu.Unlock()
	for client := range group {
		client.close()
		h.metrics.wsConnections.Dec()
	}
}

// Subscribers reports how many clients listen to a room.
func (h *Hub) Subscribers(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[roomCode])
}

// Publish implements game.Publisher.
func (h *Hub) Publish(roomCode, event string, payload any) error {
	data, err := json.Marshal(wsMessage{Type: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	h.metrics.eventsPublished.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.groups[roomCode] {
		h.deliver(client, data)
	}
	return nil
}

func (h *Hub) sendTo(client *wsClient, event string, payload any) {
	data, err := json.Marshal(wsMessage{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "server.ws").Str("event", event).Msg("encode direct message")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.groups[client.room][client]; ok {
		h.deliver(client, data)
	}
}

// deliver must run with h.mu held so client.send cannot be closed under it.
func (h *Hub) deliver(client *wsClient, data []byte) {
	select {
	case client.send <- data:
	default:
		h.metrics.eventsDropped.Inc()
		log.Warn().Str("module", "server.ws").Str("room_code", client.room).Str("user_id", client.userID).
			Msg("client buffer full, dropping message")
	}
}

func (h *Hub) writePump(conn *websocket.Conn, client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
