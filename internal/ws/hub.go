package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messenger-service/internal/observability"
)

// ConnInfo identifies one websocket connection for lifecycle events and for
// eviction bookkeeping.
type ConnInfo struct {
	ConnID      string
	UserKey     string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Hub fans live store streams out to websocket clients. Rooms are keyed by
// topic ("summaries/<ownerKey>" or "messages/<conversationID>"); the first
// client of a topic causes its handler to open the backing store stream, and
// the hub releases that stream when the last client leaves.
type Hub struct {
	rooms   map[string]map[*websocket.Conn]ConnInfo
	closers map[string]func() error
	events  observability.EventPublisher
	mu      sync.RWMutex
}

// NewHub creates an empty hub. events may be nil, in which case connection
// lifecycle events are dropped.
func NewHub(events observability.EventPublisher) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*websocket.Conn]ConnInfo),
		closers: make(map[string]func() error),
		events:  events,
	}
}

// publishEvent delivers one connection lifecycle event to the event bus.
// Failures are counted and dropped.
func (h *Hub) publishEvent(ctx context.Context, routingKey string, envelope observability.EventEnvelope, headers map[string]string) {
	if h.events == nil {
		return
	}
	if err := h.events.PublishJSON(ctx, routingKey, envelope, headers); err != nil {
		observability.IncAMQPPublishError()
	}
}

// AddClient registers a connection under a topic and reports whether it is
// the topic's first client.
func (h *Hub) AddClient(topic string, conn *websocket.Conn, info ConnInfo) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[topic]
	if !ok {
		conns = make(map[*websocket.Conn]ConnInfo)
		h.rooms[topic] = conns
	}
	conns[conn] = info
	return len(conns) == 1
}

// SetTopicCloser records the release func for a topic's backing stream.
func (h *Hub) SetTopicCloser(topic string, closer func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closers[topic] = closer
}

// RemoveClient removes a connection. When the topic's last client leaves,
// the backing stream is released.
func (h *Hub) RemoveClient(topic string, conn *websocket.Conn) {
	h.mu.Lock()
	var closer func() error
	if conns, ok := h.rooms[topic]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, topic)
			closer = h.closers[topic]
			delete(h.closers, topic)
		}
	}
	h.mu.Unlock()

	if closer != nil {
		if err := closer(); err != nil {
			log.Printf("closing stream for topic %s: %v", topic, err)
		}
	}
}

// TopicClients reports the number of connections in a topic.
func (h *Hub) TopicClients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}

// Broadcast sends a payload to every client of a topic. Connections that
// fail to write are closed and removed.
func (h *Hub) Broadcast(kind, topic string, payload any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[topic]))
	for conn := range h.rooms[topic] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("broadcast marshal error for topic %s: %v", topic, err)
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(kind, topic, conn, err)
			h.RemoveClient(topic, conn)
		}
	}
}

func (h *Hub) publishWSError(kind, topic string, conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.rooms[topic][conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	headers := observability.EventHeaders(info.RequestID, info.TraceID)
	h.publishEvent(context.Background(), "ws_events."+kind, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload: wsEventPayload(kind, topic, "ws_error", info,
			time.Since(info.ConnectedAt).Milliseconds(), err.Error()),
	}, headers)
	observability.IncWSEvent(kind, "ws_error")
}

func wsEventPayload(kind, topic, event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"topic":       topic,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_key":  info.UserKey,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
