package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/chatlog"
	"messenger-service/internal/conversation"
	"messenger-service/internal/index"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/session"
	"messenger-service/internal/users"
)

// StreamHandler bridges the live summary and message streams to websocket
// clients. Each topic is backed by one store subscription shared by all of
// the topic's clients; the subscription is released when the last client
// disconnects.
type StreamHandler struct {
	hub    *Hub
	tokens *session.TokenManager
	dir    users.Directory
	index  index.Manager
	log    chatlog.Manager
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(hub *Hub, tokens *session.TokenManager, dir users.Directory, idx index.Manager, logMgr chatlog.Manager) *StreamHandler {
	return &StreamHandler{hub: hub, tokens: tokens, dir: dir, index: idx, log: logMgr}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSummaries streams the caller's full conversation list on every
// remote mutation.
func (h *StreamHandler) HandleSummaries(c *gin.Context) {
	sess, ok := h.authenticate(c)
	if !ok {
		return
	}
	topic := "summaries/" + sess.SafeEmail

	h.serve(c, "summaries", topic, sess, func() (func() error, error) {
		// The stream outlives the handshake request, so it gets its own
		// context; its lifetime is bound to the topic's closer instead.
		stream, err := h.index.StreamSummaries(context.Background(), sess.SafeEmail)
		if err != nil {
			return nil, err
		}
		go func() {
			for summaries := range stream.Updates() {
				h.hub.Broadcast("summaries", topic, summaries)
			}
		}()
		return stream.Close, nil
	})
}

// HandleMessages streams a conversation's full message log on every change.
func (h *StreamHandler) HandleMessages(c *gin.Context) {
	sess, ok := h.authenticate(c)
	if !ok {
		return
	}
	conversationID := c.Param("conversation_id")
	// Conversation ids embed both participants' identities; a caller whose
	// key matches neither embedded segment was never a participant.
	if !conversation.IsParticipant(conversationID, sess.SafeEmail) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}
	topic := "messages/" + conversationID

	h.serve(c, "messages", topic, sess, func() (func() error, error) {
		stream, err := h.log.StreamMessages(context.Background(), conversationID)
		if err != nil {
			return nil, err
		}
		go func() {
			for records := range stream.Updates() {
				h.hub.Broadcast("messages", topic, records)
			}
		}()
		return stream.Close, nil
	})
}

// serve upgrades the connection, wires the topic's backing stream when this
// is its first client, and blocks a reader goroutine on the connection to
// detect teardown.
func (h *StreamHandler) serve(c *gin.Context, kind, topic string, sess session.Session, open func() (func() error, error)) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	meta := observability.MetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserKey:     sess.SafeEmail,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   middleware.RequestIDFromContext(c),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	first := h.hub.AddClient(topic, conn, info)
	if first {
		closer, err := open()
		if err != nil {
			h.hub.RemoveClient(topic, conn)
			conn.Close()
			return
		}
		h.hub.SetTopicCloser(topic, closer)
	}

	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	headers := observability.EventHeaders(info.RequestID, info.TraceID)
	h.hub.publishEvent(ctx, "ws_events."+kind, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload(kind, topic, "ws_connect", info, 0, ""),
	}, headers)

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(topic, conn)
			observability.DecWSActive(kind)
			observability.IncWSEvent(kind, "ws_disconnect")
			h.hub.publishEvent(ctx, "ws_events."+kind, observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload: wsEventPayload(kind, topic, "ws_disconnect", info,
					time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, headers)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent(kind, "ws_error")
				}
				return
			}
		}
	}()
}

func (h *StreamHandler) authenticate(c *gin.Context) (session.Session, bool) {
	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	parts := strings.SplitN(token, " ", 2)
	if len(parts) != 2 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return session.Session{}, false
	}
	email, err := h.tokens.Verify(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return session.Session{}, false
	}
	user, err := h.dir.Get(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return session.Session{}, false
	}
	return session.New(email, user.DisplayName()), true
}
