package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/chatlog"
	"messenger-service/internal/codec"
	"messenger-service/internal/conversation"
	"messenger-service/internal/identity"
	"messenger-service/internal/index"
	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/session"
	"messenger-service/internal/telemetry"
)

// ConversationHandler manages conversation endpoints.
type ConversationHandler struct {
	ctrl  *conversation.Controller
	index index.Manager
	log   chatlog.Manager
	audit *telemetry.ChatEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(ctrl *conversation.Controller, idx index.Manager, logMgr chatlog.Manager, audit *telemetry.ChatEmitter) *ConversationHandler {
	return &ConversationHandler{ctrl: ctrl, index: idx, log: logMgr, audit: audit}
}

type messageRequest struct {
	Type    string `json:"type" binding:"required"`
	Content string `json:"content"`
}

// buildMessage validates the flat payload through the codec and stamps the
// caller-derived id and sender fields.
func buildMessage(sess session.Session, peerKey string, req messageRequest, sentAt time.Time) (models.Message, error) {
	content, err := codec.Decode(req.Type, req.Content)
	if err != nil {
		return models.Message{}, err
	}
	return models.Message{
		ID:          conversation.NewMessageID(sess.SafeEmail, peerKey, sentAt),
		SenderEmail: sess.SafeEmail,
		SenderName:  sess.DisplayName,
		SentAt:      sentAt,
		Content:     content,
	}, nil
}

// ListConversations returns a snapshot of the caller's conversation index.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	summaries, err := h.index.ListSummaries(c.Request.Context(), sess.SafeEmail)
	if err != nil && !errors.Is(err, index.ErrOwnerNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// StartConversation creates a conversation with a peer from its first
// message, or routes the message into an existing one.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	var req struct {
		PeerEmail string         `json:"peer_email" binding:"required"`
		PeerName  string         `json:"peer_name"`
		Message   messageRequest `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if identity.Normalize(req.PeerEmail) == sess.SafeEmail {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
		return
	}

	msg, err := buildMessage(sess, identity.Normalize(req.PeerEmail), req.Message, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := h.ctrl.StartNewConversation(c.Request.Context(), sess, req.PeerEmail, req.PeerName, msg)
	if errors.Is(err, index.ErrOwnerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "peer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.EventConversationCreated,
		middleware.RequestIDFromContext(c), sess.SafeEmail, conversationID, msg.Content.Kind())
	c.JSON(http.StatusCreated, gin.H{"conversation_id": conversationID})
}

// SendMessage appends a message to an existing conversation and advances
// both participants' previews.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	conversationID := c.Param("conversation_id")
	if !conversation.IsParticipant(conversationID, sess.SafeEmail) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	var req struct {
		PeerEmail string         `json:"peer_email" binding:"required"`
		PeerName  string         `json:"peer_name"`
		Message   messageRequest `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := buildMessage(sess, identity.Normalize(req.PeerEmail), req.Message, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ctrl.SendMessage(c.Request.Context(), sess, conversationID, req.PeerEmail, req.PeerName, msg); err != nil {
		if errors.Is(err, chatlog.ErrLogNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.EventMessageSent,
		middleware.RequestIDFromContext(c), sess.SafeEmail, conversationID, msg.Content.Kind())
	c.JSON(http.StatusCreated, gin.H{"message_id": msg.ID})
}

// GetMessages returns a snapshot of a conversation's full log.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	conversationID := c.Param("conversation_id")
	if !conversation.IsParticipant(conversationID, sess.SafeEmail) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return
	}

	records, err := h.log.Messages(c.Request.Context(), conversationID)
	if errors.Is(err, chatlog.ErrLogNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": records})
}

// ConversationWith resolves the existing conversation id with a peer by
// scanning the peer's index for the caller.
func (h *ConversationHandler) ConversationWith(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	peerEmail := c.Query("peer_email")
	if peerEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "peer_email is required"})
		return
	}

	conversationID, err := h.ctrl.ConversationExistsWith(c.Request.Context(), sess, peerEmail)
	if errors.Is(err, conversation.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no conversation with peer"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID})
}

// DeleteConversation removes the conversation from the caller's own index.
// The log and the peer's summary persist.
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	conversationID := c.Param("conversation_id")

	if err := h.ctrl.DeleteConversation(c.Request.Context(), sess, conversationID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete conversation"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.EventConversationDeleted,
		middleware.RequestIDFromContext(c), sess.SafeEmail, conversationID, "")
	c.Status(http.StatusNoContent)
}
