// Package conversation orchestrates conversation lifecycle: creation,
// message sends, and one-sided deletion. A conversation is 2-3 documents (a
// summary in each participant's index plus the message log) created and
// updated by independent single-path writes; there is no cross-write
// atomicity. The log is authoritative, summaries are advisory previews.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"messenger-service/internal/chatlog"
	"messenger-service/internal/codec"
	"messenger-service/internal/identity"
	"messenger-service/internal/index"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/session"
	"messenger-service/internal/users"
)

// ErrNotFound is returned when no conversation matches a lookup.
var ErrNotFound = errors.New("conversation not found")

// MessageTimeLayout formats message send timestamps. Granularity is one
// second, which bounds how close together two message ids between the same
// pair can be minted without colliding.
const MessageTimeLayout = "Jan 2, 2006 at 3:04:05 PM MST"

// NewMessageID mints a message id from the two participants' normalized
// identities and the formatted send time.
func NewMessageID(selfKey, peerKey string, sentAt time.Time) string {
	return fmt.Sprintf("%s_%s_%s", peerKey, selfKey, sentAt.Format(MessageTimeLayout))
}

// ConversationID derives the stable conversation id from the first message's
// id.
func ConversationID(firstMessageID string) string {
	return "conversation_" + firstMessageID
}

// IsParticipant reports whether key identifies one of the conversation's two
// participants. Ids embed both participants' keys between underscore
// separators; the key must match a whole segment, so one key being a
// substring of another ("a-x-com" inside "aa-x-com") is not a match.
func IsParticipant(conversationID, key string) bool {
	if key == "" {
		return false
	}
	for _, segment := range strings.Split(conversationID, "_") {
		if segment == key {
			return true
		}
	}
	return false
}

// Controller composes the index and log managers into the conversation
// state machine.
type Controller struct {
	index index.Manager
	log   chatlog.Manager
	users users.Directory
}

// NewController builds a Controller.
func NewController(idx index.Manager, logMgr chatlog.Manager, dir users.Directory) *Controller {
	return &Controller{index: idx, log: logMgr, users: dir}
}

// ConversationExistsWith scans the peer's stored summary list for an entry
// pointing back at the caller and returns its conversation id. Checking the
// peer's index rather than the caller's own detects conversations the peer
// initiated, including ones the caller deleted on their side.
func (c *Controller) ConversationExistsWith(ctx context.Context, sess session.Session, peerEmail string) (string, error) {
	peerKey := identity.Normalize(peerEmail)
	summary, err := c.index.SummaryWithPeer(ctx, peerKey, sess.SafeEmail)
	if errors.Is(err, index.ErrSummaryNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return summary.ID, nil
}

// StartNewConversation creates a conversation with the peer carrying the
// first message. When a conversation with the peer already exists on either
// side, the message is routed into it instead; CreateLog is never issued for
// an existing id, which would truncate its log.
//
// fallbackPeerName seeds the peer's display name when the directory lookup
// has not completed; the summary is written with the fallback rather than
// blocking.
func (c *Controller) StartNewConversation(ctx context.Context, sess session.Session, peerEmail, fallbackPeerName string, msg models.Message) (string, error) {
	peerKey := identity.Normalize(peerEmail)

	if existing, err := c.index.SummaryWithPeer(ctx, sess.SafeEmail, peerKey); err == nil {
		if err := c.SendMessage(ctx, sess, existing.ID, peerEmail, fallbackPeerName, msg); err != nil {
			return "", err
		}
		return existing.ID, nil
	}
	if existingID, err := c.ConversationExistsWith(ctx, sess, peerEmail); err == nil {
		if err := c.SendMessage(ctx, sess, existingID, peerEmail, fallbackPeerName, msg); err != nil {
			return "", err
		}
		return existingID, nil
	}

	conversationID := ConversationID(msg.ID)
	date := msg.SentAt.Format(MessageTimeLayout)
	typeTag, flat := codec.Encode(msg.Content)
	latest := models.LatestMessage{Date: date, Message: flat, IsRead: false}

	peerName := c.peerDisplayName(ctx, peerEmail, fallbackPeerName)

	if err := c.index.AppendSummary(ctx, sess.SafeEmail, models.ConversationSummary{
		ID:             conversationID,
		OtherUserEmail: peerKey,
		Name:           peerName,
		LatestMessage:  latest,
	}); err != nil {
		return "", fmt.Errorf("create own summary: %w", err)
	}
	if err := c.index.AppendSummary(ctx, peerKey, models.ConversationSummary{
		ID:             conversationID,
		OtherUserEmail: sess.SafeEmail,
		Name:           sess.DisplayName,
		LatestMessage:  latest,
	}); err != nil {
		return "", fmt.Errorf("create peer summary: %w", err)
	}
	if err := c.log.CreateLog(ctx, conversationID, codec.EncodeRecord(msg, date)); err != nil {
		return "", fmt.Errorf("create log: %w", err)
	}

	observability.IncConversationCreated()
	observability.IncMessageSent(typeTag)
	return conversationID, nil
}

// SendMessage appends the message to the conversation log, then advances the
// latest-message preview in both participants' indexes. The three writes are
// independent: a failed summary update is reported but never rolls back the
// log append, leaving the log ahead of the preview, which a later send
// repairs.
func (c *Controller) SendMessage(ctx context.Context, sess session.Session, conversationID, peerEmail, fallbackPeerName string, msg models.Message) error {
	peerKey := identity.Normalize(peerEmail)
	date := msg.SentAt.Format(MessageTimeLayout)
	typeTag, flat := codec.Encode(msg.Content)

	if err := c.log.AppendMessage(ctx, conversationID, codec.EncodeRecord(msg, date)); err != nil {
		return err
	}
	observability.IncMessageSent(typeTag)

	latest := models.LatestMessage{Date: date, Message: flat, IsRead: false}
	var selfErr, peerErr error
	if err := c.index.UpdateLatestMessage(ctx, sess.SafeEmail, models.ConversationSummary{
		ID:             conversationID,
		OtherUserEmail: peerKey,
		Name:           c.peerDisplayName(ctx, peerEmail, fallbackPeerName),
		LatestMessage:  latest,
	}); err != nil {
		selfErr = fmt.Errorf("update own summary: %w", err)
	}
	if err := c.index.UpdateLatestMessage(ctx, peerKey, models.ConversationSummary{
		ID:             conversationID,
		OtherUserEmail: sess.SafeEmail,
		Name:           sess.DisplayName,
		LatestMessage:  latest,
	}); err != nil {
		peerErr = fmt.Errorf("update peer summary: %w", err)
	}
	return errors.Join(selfErr, peerErr)
}

// DeleteConversation removes the conversation from the caller's own index
// only. The message log and the peer's summary persist; the peer is not
// notified.
func (c *Controller) DeleteConversation(ctx context.Context, sess session.Session, conversationID string) error {
	return c.index.RemoveSummary(ctx, sess.SafeEmail, conversationID)
}

func (c *Controller) peerDisplayName(ctx context.Context, peerEmail, fallback string) string {
	name, err := c.users.DisplayName(ctx, peerEmail)
	if err != nil {
		log.Printf("peer display name lookup failed for %s, using fallback: %v", identity.Normalize(peerEmail), err)
		if fallback != "" {
			return fallback
		}
		return peerEmail
	}
	return name
}
