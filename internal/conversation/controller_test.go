package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/chatlog"
	"messenger-service/internal/index"
	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/session"
	"messenger-service/internal/store"
	"messenger-service/internal/users"
)

var sentAt = time.Date(2023, 9, 28, 15, 30, 45, 0, time.UTC)

type fixture struct {
	ctrl  *Controller
	index index.Manager
	log   chatlog.Manager
	dir   users.Directory
	store store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := store.NewRedisStore(client)

	dir := users.NewStoreDirectory(s)
	idx := index.NewStoreManager(s)
	logMgr := chatlog.NewStoreManager(s)

	ctx := context.Background()
	require.NoError(t, dir.InsertUser(ctx, "a@x.com", models.User{FirstName: "Alice", LastName: "Smith"}))
	require.NoError(t, dir.InsertUser(ctx, "b@x.com", models.User{FirstName: "Bob", LastName: "Jones"}))

	return &fixture{
		ctrl:  NewController(idx, logMgr, dir),
		index: idx,
		log:   logMgr,
		dir:   dir,
		store: s,
	}
}

func textMessage(sess session.Session, peerKey, text string) models.Message {
	return models.Message{
		ID:          NewMessageID(sess.SafeEmail, peerKey, sentAt),
		SenderEmail: sess.Email,
		SenderName:  sess.DisplayName,
		SentAt:      sentAt,
		Content:     models.TextContent{Text: text},
	}
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID("a-x-com", "b-x-com", sentAt)
	assert.Equal(t, "b-x-com_a-x-com_Sep 28, 2023 at 3:30:45 PM UTC", id)
	assert.Equal(t, "conversation_b-x-com_a-x-com_Sep 28, 2023 at 3:30:45 PM UTC", ConversationID(id))
}

func TestStartNewConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")

	msg := textMessage(alice, "b-x-com", "hi")
	conversationID, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "Bob Jones", msg)
	require.NoError(t, err)
	assert.Equal(t, "conversation_b-x-com_a-x-com_Sep 28, 2023 at 3:30:45 PM UTC", conversationID)

	// One record in the log.
	records, err := f.log.Messages(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hi", records[0].Content)
	assert.Equal(t, "a@x.com", records[0].SenderEmail)

	// A summary on each side, each naming the other participant.
	own, err := f.index.ListSummaries(ctx, "a-x-com")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "b-x-com", own[0].OtherUserEmail)
	assert.Equal(t, "Bob Jones", own[0].Name)
	assert.Equal(t, "hi", own[0].LatestMessage.Message)

	peer, err := f.index.ListSummaries(ctx, "b-x-com")
	require.NoError(t, err)
	require.Len(t, peer, 1)
	assert.Equal(t, "a-x-com", peer[0].OtherUserEmail)
	assert.Equal(t, "Alice Smith", peer[0].Name)
	assert.Equal(t, "hi", peer[0].LatestMessage.Message)
}

func TestStartRoutesIntoOwnExistingConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")

	first, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "", textMessage(alice, "b-x-com", "hi"))
	require.NoError(t, err)

	later := textMessage(alice, "b-x-com", "again")
	later.ID = NewMessageID(alice.SafeEmail, "b-x-com", sentAt.Add(time.Minute))
	second, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "", later)
	require.NoError(t, err)
	assert.Equal(t, first, second, "second start must reuse the existing conversation")

	records, err := f.log.Messages(ctx, first)
	require.NoError(t, err)
	assert.Len(t, records, 2, "existing log appended to, never truncated")
}

func TestStartRoutesIntoPeerInitiatedConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")
	bob := session.New("b@x.com", "Bob Jones")

	// Bob starts, Alice deletes her side, then Alice starts "a new one".
	conversationID, err := f.ctrl.StartNewConversation(ctx, bob, "a@x.com", "", textMessage(bob, "a-x-com", "hey"))
	require.NoError(t, err)
	require.NoError(t, f.ctrl.DeleteConversation(ctx, alice, conversationID))

	reply := textMessage(alice, "b-x-com", "hello again")
	reply.ID = NewMessageID(alice.SafeEmail, "b-x-com", sentAt.Add(time.Hour))
	gotID, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "", reply)
	require.NoError(t, err)
	assert.Equal(t, conversationID, gotID, "peer's surviving summary routes the send")

	records, err := f.log.Messages(ctx, conversationID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Alice's summary is back after the send.
	own, err := f.index.ListSummaries(ctx, "a-x-com")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, conversationID, own[0].ID)
}

func TestSendMessageAdvancesBothPreviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")

	conversationID, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "", textMessage(alice, "b-x-com", "hi"))
	require.NoError(t, err)

	next := textMessage(alice, "b-x-com", "how are you?")
	next.ID = NewMessageID(alice.SafeEmail, "b-x-com", sentAt.Add(time.Minute))
	require.NoError(t, f.ctrl.SendMessage(ctx, alice, conversationID, "b@x.com", "", next))

	for _, ownerKey := range []string{"a-x-com", "b-x-com"} {
		got, err := f.index.ListSummaries(ctx, ownerKey)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "how are you?", got[0].LatestMessage.Message, "owner %s", ownerKey)
		assert.False(t, got[0].LatestMessage.IsRead)
	}
}

func TestSendLocationMessagePreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")

	msg := models.Message{
		ID:          NewMessageID(alice.SafeEmail, "b-x-com", sentAt),
		SenderEmail: alice.Email,
		SenderName:  alice.DisplayName,
		SentAt:      sentAt,
		Content:     models.LocationContent{Longitude: 35.5, Latitude: 31.8},
	}
	conversationID, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "", msg)
	require.NoError(t, err)

	records, err := f.log.Messages(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.KindLocation, records[0].Type)
	assert.Equal(t, "35.5,31.8", records[0].Content)

	own, err := f.index.ListSummaries(ctx, "a-x-com")
	require.NoError(t, err)
	assert.Equal(t, "35.5,31.8", own[0].LatestMessage.Message, "preview carries the flat encoding")
}

func TestDeleteConversationIsOneSided(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")

	conversationID, err := f.ctrl.StartNewConversation(ctx, alice, "b@x.com", "", textMessage(alice, "b-x-com", "hi"))
	require.NoError(t, err)

	require.NoError(t, f.ctrl.DeleteConversation(ctx, alice, conversationID))

	own, err := f.index.ListSummaries(ctx, "a-x-com")
	require.NoError(t, err)
	assert.Empty(t, own)

	peer, err := f.index.ListSummaries(ctx, "b-x-com")
	require.NoError(t, err)
	assert.Len(t, peer, 1, "peer's summary survives")

	records, err := f.log.Messages(ctx, conversationID)
	require.NoError(t, err)
	assert.Len(t, records, 1, "message log survives")
}

func TestConversationExistsWithDirection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")
	bob := session.New("b@x.com", "Bob Jones")

	_, err := f.ctrl.ConversationExistsWith(ctx, alice, "b@x.com")
	require.ErrorIs(t, err, ErrNotFound)

	conversationID, err := f.ctrl.StartNewConversation(ctx, bob, "a@x.com", "", textMessage(bob, "a-x-com", "hey"))
	require.NoError(t, err)

	// The check scans the PEER's index for an entry pointing at the caller.
	gotID, err := f.ctrl.ConversationExistsWith(ctx, alice, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, conversationID, gotID)
}

// When the directory lookup misses, the caller-supplied name seeds the
// summary instead of blocking the start.
func TestStartWithPeerNameFallback(t *testing.T) {
	ctx := context.Background()
	alice := session.New("a@x.com", "Alice Smith")

	idx := new(mocks.IndexManagerMock)
	logMgr := new(mocks.ChatlogManagerMock)
	dir := new(mocks.DirectoryMock)
	ctrl := NewController(idx, logMgr, dir)

	idx.On("SummaryWithPeer", mock.Anything, "a-x-com", "c-x-com").Return(nil, index.ErrSummaryNotFound)
	idx.On("SummaryWithPeer", mock.Anything, "c-x-com", "a-x-com").Return(nil, index.ErrSummaryNotFound)
	dir.On("DisplayName", mock.Anything, "c@x.com").Return("", users.ErrUserNotFound)
	idx.On("AppendSummary", mock.Anything, "a-x-com", mock.MatchedBy(func(s models.ConversationSummary) bool {
		return s.Name == "Carol"
	})).Return(nil)
	idx.On("AppendSummary", mock.Anything, "c-x-com", mock.Anything).Return(nil)
	logMgr.On("CreateLog", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	msg := textMessage(alice, "c-x-com", "hi")
	_, err := ctrl.StartNewConversation(ctx, alice, "c@x.com", "Carol", msg)
	require.NoError(t, err)

	idx.AssertExpectations(t)
	logMgr.AssertExpectations(t)
}

func TestIsParticipant(t *testing.T) {
	id := "conversation_b-x-com_a-x-com_Sep 28, 2023 at 3:30:45 PM UTC"

	assert.True(t, IsParticipant(id, "a-x-com"))
	assert.True(t, IsParticipant(id, "b-x-com"))

	assert.False(t, IsParticipant(id, "c-x-com"))
	assert.False(t, IsParticipant(id, ""))
	assert.False(t, IsParticipant(id, "conversation"))

	// A key embedded inside a longer participant key is not a participant.
	assert.False(t, IsParticipant("conversation_b-x-com_aa-x-com_today", "a-x-com"))
	assert.False(t, IsParticipant("conversation_malice-x-com_b-x-com_today", "alice-x-com"))
}
