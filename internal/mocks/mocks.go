package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/chatlog"
	"messenger-service/internal/index"
	"messenger-service/internal/models"
	"messenger-service/internal/users"
)

type IndexManagerMock struct {
	mock.Mock
}

func (m *IndexManagerMock) AppendSummary(ctx context.Context, ownerKey string, summary models.ConversationSummary) error {
	args := m.Called(ctx, ownerKey, summary)
	return args.Error(0)
}

func (m *IndexManagerMock) UpdateLatestMessage(ctx context.Context, ownerKey string, summary models.ConversationSummary) error {
	args := m.Called(ctx, ownerKey, summary)
	return args.Error(0)
}

func (m *IndexManagerMock) RemoveSummary(ctx context.Context, ownerKey string, conversationID string) error {
	args := m.Called(ctx, ownerKey, conversationID)
	return args.Error(0)
}

func (m *IndexManagerMock) ListSummaries(ctx context.Context, ownerKey string) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, ownerKey)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *IndexManagerMock) StreamSummaries(ctx context.Context, ownerKey string) (*index.SummaryStream, error) {
	args := m.Called(ctx, ownerKey)
	var stream *index.SummaryStream
	if val := args.Get(0); val != nil {
		stream = val.(*index.SummaryStream)
	}
	return stream, args.Error(1)
}

func (m *IndexManagerMock) SummaryWithPeer(ctx context.Context, ownerKey string, peerKey string) (models.ConversationSummary, error) {
	args := m.Called(ctx, ownerKey, peerKey)
	var summary models.ConversationSummary
	if val := args.Get(0); val != nil {
		summary = val.(models.ConversationSummary)
	}
	return summary, args.Error(1)
}

type ChatlogManagerMock struct {
	mock.Mock
}

func (m *ChatlogManagerMock) CreateLog(ctx context.Context, conversationID string, first models.MessageRecord) error {
	args := m.Called(ctx, conversationID, first)
	return args.Error(0)
}

func (m *ChatlogManagerMock) AppendMessage(ctx context.Context, conversationID string, record models.MessageRecord) error {
	args := m.Called(ctx, conversationID, record)
	return args.Error(0)
}

func (m *ChatlogManagerMock) Messages(ctx context.Context, conversationID string) ([]models.MessageRecord, error) {
	args := m.Called(ctx, conversationID)
	var records []models.MessageRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.MessageRecord)
	}
	return records, args.Error(1)
}

func (m *ChatlogManagerMock) StreamMessages(ctx context.Context, conversationID string) (*chatlog.MessageStream, error) {
	args := m.Called(ctx, conversationID)
	var stream *chatlog.MessageStream
	if val := args.Get(0); val != nil {
		stream = val.(*chatlog.MessageStream)
	}
	return stream, args.Error(1)
}

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) InsertUser(ctx context.Context, email string, user models.User) error {
	args := m.Called(ctx, email, user)
	return args.Error(0)
}

func (m *DirectoryMock) UserExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *DirectoryMock) Get(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *DirectoryMock) AllUsers(ctx context.Context) ([]models.UserListing, error) {
	args := m.Called(ctx)
	var listings []models.UserListing
	if val := args.Get(0); val != nil {
		listings = val.([]models.UserListing)
	}
	return listings, args.Error(1)
}

func (m *DirectoryMock) DisplayName(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *DirectoryMock) SaveCredentials(ctx context.Context, email string, creds models.Credentials) error {
	args := m.Called(ctx, email, creds)
	return args.Error(0)
}

func (m *DirectoryMock) Credentials(ctx context.Context, email string) (models.Credentials, error) {
	args := m.Called(ctx, email)
	var creds models.Credentials
	if val := args.Get(0); val != nil {
		creds = val.(models.Credentials)
	}
	return creds, args.Error(1)
}

var _ index.Manager = (*IndexManagerMock)(nil)
var _ chatlog.Manager = (*ChatlogManagerMock)(nil)
var _ users.Directory = (*DirectoryMock)(nil)
