// Package chatlog manages the ordered, append-only message log of a
// conversation. The log is one document, read and written as a whole, with
// the same whole-value last-write-wins hazard as the conversation index,
// scoped to a single conversation.
package chatlog

import (
	"context"
	"errors"
	"fmt"

	"messenger-service/internal/models"
	"messenger-service/internal/store"
)

// ErrLogNotFound is returned when no message log exists for a conversation.
var ErrLogNotFound = errors.New("chatlog: log not found")

// Manager maintains per-conversation message logs.
type Manager interface {
	// CreateLog writes the initial single-element log. It performs no
	// existence check: calling it twice for the same id truncates the log
	// back to one element, which the lifecycle controller must guard
	// against.
	CreateLog(ctx context.Context, conversationID string, first models.MessageRecord) error
	// AppendMessage appends a record to the log. Ordering is append order,
	// never re-sorted by date. Record ids are caller-supplied and must be
	// unique within the conversation.
	AppendMessage(ctx context.Context, conversationID string, record models.MessageRecord) error
	// Messages returns a snapshot of the full log.
	Messages(ctx context.Context, conversationID string) ([]models.MessageRecord, error)
	// StreamMessages opens a live feed re-delivering the full log on every
	// change. The feed runs until closed.
	StreamMessages(ctx context.Context, conversationID string) (*MessageStream, error)
}

// StoreManager implements Manager against the document store.
type StoreManager struct {
	store store.Store
}

// NewStoreManager constructs a StoreManager.
func NewStoreManager(s store.Store) *StoreManager {
	return &StoreManager{store: s}
}

// CreateLog implements Manager.
func (m *StoreManager) CreateLog(ctx context.Context, conversationID string, first models.MessageRecord) error {
	if err := m.store.Write(ctx, logPath(conversationID), []models.MessageRecord{first}); err != nil {
		return fmt.Errorf("create log %s: %w", conversationID, err)
	}
	return nil
}

// AppendMessage implements Manager.
func (m *StoreManager) AppendMessage(ctx context.Context, conversationID string, record models.MessageRecord) error {
	records, err := m.Messages(ctx, conversationID)
	if err != nil {
		return err
	}
	records = append(records, record)
	if err := m.store.Write(ctx, logPath(conversationID), records); err != nil {
		return fmt.Errorf("append message to %s: %w", conversationID, err)
	}
	return nil
}

// Messages implements Manager.
func (m *StoreManager) Messages(ctx context.Context, conversationID string) ([]models.MessageRecord, error) {
	var records []models.MessageRecord
	err := m.store.Read(ctx, logPath(conversationID), &records)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", conversationID, err)
	}
	return records, nil
}

func logPath(conversationID string) string {
	return conversationID + "/messages"
}
