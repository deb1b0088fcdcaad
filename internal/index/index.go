// Package index maintains each participant's conversation summary list.
// The list is embedded in the owner's user node and always read and written
// as a whole. Two concurrent writers to the same owner can therefore lose
// one writer's entry (last write wins on the whole list); this matches the
// store's single-path atomicity and is a documented property, not a bug to
// patch locally.
package index

import (
	"context"
	"errors"
	"fmt"

	"messenger-service/internal/models"
	"messenger-service/internal/store"
)

var (
	// ErrOwnerNotFound is returned when no user node exists for the owner key.
	ErrOwnerNotFound = errors.New("index: owner not found")
	// ErrSummaryNotFound is returned when no summary matches a lookup.
	ErrSummaryNotFound = errors.New("index: summary not found")
)

// Manager maintains per-user conversation summary lists.
type Manager interface {
	// AppendSummary appends a summary to the owner's list unless an entry
	// with the same conversation id already exists (idempotent by id).
	AppendSummary(ctx context.Context, ownerKey string, summary models.ConversationSummary) error
	// UpdateLatestMessage replaces the latest-message preview of the
	// owner's summary matching summary.ID. When the owner no longer holds a
	// summary for that id (one-sided deletion), the full summary is
	// appended back.
	UpdateLatestMessage(ctx context.Context, ownerKey string, summary models.ConversationSummary) error
	// RemoveSummary filters the conversation out of the owner's list. A
	// missing id is a successful no-op.
	RemoveSummary(ctx context.Context, ownerKey string, conversationID string) error
	// ListSummaries returns a snapshot of the owner's list.
	ListSummaries(ctx context.Context, ownerKey string) ([]models.ConversationSummary, error)
	// StreamSummaries opens a live feed re-delivering the owner's full list
	// on every remote mutation. The feed runs until closed.
	StreamSummaries(ctx context.Context, ownerKey string) (*SummaryStream, error)
	// SummaryWithPeer scans the owner's list for the entry pointing at the
	// given peer identity and returns it, or ErrSummaryNotFound.
	SummaryWithPeer(ctx context.Context, ownerKey string, peerKey string) (models.ConversationSummary, error)
}

// StoreManager implements Manager against the document store.
type StoreManager struct {
	store store.Store
}

// NewStoreManager constructs a StoreManager.
func NewStoreManager(s store.Store) *StoreManager {
	return &StoreManager{store: s}
}

// AppendSummary implements Manager.
func (m *StoreManager) AppendSummary(ctx context.Context, ownerKey string, summary models.ConversationSummary) error {
	user, err := m.readOwner(ctx, ownerKey)
	if err != nil {
		return err
	}
	for _, existing := range user.Conversations {
		if existing.ID == summary.ID {
			return nil
		}
	}
	user.Conversations = append(user.Conversations, summary)
	if err := m.store.Write(ctx, ownerKey, user); err != nil {
		return fmt.Errorf("append summary for %s: %w", ownerKey, err)
	}
	return nil
}

// UpdateLatestMessage implements Manager.
func (m *StoreManager) UpdateLatestMessage(ctx context.Context, ownerKey string, summary models.ConversationSummary) error {
	user, err := m.readOwner(ctx, ownerKey)
	if err != nil {
		return err
	}
	updated := false
	for i, existing := range user.Conversations {
		if existing.ID != summary.ID {
			continue
		}
		user.Conversations[i].LatestMessage = summary.LatestMessage
		if summary.Name != "" {
			user.Conversations[i].Name = summary.Name
		}
		updated = true
		break
	}
	if !updated {
		// The owner deleted the conversation on their side; a new message
		// puts it back in their index.
		user.Conversations = append(user.Conversations, summary)
	}
	if err := m.store.Write(ctx, ownerKey, user); err != nil {
		return fmt.Errorf("update latest message for %s: %w", ownerKey, err)
	}
	return nil
}

// RemoveSummary implements Manager.
func (m *StoreManager) RemoveSummary(ctx context.Context, ownerKey string, conversationID string) error {
	user, err := m.readOwner(ctx, ownerKey)
	if errors.Is(err, ErrOwnerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	filtered := user.Conversations[:0]
	for _, existing := range user.Conversations {
		if existing.ID != conversationID {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == len(user.Conversations) {
		return nil
	}
	user.Conversations = filtered
	if err := m.store.Write(ctx, ownerKey, user); err != nil {
		return fmt.Errorf("remove summary for %s: %w", ownerKey, err)
	}
	return nil
}

// ListSummaries implements Manager.
func (m *StoreManager) ListSummaries(ctx context.Context, ownerKey string) ([]models.ConversationSummary, error) {
	user, err := m.readOwner(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	return user.Conversations, nil
}

// SummaryWithPeer implements Manager.
func (m *StoreManager) SummaryWithPeer(ctx context.Context, ownerKey string, peerKey string) (models.ConversationSummary, error) {
	summaries, err := m.ListSummaries(ctx, ownerKey)
	if errors.Is(err, ErrOwnerNotFound) {
		return models.ConversationSummary{}, ErrSummaryNotFound
	}
	if err != nil {
		return models.ConversationSummary{}, err
	}
	for _, summary := range summaries {
		if summary.OtherUserEmail == peerKey {
			return summary, nil
		}
	}
	return models.ConversationSummary{}, ErrSummaryNotFound
}

func (m *StoreManager) readOwner(ctx context.Context, ownerKey string) (models.User, error) {
	var user models.User
	err := m.store.Read(ctx, ownerKey, &user)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrOwnerNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("read owner %s: %w", ownerKey, err)
	}
	return user, nil
}
