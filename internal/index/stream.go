package index

import (
	"context"
	"encoding/json"

	"messenger-service/internal/models"
	"messenger-service/internal/store"
)

// SummaryStream is a live feed of an owner's full conversation list. Each
// delivery is the complete current list, not a diff.
type SummaryStream struct {
	updates chan []models.ConversationSummary
	sub     store.Subscription
}

// StreamSummaries implements Manager.
func (m *StoreManager) StreamSummaries(ctx context.Context, ownerKey string) (*SummaryStream, error) {
	sub, err := m.store.Subscribe(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	stream := &SummaryStream{
		updates: make(chan []models.ConversationSummary),
		sub:     sub,
	}
	go stream.pump(ctx)
	return stream, nil
}

// Updates yields the full current list after every change to the owner's
// node.
func (s *SummaryStream) Updates() <-chan []models.ConversationSummary {
	return s.updates
}

// Close releases the underlying store subscription.
func (s *SummaryStream) Close() error {
	return s.sub.Close()
}

func (s *SummaryStream) pump(ctx context.Context) {
	defer close(s.updates)
	for raw := range s.sub.Updates() {
		var user models.User
		if err := json.Unmarshal(raw, &user); err != nil {
			continue
		}
		select {
		case s.updates <- user.Conversations:
		case <-ctx.Done():
			return
		}
	}
}
