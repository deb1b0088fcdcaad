package chatlog

import (
	"context"
	"encoding/json"

	"messenger-service/internal/models"
	"messenger-service/internal/store"
)

// MessageStream is a live feed of a conversation's full message log. Each
// delivery is the complete current log, not a diff.
type MessageStream struct {
	updates chan []models.MessageRecord
	sub     store.Subscription
}

// StreamMessages implements Manager.
func (m *StoreManager) StreamMessages(ctx context.Context, conversationID string) (*MessageStream, error) {
	sub, err := m.store.Subscribe(ctx, logPath(conversationID))
	if err != nil {
		return nil, err
	}
	stream := &MessageStream{
		updates: make(chan []models.MessageRecord),
		sub:     sub,
	}
	go stream.pump(ctx)
	return stream, nil
}

// Updates yields the full log after every change.
func (s *MessageStream) Updates() <-chan []models.MessageRecord {
	return s.updates
}

// Close releases the underlying store subscription.
func (s *MessageStream) Close() error {
	return s.sub.Close()
}

func (s *MessageStream) pump(ctx context.Context) {
	defer close(s.updates)
	for raw := range s.sub.Updates() {
		var records []models.MessageRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			continue
		}
		select {
		case s.updates <- records:
		case <-ctx.Done():
			return
		}
	}
}
