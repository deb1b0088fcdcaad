package telemetry

import (
	"context"
	"log"
	"time"
)

// Chat event names published to the audit exchange.
const (
	EventConversationCreated = "conversation_created"
	EventConversationDeleted = "conversation_deleted"
	EventMessageSent         = "message_sent"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// ChatEmitter records conversation lifecycle events for auditing.
type ChatEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// ChatEventEnvelope is the wire form of one audit event.
type ChatEventEnvelope struct {
	SchemaVersion  int    `json:"schema_version"`
	Event          string `json:"event"`
	OccurredAt     string `json:"occurred_at"`
	Service        string `json:"service"`
	Environment    string `json:"environment"`
	RequestID      string `json:"request_id"`
	UserKey        string `json:"user_key"`
	ConversationID string `json:"conversation_id"`
	MessageType    string `json:"message_type,omitempty"`
}

func NewChatEmitter(publisher Publisher, routingKey, service, environment string) *ChatEmitter {
	return &ChatEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one chat event. Failures are logged and dropped; auditing
// never blocks or fails the operation it records.
func (e *ChatEmitter) Emit(ctx context.Context, event, requestID, userKey, conversationID, messageType string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := ChatEventEnvelope{
		SchemaVersion:  1,
		Event:          event,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339Nano),
		Service:        e.service,
		Environment:    e.environment,
		RequestID:      requestID,
		UserKey:        userKey,
		ConversationID: conversationID,
		MessageType:    messageType,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("chat audit publish failed: %v", err)
	}
}
