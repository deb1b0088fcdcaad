package rabbitmq

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"messenger-service/internal/telemetry"
)

// Publisher publishes chat audit events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher. When AMQP is disabled or the
// broker is unreachable the service still starts: events fall through to a
// noop publisher that logs each event instead.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		log.Printf("rabbitmq disabled, using noop: empty amqp url")
		return noopPublisher{reason: "empty amqp url"}
	}
	p, err := dial(amqpURL, exchange)
	if err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		return noopPublisher{reason: err.Error()}
	}
	log.Printf("rabbitmq connected exchange=%s", exchange)
	return p
}

func dial(amqpURL, exchange string) (*amqpPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Durable topic exchange shared with the audit consumers.
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("rabbitmq publish failed: %v", err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(_ context.Context, routingKey string, event any) error {
	if envelope, ok := chatEnvelope(event); ok {
		log.Printf("rabbitmq noop publish routing_key=%s event=%s conversation_id=%s",
			routingKey, envelope.Event, envelope.ConversationID)
		return nil
	}
	log.Printf("rabbitmq noop publish routing_key=%s", routingKey)
	return nil
}

func (noopPublisher) Close() error { return nil }

func chatEnvelope(event any) (telemetry.ChatEventEnvelope, bool) {
	switch e := event.(type) {
	case telemetry.ChatEventEnvelope:
		return e, true
	case *telemetry.ChatEventEnvelope:
		return *e, true
	default:
		return telemetry.ChatEventEnvelope{}, false
	}
}

// PublisherMode reports whether events actually reach the broker.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher, *noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

// PublisherNoopReason reports why the noop fallback was chosen, if it was.
func PublisherNoopReason(p Publisher) string {
	switch publisher := p.(type) {
	case noopPublisher:
		return publisher.reason
	case *noopPublisher:
		return publisher.reason
	default:
		return ""
	}
}
