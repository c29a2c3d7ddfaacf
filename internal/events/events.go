package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	EventSessionStarted = "session.started"
	EventSessionEnded   = "session.ended"

	eventSource  = "team-dashboard"
	eventVersion = "1.0"
)

// SessionEvent identifies a session without carrying its bearer token.
type SessionEvent struct {
	SessionID string `json:"session_id"`
	UserID    int64  `json:"user_id"`
	Role      string `json:"role,omitempty"`
}

// Event is the envelope published on the session topic
type Event struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Source    string       `json:"source"`
	Version   string       `json:"version"`
	Timestamp time.Time    `json:"timestamp"`
	Data      SessionEvent `json:"data"`
}

func newEvent(eventType string, data SessionEvent) Event {
	return Event{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher announces session lifecycle changes
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, data SessionEvent) error
	PublishSessionEnded(ctx context.Context, data SessionEvent) error
}

// Config selects the transport. Without brokers an in-process channel is used.
type Config struct {
	Brokers []string
	Topic   string
}

// Bus owns the watermill publisher and subscriber for session events
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger
}

// NewBus builds a GoChannel bus, or a Kafka bus when brokers are configured
func NewBus(cfg Config, logger *slog.Logger) (*Bus, error) {
	if cfg.Topic == "" {
		return nil, errors.New("events topic is required")
	}
	wmLogger := watermill.NewSlogLogger(logger)

	if len(cfg.Brokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		return &Bus{publisher: ch, subscriber: ch, topic: cfg.Topic, logger: logger}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	// No consumer group: every instance must see every logout.
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:     cfg.Brokers,
		Unmarshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &Bus{publisher: publisher, subscriber: subscriber, topic: cfg.Topic, logger: logger}, nil
}

func (b *Bus) PublishSessionStarted(ctx context.Context, data SessionEvent) error {
	return b.publish(ctx, newEvent(EventSessionStarted, data))
}

func (b *Bus) PublishSessionEnded(ctx context.Context, data SessionEvent) error {
	return b.publish(ctx, newEvent(EventSessionEnded, data))
}

func (b *Bus) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("type", event.Type)

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	b.logger.DebugContext(ctx, "Event published", "type", event.Type, "event_id", event.ID)
	return nil
}

// Handler processes one decoded event
type Handler func(ctx context.Context, event Event) error

// Listen consumes the session topic until ctx is done. Messages are acked
// even when the handler fails so a poisoned event cannot wedge the stream.
func (b *Bus) Listen(ctx context.Context, handler Handler) error {
	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.topic, err)
	}

	for msg := range messages {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			b.logger.WarnContext(ctx, "Dropping malformed event", "message_id", msg.UUID, "error", err)
			msg.Ack()
			continue
		}

		if err := handler(ctx, event); err != nil {
			b.logger.ErrorContext(ctx, "Event handler failed", "type", event.Type, "event_id", event.ID, "error", err)
		}
		msg.Ack()
	}

	return nil
}

// Close closes the publisher and subscriber
func (b *Bus) Close() error {
	return errors.Join(b.publisher.Close(), b.subscriber.Close())
}

// Forgetter matches listquery.Forgetter
type Forgetter interface {
	Forget(key string)
}

// ForgetOnSessionEnd drops per-session list state when a session ends
func ForgetOnSessionEnd(f Forgetter) Handler {
	return func(_ context.Context, event Event) error {
		if event.Type != EventSessionEnded {
			return nil
		}
		if event.Data.SessionID == "" {
			return errors.New("session ended event without session id")
		}
		f.Forget(event.Data.SessionID)
		return nil
	}
}
