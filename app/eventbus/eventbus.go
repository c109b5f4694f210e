// Package eventbus connects Watermill to NATS.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// QueueGroup load-balances subscriptions across bot replicas.
const QueueGroup = "geoguessr-bot"

// EventBus is a NATS-backed Watermill publisher and subscriber.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

var (
	_ message.Publisher  = (*EventBus)(nil)
	_ message.Subscriber = (*EventBus)(nil)
)

// NewEventBus creates and returns an EventBus connected to natsURL.
func NewEventBus(natsURL string, logger *slog.Logger) (*EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Create a Watermill logger that wraps slog
	watermillLogger := watermill.NewSlogLogger(logger)

	marshaler := &nats.NATSMarshaler{}
	natsOptions := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Name(QueueGroup),
	}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         natsURL,
			Marshaler:   marshaler,
			NatsOptions: natsOptions,
			JetStream:   nats.JetStreamConfig{Disabled: true},
		},
		watermillLogger,
	)
	if err != nil {
		logger.Error("Failed to create Watermill publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              natsURL,
			QueueGroupPrefix: QueueGroup,
			Unmarshaler:      marshaler,
			NatsOptions:      natsOptions,
			JetStream:        nats.JetStreamConfig{Disabled: true},
		},
		watermillLogger,
	)
	if err != nil {
		_ = publisher.Close()
		logger.Error("Failed to create Watermill subscriber", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	return &EventBus{
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

// Publish publishes messages on a NATS subject.
func (eb *EventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
		eb.logger.Debug("Publishing message",
			slog.String("topic", topic),
			slog.String("message_id", msg.UUID),
		)
	}
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to a NATS subject.
func (eb *EventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	eb.logger.Info("Subscribing to topic", slog.String("topic", topic))
	msgs, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return msgs, nil
}

// Close closes the publisher and the subscriber.
func (eb *EventBus) Close() error {
	return errors.Join(eb.publisher.Close(), eb.subscriber.Close())
}
