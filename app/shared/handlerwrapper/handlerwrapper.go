// Package handlerwrapper adapts typed event handlers to Watermill.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/observability"
)

// Result is an outgoing event produced by a handler.
type Result struct {
	Topic   string
	Payload any
}

// TypedHandler handles one decoded payload and returns the events to publish.
type TypedHandler[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTransformingTyped decodes the message JSON into T, runs the handler
// with the message's correlation ID in context and publishes each Result.
// Undecodable messages are logged and acked so they are not redelivered.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	handler TypedHandler[T],
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx := observability.WithCorrelationID(msg.Context(), correlationID)

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.WarnContext(ctx, "Dropping undecodable message",
				observability.CorrelationAttr(ctx),
				slog.String("handler", handlerName),
				slog.String("message_id", msg.UUID),
				slog.Any("error", err),
			)
			span.RecordError(err)
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				observability.CorrelationAttr(ctx),
				slog.String("handler", handlerName),
				slog.Any("error", err),
			)
			span.RecordError(err)
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		if err := PublishResults(ctx, publisher, results...); err != nil {
			span.RecordError(err)
			return fmt.Errorf("%s: %w", handlerName, err)
		}
		return nil
	}
}

// NewMessage encodes payload as JSON and stamps the context's correlation ID.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), body)
	msg.Metadata.Set("content_type", "application/json")

	correlationID := observability.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = msg.UUID
	}
	middleware.SetCorrelationID(correlationID, msg)
	return msg, nil
}

// PublishResults publishes each result on its topic.
func PublishResults(ctx context.Context, publisher message.Publisher, results ...Result) error {
	for _, r := range results {
		if r.Topic == "" {
			return fmt.Errorf("result without topic")
		}
		msg, err := NewMessage(ctx, r.Payload)
		if err != nil {
			return err
		}
		if err := publisher.Publish(r.Topic, msg); err != nil {
			return fmt.Errorf("publish %s: %w", r.Topic, err)
		}
	}
	return nil
}
