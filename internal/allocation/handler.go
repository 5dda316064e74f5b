package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"allocationservice/internal/config"
	"allocationservice/internal/platform/kafka"
	"allocationservice/internal/platform/observability"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrUnknownTopic = errors.New("unknown topic")

// MessageHandler defines the interface for processing incoming messages.
type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

// KafkaMessageHandler turns allocation requests read from Kafka into
// service calls and publishes the outcome.
type KafkaMessageHandler struct {
	service  Service
	producer kafka.Producer
	logger   observability.Logger
}

// NewMessageHandler creates a new MessageHandler instance with explicit dependencies
func NewMessageHandler(service Service, producer kafka.Producer, logger observability.Logger) *KafkaMessageHandler {
	return &KafkaMessageHandler{
		service:  service,
		producer: producer,
		logger:   logger,
	}
}

// Handle dispatches msg by topic. Refused requests are published as
// failure events and are not returned as errors.
func (h *KafkaMessageHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	msgCtx := kafka.ExtractTraceContext(ctx, msg.Headers)

	h.logger.Info("Kafka message received",
		zap.String("topic", msg.Topic),
		zap.ByteString("key", msg.Key),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	switch msg.Topic {
	case config.AllocationRequestedTopic:
		var req AllocationRequested
		if err := h.decode(msg, &req); err != nil {
			return err
		}
		return h.handleAllocate(msgCtx, req)
	case config.DeallocationRequestedTopic:
		var req DeallocationRequested
		if err := h.decode(msg, &req); err != nil {
			return err
		}
		return h.handleDeallocate(msgCtx, req)
	default:
		h.logger.Error("Message on unknown topic", zap.String("topic", msg.Topic))
		return fmt.Errorf("%w: %s", ErrUnknownTopic, msg.Topic)
	}
}

func (h *KafkaMessageHandler) decode(msg kafkago.Message, v any) error {
	if err := json.Unmarshal(msg.Value, v); err != nil {
		h.logger.Error("Invalid JSON in message",
			zap.String("topic", msg.Topic),
			zap.Error(err),
			zap.ByteString("raw_value", msg.Value),
		)
		return fmt.Errorf("decode %s: %w", msg.Topic, err)
	}
	return nil
}

func (h *KafkaMessageHandler) handleAllocate(ctx context.Context, req AllocationRequested) error {
	allocated, err := h.service.Allocate(ctx, req)
	if err != nil {
		kind := KindOf(err)
		if kind == KindUnknown {
			return err
		}
		return h.publish(ctx, config.AllocationFailedTopic, req.OrderID, AllocationFailed{
			EventID:   uuid.NewString(),
			OrderID:   req.OrderID,
			SKU:       req.SKU,
			Quantity:  req.Quantity,
			Reason:    err.Error(),
			ErrorKind: kind,
		})
	}
	return h.publish(ctx, config.AllocatedTopic, allocated.OrderID, allocated)
}

func (h *KafkaMessageHandler) handleDeallocate(ctx context.Context, req DeallocationRequested) error {
	deallocated, err := h.service.Deallocate(ctx, req)
	if err != nil {
		kind := KindOf(err)
		if kind == KindUnknown {
			return err
		}
		return h.publish(ctx, config.DeallocationFailedTopic, req.OrderID, DeallocationFailed{
			EventID:        uuid.NewString(),
			OrderID:        req.OrderID,
			SKU:            req.SKU,
			Quantity:       req.Quantity,
			BatchReference: req.BatchReference,
			Reason:         err.Error(),
			ErrorKind:      kind,
		})
	}
	return h.publish(ctx, config.DeallocatedTopic, deallocated.OrderID, deallocated)
}

func (h *KafkaMessageHandler) publish(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize event", zap.Error(err), zap.String("topic", topic))
		return err
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	if err := h.producer.WriteMessage(ctx, msg); err != nil {
		h.logger.Error("Failed to publish event",
			zap.Error(err),
			zap.String("topic", topic),
			zap.String("order_id", key),
		)
		return err
	}

	h.logger.Info("Event published", zap.String("topic", topic), zap.String("order_id", key))
	return nil
}
