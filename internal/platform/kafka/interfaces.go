package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer publishes messages. Each message names its own topic.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

type Consumer interface {
	ReadMessage(ctx context.Context) (*kafka.Message, error)
	Close() error
}
