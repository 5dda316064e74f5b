package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type scriptedConsumer struct {
	steps []func() (*kafkago.Message, error)
}

func (c *scriptedConsumer) ReadMessage(ctx context.Context) (*kafkago.Message, error) {
	if len(c.steps) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	return step()
}

func (c *scriptedConsumer) Close() error { return nil }

type recordingHandler struct {
	handled []kafkago.Message
	err     error
	done    chan struct{}
	want    int
}

func (h *recordingHandler) Handle(_ context.Context, msg kafkago.Message) error {
	h.handled = append(h.handled, msg)
	if len(h.handled) == h.want {
		close(h.done)
	}
	return h.err
}

func TestConsumerServiceHandlesMessagesUntilCancelled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	consumer := &scriptedConsumer{steps: []func() (*kafkago.Message, error){
		func() (*kafkago.Message, error) { return &kafkago.Message{Topic: "a", Offset: 1}, nil },
		func() (*kafkago.Message, error) { return nil, errors.New("transient") },
		func() (*kafkago.Message, error) { return &kafkago.Message{Topic: "b", Offset: 2}, nil },
	}}
	handler := &recordingHandler{err: errors.New("bad payload"), done: make(chan struct{}), want: 2}
	service := NewConsumerService(consumer, handler, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- service.Start(ctx) }()

	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("messages were not handled")
	}
	cancel()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	require.Len(t, handler.handled, 2)
	assert.Equal(t, "a", handler.handled[0].Topic)
	assert.Equal(t, "b", handler.handled[1].Topic)
	assert.Equal(t, 1, logs.FilterMessage("Error reading from Kafka").Len())
	assert.Equal(t, 2, logs.FilterMessage("Failed to handle message").Len())
	assert.Equal(t, 1, logs.FilterMessage("Consumer service finished. Shutting down...").Len())
}
