package allocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"allocationservice/internal/domain"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEnv struct {
	repo    *MemoryRepository
	service *DefaultService
	logs    *observer.ObservedLogs
	spans   *tracetest.SpanRecorder
}

func newTestEnv(t *testing.T, products ...*domain.Product) *testEnv {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	repo := NewMemoryRepository(products...)
	service := NewService(repo, zap.New(core), tp.Tracer("test"))
	service.now = func() time.Time { return time.Date(2024, time.March, 14, 10, 0, 0, 0, time.UTC) }

	return &testEnv{repo: repo, service: service, logs: logs, spans: spans}
}

func mustBatch(t *testing.T, ref, sku string, qty int, eta *time.Time) *domain.Batch {
	t.Helper()
	b, err := domain.NewBatch(ref, sku, qty, eta)
	require.NoError(t, err)
	return b
}

func mustProduct(t *testing.T, sku string, batches ...*domain.Batch) *domain.Product {
	t.Helper()
	if batches == nil {
		batches = []*domain.Batch{}
	}
	p, err := domain.NewProduct(sku, batches)
	require.NoError(t, err)
	return p
}

func inDays(days int) *time.Time {
	t := time.Now().AddDate(0, 0, days)
	return &t
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
}

func (p *fakeProducer) WriteMessage(_ context.Context, msg kafkago.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) sent() []kafkago.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafkago.Message(nil), p.messages...)
}
