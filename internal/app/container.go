package app

import (
	"context"
	"fmt"

	"allocationservice/internal/allocation"
	"allocationservice/internal/config"
	"allocationservice/internal/platform/kafka"
	"allocationservice/internal/platform/observability"
	"allocationservice/internal/stock"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Container holds expensive-to-create singleton resources and dependencies
type Container struct {
	config            *config.Config
	logger            *zap.Logger
	tracer            observability.Tracer
	messageConsumer   kafka.Consumer
	messageProducer   kafka.Producer
	repository        *allocation.MemoryRepository
	consumerService   allocation.ConsumerService
	otelLogShutdown   func(context.Context) error
	otelTraceShutdown func(context.Context) error
}

// NewContainer creates and initializes all infrastructure components
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	container := &Container{
		config: cfg,
	}

	if err := container.setupLogger(); err != nil {
		return nil, err
	}

	tp := container.setupObservability(ctx)

	if err := container.setupRepository(); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	if err := container.setupKafkaWithTracer(tp); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	container.setupServices()
	return container, nil
}

// setupLogger starts with a basic production logger until OpenTelemetry is ready
func (c *Container) setupLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}

	c.logger = logger
	return nil
}

// setupObservability configures OpenTelemetry logging and tracing. Export
// failures are logged and the service runs with the no-op providers.
func (c *Container) setupObservability(ctx context.Context) trace.TracerProvider {
	observability.SetupPropagation()

	if c.config.OtelEnabled() {
		otelLogShutdown, err := observability.SetupLoggingSDK(ctx, c.config)
		if err != nil {
			c.logger.Error("Failed to setup OpenTelemetry logging", zap.Error(err))
		}
		c.otelLogShutdown = otelLogShutdown

		_, otelTraceShutdown, err := observability.SetupTracingSDK(ctx, c.config)
		if err != nil {
			c.logger.Error("Failed to setup OpenTelemetry tracing", zap.Error(err))
		}
		c.otelTraceShutdown = otelTraceShutdown
	} else {
		c.logger.Info("OTEL_ENDPOINT not set, telemetry export disabled")
	}

	c.logger = observability.NewLogger(c.config.OtelEnabled())
	c.logger.Info("Logger re-initialized", zap.Bool("otel", c.config.OtelEnabled()))

	c.tracer = otel.Tracer(config.ServiceName)
	return otel.GetTracerProvider()
}

// setupRepository seeds the product repository from the stock file, if any
func (c *Container) setupRepository() error {
	c.repository = allocation.NewMemoryRepository()
	if c.config.StockFile == "" {
		c.logger.Info("STOCK_FILE not set, starting without stock")
		return nil
	}

	file, err := stock.Load(c.config.StockFile)
	if err != nil {
		return err
	}
	products, err := file.Products()
	if err != nil {
		return fmt.Errorf("invalid stock file %s: %w", c.config.StockFile, err)
	}
	for _, p := range products {
		if err := c.repository.Add(context.Background(), p); err != nil {
			return err
		}
	}

	c.logger.Info("Stock loaded",
		zap.String("path", c.config.StockFile),
		zap.Int("products", c.repository.Len()),
		zap.Int("batches", len(file.Batches)),
	)
	return nil
}

// setupKafkaWithTracer initializes Kafka consumer and producer with OpenTelemetry
func (c *Container) setupKafkaWithTracer(tp trace.TracerProvider) error {
	readerConfig := kafkago.ReaderConfig{
		Brokers:     []string{c.config.KafkaBroker},
		GroupID:     config.GroupID,
		GroupTopics: []string{config.AllocationRequestedTopic, config.DeallocationRequestedTopic},
	}

	baseReader := kafkago.NewReader(readerConfig)
	reader, err := otelkafka.NewReader(baseReader)
	if err != nil {
		return err
	}
	c.messageConsumer = reader

	// No fixed topic: every outbound message names its own.
	baseWriter := &kafkago.Writer{
		Addr:         kafkago.TCP(c.config.KafkaBroker),
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: config.BatchTimeout,
		BatchSize:    config.BatchSize,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				attribute.String("messaging.kafka.client_id", config.ServiceName),
			},
		),
	)
	if err != nil {
		return err
	}
	c.messageProducer = writer

	return nil
}

func (c *Container) setupServices() {
	service := allocation.NewService(c.repository, c.logger, c.tracer)
	handler := allocation.NewMessageHandler(service, c.messageProducer, c.logger)
	c.consumerService = allocation.NewConsumerService(c.messageConsumer, handler, c.logger)
}

// Shutdown gracefully shuts down all infrastructure components
func (c *Container) Shutdown(ctx context.Context) {
	c.logger.Info("Shutting down infrastructure...")

	if c.messageConsumer != nil {
		if err := c.messageConsumer.Close(); err != nil {
			c.logger.Error("Failed to close message consumer", zap.Error(err))
		}
	}

	if c.messageProducer != nil {
		if err := c.messageProducer.Close(); err != nil {
			c.logger.Error("Failed to close message producer", zap.Error(err))
		}
	}

	if c.otelTraceShutdown != nil {
		if err := c.otelTraceShutdown(ctx); err != nil {
			c.logger.Error("Failed to shutdown OTel tracing", zap.Error(err))
		}
	}

	if c.otelLogShutdown != nil {
		if err := c.otelLogShutdown(ctx); err != nil {
			c.logger.Error("Failed to shutdown OTel logging", zap.Error(err))
		}
	}

	c.logger.Info("Infrastructure shutdown complete")

	// Sync errors on stdout are expected and not actionable.
	_ = c.logger.Sync()
}

// Getters for accessing infrastructure components
func (c *Container) Logger() observability.Logger                { return c.logger }
func (c *Container) Tracer() observability.Tracer                { return c.tracer }
func (c *Container) Repository() allocation.ProductRepository    { return c.repository }
func (c *Container) ConsumerService() allocation.ConsumerService { return c.consumerService }
