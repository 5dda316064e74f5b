package config

import (
	"fmt"
	"os"
	"time"
)

const (
	ServiceName    = "allocation-service"
	ServiceVersion = "0.1.0"
)

const (
	AllocationRequestedTopic   = "AllocationRequested"
	DeallocationRequestedTopic = "DeallocationRequested"
	AllocatedTopic             = "Allocated"
	AllocationFailedTopic      = "AllocationFailed"
	DeallocatedTopic           = "Deallocated"
	DeallocationFailedTopic    = "DeallocationFailed"
	GroupID                    = "allocation-service-group"
	BatchTimeout               = 10 * time.Millisecond
	BatchSize                  = 100
)

const (
	LogsPath      = "/otlp/v1/logs"   // Grafana Cloud OTLP path
	TracesPath    = "/otlp/v1/traces" // Grafana Cloud OTLP path
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

// Config holds environment-specific configuration
type Config struct {
	KafkaBroker    string
	OtelEndpoint   string
	OtelAuthHeader string
	// StockFile is an optional YAML file of batches loaded at startup.
	StockFile string
}

// OtelEnabled reports whether OTLP export is configured.
func (c *Config) OtelEnabled() bool {
	return c.OtelEndpoint != ""
}

// LoadConfig loads configuration from environment variables with validation
func LoadConfig() (*Config, error) {
	config := &Config{
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
		StockFile:      os.Getenv("STOCK_FILE"),
	}

	if config.KafkaBroker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER environment variable is required")
	}
	if config.OtelEndpoint != "" && config.OtelAuthHeader == "" {
		return nil, fmt.Errorf("OTEL_AUTH_HEADER environment variable is required when OTEL_ENDPOINT is set")
	}
	if config.OtelEndpoint == "" && config.OtelAuthHeader != "" {
		return nil, fmt.Errorf("OTEL_ENDPOINT environment variable is required when OTEL_AUTH_HEADER is set")
	}

	return config, nil
}
