package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/afi0204/electric-porta1/internal/meter"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Ingest      IngestConfig
	Query       QueryConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL              string
	IngestExchange   string
	IngestQueue      string
	IngestRoutingKey string
	WorkerExchange   string
	WorkerRoutingKey string
	DLQQueue         string
	PrefetchCount    int
}

// IngestConfig holds frame ingestion settings
type IngestConfig struct {
	RolloverPolicy meter.RolloverPolicy
}

// QueryConfig holds device listing pagination settings
type QueryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "electric-metering-worker"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8081),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			IngestExchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "electric-metering.ingest.exchange"),
			IngestQueue:      getEnv("RABBITMQ_INGEST_QUEUE", "electric-metering.ingest.queue"),
			IngestRoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "meter.frame.raw"),
			WorkerExchange:   getEnv("RABBITMQ_WORKER_EXCHANGE", "electric-metering.worker.events.exchange"),
			WorkerRoutingKey: getEnv("RABBITMQ_WORKER_ROUTING_KEY", "meter.reading.accepted"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "electric-metering.ingest.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Query: QueryConfig{
			DefaultPageSize: getEnvAsInt("QUERY_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getEnvAsInt("QUERY_MAX_PAGE_SIZE", 50),
		},
	}

	policy, err := meter.ParseRolloverPolicy(getEnv("INGEST_ROLLOVER_POLICY", string(meter.RolloverClamp)))
	if err != nil {
		return nil, fmt.Errorf("INGEST_ROLLOVER_POLICY is invalid: %w", err)
	}
	cfg.Ingest.RolloverPolicy = policy

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
