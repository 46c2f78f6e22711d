// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for the HTTP
// server, PostgreSQL, the optional Kafka publisher, and the batch jobs.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field represents
// a major subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	Kafka       KafkaConfig
	Snapshot    SnapshotConfig
	PriceIngest PriceIngestConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// KafkaConfig contains the reward event publisher configuration. Publishing
// is best-effort and can be disabled entirely.
type KafkaConfig struct {
	Enabled           bool
	Brokers           string
	RewardTopic       string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
}

// SnapshotConfig contains the daily snapshot worker configuration
type SnapshotConfig struct {
	WorkerPoolSize int           // Concurrent per-user snapshot computations
	PriceStaleness time.Duration // Age after which a valuation price counts as stale
}

// PriceIngestConfig contains the mock price ingestion job configuration
type PriceIngestConfig struct {
	Symbols     []string
	MinPriceINR float64
	MaxPriceINR float64
}

// validate performs validation of all configuration values, ensuring they
// meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Kafka settings only matter when publishing is switched on
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			validationErrors = append(validationErrors, "KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if c.Kafka.RewardTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_REWARD_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	// Validate Snapshot config
	if c.Snapshot.WorkerPoolSize <= 0 {
		validationErrors = append(validationErrors, "SNAPSHOT_WORKER_POOL_SIZE must be greater than 0")
	}
	if c.Snapshot.PriceStaleness <= 0 {
		validationErrors = append(validationErrors, "SNAPSHOT_PRICE_STALENESS must be greater than 0")
	}

	// Validate PriceIngest config
	if len(c.PriceIngest.Symbols) == 0 {
		validationErrors = append(validationErrors, "PRICE_INGEST_SYMBOLS is required")
	}
	if c.PriceIngest.MinPriceINR <= 0 || c.PriceIngest.MaxPriceINR <= c.PriceIngest.MinPriceINR {
		validationErrors = append(validationErrors, "PRICE_INGEST price band must satisfy 0 < min < max")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
