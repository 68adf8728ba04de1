package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"bingohub/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers       string // NATS server addresses (comma-separated), empty runs the in-process bus
	NATSSubjectPrefix string

	// Redis configuration
	RedisURL string // Empty uses the in-process caller lock

	// Ledger configuration
	StartingBalance int64 // Coins granted when an account is first created
	MaxTxAttempts   int   // Attempts per operation on concurrent modification
	TxRetryBackoff  time.Duration
	CallerLockTTL   time.Duration

	// Debug API
	DebugAPIPort int // 0 disables the debug API

	// Logging
	LogLevel string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers:       os.Getenv("NATS_SERVERS"),
		NATSSubjectPrefix: getEnvWithDefault("NATS_SUBJECT_PREFIX", "bingo"),

		RedisURL: os.Getenv("REDIS_URL"),

		StartingBalance: getEnvInt64("STARTING_BALANCE", 1000),
		MaxTxAttempts:   int(getEnvInt64("MAX_TX_ATTEMPTS", 3)),
		TxRetryBackoff:  time.Duration(getEnvInt64("TX_RETRY_BACKOFF_MS", 25)) * time.Millisecond,
		CallerLockTTL:   time.Duration(getEnvInt64("CALLER_LOCK_TTL_MS", 2000)) * time.Millisecond,

		DebugAPIPort: int(getEnvInt64("DEBUG_API_PORT", 8899)),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "bingohub"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MS", 15000)),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// Validate checks the values that would otherwise fail deep inside the ledger
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE must not be negative, got %d", c.StartingBalance)
	}
	if c.MaxTxAttempts < 1 {
		return fmt.Errorf("MAX_TX_ATTEMPTS must be at least 1, got %d", c.MaxTxAttempts)
	}
	if c.OTelEnabled {
		switch c.OTelExporterType {
		case "console", "otlp", "none":
		default:
			return fmt.Errorf("unknown OTEL_EXPORTER_TYPE: %s", c.OTelExporterType)
		}
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 parses an integer environment variable, keeping the default when unset or malformed
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// SetTestConfig sets a test configuration instance
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the configuration singleton (useful for tests)
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		Environment:       "test",
		NATSSubjectPrefix: "bingo",
		StartingBalance:   1000,
		MaxTxAttempts:     3,
		TxRetryBackoff:    time.Millisecond,
		CallerLockTTL:     time.Second,
		LogLevel:          "debug",
		OTelExporterType:  "none",
		OTelServiceName:   "bingohub-test",
	}
}
