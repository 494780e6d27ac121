package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Persistence backends
const (
	PersistenceDynamoDB = "dynamodb"
	PersistenceMemory   = "memory"
)

// ResolutionConfig holds configuration for node-to-card resolution
type ResolutionConfig struct {
	// CacheTTL is how long resolved node mappings stay valid; zero keeps
	// them for the process lifetime
	CacheTTL time.Duration
}

// LoaderConfig holds configuration for batched entity loading
type LoaderConfig struct {
	// BatchWindow is how long single loads wait to coalesce
	BatchWindow time.Duration
	// MaxBatchSize dispatches a batch early once this many keys pend
	MaxBatchSize int
}

// FeedConfig holds configuration for the card feed
type FeedConfig struct {
	PageSize int
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence configuration
	Persistence   string
	AWSRegion     string
	DynamoDBTable string
	UserCardIndex string // GSI for owner-scoped card queries

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics        bool
	EnableCORS           bool
	EnableCircuitBreaker bool
	MetricsNamespace     string

	// Dynamic configuration file watched at runtime; empty disables it
	DynamicConfigPath string

	Resolution ResolutionConfig
	Loader     LoaderConfig
	Feed       FeedConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		Persistence:   getEnv("PERSISTENCE", PersistenceDynamoDB),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "cosmos"),
		UserCardIndex: getEnv("USER_CARD_INDEX", "UserCardIndex"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		EnableMetrics:        getEnvBool("ENABLE_METRICS", false),
		EnableCORS:           getEnvBool("ENABLE_CORS", true),
		EnableCircuitBreaker: getEnvBool("ENABLE_CIRCUIT_BREAKER", false),
		MetricsNamespace:     getEnv("METRICS_NAMESPACE", "Cosmos/Cards"),

		DynamicConfigPath: getEnv("DYNAMIC_CONFIG_PATH", ""),

		Resolution: ResolutionConfig{
			CacheTTL: time.Duration(getEnvInt("RESOLUTION_CACHE_TTL_SECONDS", 0)) * time.Second,
		},
		Loader: LoaderConfig{
			BatchWindow:  time.Duration(getEnvInt("LOADER_BATCH_WINDOW_MS", 10)) * time.Millisecond,
			MaxBatchSize: getEnvInt("LOADER_MAX_BATCH_SIZE", 25),
		},
		Feed: FeedConfig{
			PageSize: getEnvInt("FEED_PAGE_SIZE", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Persistence {
	case PersistenceDynamoDB, PersistenceMemory:
	default:
		return fmt.Errorf("unknown persistence backend: %q", c.Persistence)
	}

	if c.Persistence == PersistenceDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required for dynamodb persistence")
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("FEED_PAGE_SIZE must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
