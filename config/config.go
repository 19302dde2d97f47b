package config

import (
	"fmt"
	"time"
)

// =============================================================================
// 🎯 Core configuration
// =============================================================================

// Config is the complete semcache configuration.
type Config struct {
	// Server HTTP listener configuration
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Redis backing store configuration
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Embedding provider configuration
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Cache behavioral configuration
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Log logging configuration
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry OTel configuration
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP and metrics listeners.
type ServerConfig struct {
	// HTTP port for the cache API
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics port for prometheus scraping
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// Read timeout
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// Write timeout
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// API keys accepted on X-API-Key; empty disables authentication
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// Origins allowed for CORS; empty rejects cross-origin requests
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// Per-client request rate limit
	RateLimitRPS   int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// RedisConfig configures the backing key-value store.
type RedisConfig struct {
	// Address host:port
	Addr string `yaml:"addr" env:"ADDR"`
	// Password
	Password string `yaml:"password" env:"PASSWORD"`
	// Database number
	DB int `yaml:"db" env:"DB"`
	// Connection pool size
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// Minimum idle connections
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// Max retries for transient failures
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// Key prefix for all semcache keys
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// EmbeddingConfig configures the embedding provider used for semantic
// matching. When APIKey is empty the cache degrades to exact-match only.
type EmbeddingConfig struct {
	// Provider name: openai
	Provider string `yaml:"provider" env:"PROVIDER"`
	// API key; empty disables semantic matching
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Base URL override
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Embedding model
	Model string `yaml:"model" env:"MODEL"`
	// Output dimensions
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
	// Per-call timeout; a timeout is treated as no embedding available
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Requests per second allowed against the provider (0 = unlimited)
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// CacheConfig holds the cache's behavioral knobs.
type CacheConfig struct {
	// Entry TTL; default 30 days
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// Default semantic similarity threshold in [0,1]
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
	// Max semantic replays of one entry within one conversation
	ConversationUsageCap int `yaml:"conversation_usage_cap" env:"CONVERSATION_USAGE_CAP"`
	// Tokenizer encoding used for tokens-saved accounting
	TokenEncoding string `yaml:"token_encoding" env:"TOKEN_ENCODING"`
}

// LogConfig configures zap logging.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// Annotate entries with caller information
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig configures the OTel SDK.
type TelemetryConfig struct {
	// Enabled toggles exporter creation
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP gRPC endpoint
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// Service name reported in resource attributes
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// Trace sample rate
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 Defaults
// =============================================================================

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			MetricsPort:     9090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  200,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			KeyPrefix:    "semcache:",
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			Timeout:    5 * time.Second,
			RateLimit:  0,
		},
		Cache: CacheConfig{
			TTL:                  30 * 24 * time.Hour,
			SimilarityThreshold:  0.85,
			ConversationUsageCap: 2,
			TokenEncoding:        "cl100k_base",
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "semcache",
			SampleRate:   1.0,
		},
	}
}

// Validate checks cross-field constraints. The similarity threshold is
// clamped rather than rejected; the gateway owns primary validation.
func (c *Config) Validate() error {
	if c.Cache.SimilarityThreshold < 0 {
		c.Cache.SimilarityThreshold = 0
	}
	if c.Cache.SimilarityThreshold > 1 {
		c.Cache.SimilarityThreshold = 1
	}
	if c.Cache.ConversationUsageCap < 1 {
		return fmt.Errorf("cache.conversation_usage_cap must be >= 1, got %d", c.Cache.ConversationUsageCap)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty")
	}
	return nil
}
