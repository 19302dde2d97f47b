// =============================================================================
// Package quick: One-Line Cache Construction
// =============================================================================
// Provides a convenience entry point for creating a cache service with
// minimal boilerplate. Delegates to store and cache internally.
//
// Usage:
//
//	import "github.com/BaSui01/semcache/quick"
//
//	c, err := quick.New()                                    // localhost Redis, exact-match only
//	c, err := quick.New(quick.WithRedisAddr("redis:6379"))
//	c, err := quick.New(quick.WithOpenAIEmbedding("text-embedding-3-small"))
//
// =============================================================================
package quick

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/semcache/cache"
	"github.com/BaSui01/semcache/config"
	"github.com/BaSui01/semcache/embedding"
	"github.com/BaSui01/semcache/store"
)

// Option configures the cache created by New.
type Option func(*options)

type options struct {
	redisAddr string
	keyPrefix string
	kv        store.KVStore
	provider  embedding.Provider
	cacheCfg  config.CacheConfig
	logger    *zap.Logger

	// Embedding shortcut fields, used when provider is nil.
	embeddingModel string
	apiKey         string
}

// WithRedisAddr sets the Redis address. Defaults to localhost:6379.
func WithRedisAddr(addr string) Option {
	return func(o *options) { o.redisAddr = addr }
}

// WithStore sets a pre-built backing store, bypassing Redis construction.
func WithStore(kv store.KVStore) Option {
	return func(o *options) { o.kv = kv }
}

// WithProvider sets a pre-built embedding provider.
func WithProvider(p embedding.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithOpenAIEmbedding enables semantic matching through the OpenAI embeddings
// API. The key is read from the OPENAI_API_KEY environment variable unless
// overridden via WithAPIKey.
func WithOpenAIEmbedding(model string) Option {
	return func(o *options) {
		o.embeddingModel = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithAPIKey overrides the embedding API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithThreshold sets the default similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(o *options) { o.cacheCfg.SimilarityThreshold = threshold }
}

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.cacheCfg.TTL = ttl }
}

// WithUsageCap sets the per-conversation semantic replay cap.
func WithUsageCap(cap int) Option {
	return func(o *options) { o.cacheCfg.ConversationUsageCap = cap }
}

// WithKeyPrefix sets the Redis key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a cache.Service with minimal configuration.
func New(opts ...Option) (*cache.Service, error) {
	defaults := config.DefaultConfig()
	o := &options{
		redisAddr: defaults.Redis.Addr,
		keyPrefix: defaults.Redis.KeyPrefix,
		cacheCfg:  defaults.Cache,
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	kv := o.kv
	if kv == nil {
		var err error
		kv, err = store.NewRedisStore(config.RedisConfig{Addr: o.redisAddr}, o.cacheCfg.TTL, logger)
		if err != nil {
			return nil, fmt.Errorf("quick: %w", err)
		}
	}

	provider := o.provider
	if provider == nil && o.embeddingModel != "" {
		if o.apiKey == "" {
			return nil, fmt.Errorf("quick: embedding model %q requires an API key (set OPENAI_API_KEY)", o.embeddingModel)
		}
		provider = embedding.NewOpenAIProvider(config.EmbeddingConfig{
			APIKey: o.apiKey,
			Model:  o.embeddingModel,
		})
	}

	return cache.NewService(cache.Options{
		Store:     kv,
		Provider:  provider,
		KeyPrefix: o.keyPrefix,
		Config:    o.cacheCfg,
		Logger:    logger,
	})
}
