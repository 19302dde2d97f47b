// Package semcache provides a top-level convenience entry point for creating
// a cache service with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/semcache"
//
//	c, err := semcache.New()
//	c, err := semcache.New(semcache.WithRedisAddr("redis:6379"))
//	c, err := semcache.New(semcache.WithOpenAIEmbedding("text-embedding-3-small"))
//
// This is a thin wrapper around [quick.New]; both produce identical results.
// Use this package when you prefer the shorter import path.
package semcache

import (
	"github.com/BaSui01/semcache/cache"
	"github.com/BaSui01/semcache/quick"
)

// Option configures the cache created by [New].
type Option = quick.Option

// New creates a [cache.Service] with minimal configuration. Without options
// it connects to Redis on localhost and runs exact-match only.
func New(opts ...Option) (*cache.Service, error) {
	return quick.New(opts...)
}

// Re-export option shortcuts so callers never need to import quick/.

// WithRedisAddr sets the Redis address.
var WithRedisAddr = quick.WithRedisAddr

// WithStore sets a pre-built backing store.
var WithStore = quick.WithStore

// WithProvider sets a pre-built embedding provider.
var WithProvider = quick.WithProvider

// WithOpenAIEmbedding enables semantic matching via OpenAI embeddings.
// API key from OPENAI_API_KEY env.
var WithOpenAIEmbedding = quick.WithOpenAIEmbedding

// WithAPIKey overrides the embedding API key.
var WithAPIKey = quick.WithAPIKey

// WithThreshold sets the default similarity threshold.
var WithThreshold = quick.WithThreshold

// WithTTL sets the entry lifetime.
var WithTTL = quick.WithTTL

// WithUsageCap sets the per-conversation semantic replay cap.
var WithUsageCap = quick.WithUsageCap

// WithKeyPrefix sets the Redis key namespace.
var WithKeyPrefix = quick.WithKeyPrefix

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger
