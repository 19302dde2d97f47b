package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/semcache/config"
	"github.com/BaSui01/semcache/embedding"
	"github.com/BaSui01/semcache/internal/metrics"
	"github.com/BaSui01/semcache/store"
	"github.com/BaSui01/semcache/types"
)

// Service is the cache facade exposed to the LLM gateway. It is stateless
// apart from process-local hit counters; all shared mutable state lives in
// the backing store, so concurrent Service instances need no coordination.
type Service struct {
	store    store.KVStore
	provider embedding.Provider // nil disables semantic matching
	index    CandidateIndex
	keys     keyBuilder
	cfg      config.CacheConfig
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
	tokens   *tokenCounter

	// collapses concurrent embedding calls for identical text
	embedGroup singleflight.Group

	exactHits    atomic.Uint64
	semanticHits atomic.Uint64
	misses       atomic.Uint64
	tokensSaved  atomic.Uint64
}

// Options configures a Service.
type Options struct {
	// Store is the backing key-value store. Required.
	Store store.KVStore
	// Provider generates embeddings. Nil degrades the cache to
	// exact-match-only behavior.
	Provider embedding.Provider
	// Index overrides the candidate index; defaults to LinearScanIndex.
	Index CandidateIndex
	// KeyPrefix namespaces every key; defaults to "semcache:".
	KeyPrefix string
	// Config holds the behavioral knobs (TTL, threshold, usage cap).
	Config config.CacheConfig
	// Logger; defaults to zap.NewNop().
	Logger *zap.Logger
	// Metrics is optional; nil disables metric collection.
	Metrics *metrics.Collector
}

// NewService creates the cache facade.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("cache: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.ConversationUsageCap <= 0 {
		cfg.ConversationUsageCap = 2
	}

	index := opts.Index
	if index == nil {
		index = NewLinearScanIndex(opts.Store, opts.KeyPrefix, logger)
	}

	return &Service{
		store:    opts.Store,
		provider: opts.Provider,
		index:    index,
		keys:     newKeyBuilder(opts.KeyPrefix),
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "cache")),
		metrics:  opts.Metrics,
		tracer:   otel.Tracer("github.com/BaSui01/semcache/cache"),
		tokens:   newTokenCounter(cfg.TokenEncoding),
	}, nil
}

// LookupOptions carries the optional lookup parameters.
type LookupOptions struct {
	// Threshold overrides the configured similarity threshold. Out-of-range
	// values are clamped to [0,1].
	Threshold *float64
	// ConversationContext scopes usage-cap enforcement; empty disables it.
	ConversationContext string
}

// Lookup attempts to serve the request from cache. Exact match is attempted
// first; semantic search runs only on an exact miss and only when an
// embedding provider is configured. Failures never propagate: any internal
// error degrades to a miss.
func (s *Service) Lookup(ctx context.Context, req *types.GenerationRequest, endpoint types.EndpointType, workspaceID string, opts *LookupOptions) types.CacheResult {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "cache.Lookup", trace.WithAttributes(
		attribute.String("cache.endpoint", string(endpoint)),
	))
	defer span.End()

	if req == nil || workspaceID == "" || !endpoint.Valid() {
		s.logger.Debug("lookup rejected, invalid input",
			zap.String("workspace_id", workspaceID),
			zap.String("endpoint", string(endpoint)),
		)
		return s.miss(endpoint, span, start)
	}

	// exact path
	fingerprint := NewRequestSubset(req, endpoint).Fingerprint()
	entryKey := s.keys.entry(workspaceID, endpoint, fingerprint)

	if entry, ok := s.getExact(ctx, entryKey, workspaceID); ok {
		s.exactHits.Add(1)
		s.tokensSaved.Add(uint64(entry.ResponseTokens))
		s.metrics.AddTokensSaved(entry.ResponseTokens)
		s.metrics.ObserveLookup("exact", string(endpoint), time.Since(start))
		span.SetAttributes(attribute.String("cache.result", "exact"))
		return types.CacheResult{Hit: true, Response: entry.Response, CacheType: types.CacheTypeExact}
	}

	// semantic path
	if s.provider == nil {
		return s.miss(endpoint, span, start)
	}
	text := req.LastUserContent(endpoint)
	if text == "" {
		return s.miss(endpoint, span, start)
	}

	vector, err := s.embed(ctx, text)
	if err != nil {
		s.metrics.IncEmbeddingError()
		s.logger.Warn("embedding failed, skipping semantic search", zap.Error(err))
		return s.miss(endpoint, span, start)
	}

	match, err := s.index.Search(ctx, SearchQuery{
		Vector:              vector,
		WorkspaceID:         workspaceID,
		EndpointType:        endpoint,
		Threshold:           s.effectiveThreshold(opts),
		ConversationContext: conversationContext(opts),
		UsageCap:            int64(s.cfg.ConversationUsageCap),
		OnThrottled:         s.metrics.IncThrottled,
	})
	if err != nil {
		s.metrics.IncStoreError("search")
		s.logger.Warn("semantic search failed, degrading to miss", zap.Error(err))
		return s.miss(endpoint, span, start)
	}
	if match == nil {
		return s.miss(endpoint, span, start)
	}

	if conv := conversationContext(opts); conv != "" {
		s.recordConversationUsage(ctx, match.Key, conv)
	}

	s.semanticHits.Add(1)
	s.tokensSaved.Add(uint64(match.Entry.ResponseTokens))
	s.metrics.AddTokensSaved(match.Entry.ResponseTokens)
	s.metrics.ObserveLookup("semantic", string(endpoint), time.Since(start))
	span.SetAttributes(
		attribute.String("cache.result", "semantic"),
		attribute.Float64("cache.similarity", match.Similarity),
	)
	s.logger.Debug("semantic cache hit",
		zap.String("key", match.Key),
		zap.Float64("similarity", match.Similarity),
	)
	return types.CacheResult{Hit: true, Response: match.Entry.Response, CacheType: types.CacheTypeSemantic}
}

// Store persists a fresh upstream response. An embedding failure does not
// abort the store; the entry is persisted without semantic discoverability.
// Returns false only when the entry could not be written.
func (s *Service) Store(ctx context.Context, req *types.GenerationRequest, response json.RawMessage, endpoint types.EndpointType, workspaceID string) bool {
	ctx, span := s.tracer.Start(ctx, "cache.Store", trace.WithAttributes(
		attribute.String("cache.endpoint", string(endpoint)),
	))
	defer span.End()

	if req == nil || len(response) == 0 || workspaceID == "" || !endpoint.Valid() {
		s.metrics.ObserveStore(false)
		return false
	}

	subset := NewRequestSubset(req, endpoint)
	entry := Entry{
		ID:                uuid.NewString(),
		RequestSubset:     subset,
		Response:          response,
		WorkspaceID:       workspaceID,
		EndpointType:      endpoint,
		CreatedAt:         time.Now().UTC(),
		ResponseTokens:    s.tokens.count(string(response)),
		ConversationUsage: map[string]int64{},
	}

	if s.provider != nil {
		if text := req.LastUserContent(endpoint); text != "" {
			vector, err := s.embed(ctx, text)
			if err != nil {
				s.metrics.IncEmbeddingError()
				s.logger.Warn("embedding failed, storing entry without semantic discoverability", zap.Error(err))
			} else {
				entry.Embedding = vector
			}
		}
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		s.logger.Error("failed to marshal cache entry", zap.Error(err))
		s.metrics.ObserveStore(false)
		return false
	}

	entryKey := s.keys.entry(workspaceID, endpoint, subset.Fingerprint())
	if err := s.store.Set(ctx, entryKey, string(data), s.cfg.TTL); err != nil {
		s.metrics.IncStoreError("set")
		s.logger.Warn("store write failed, degrading to no-op", zap.Error(err))
		s.metrics.ObserveStore(false)
		return false
	}

	s.metrics.ObserveStore(true)
	s.logger.Debug("cache entry stored",
		zap.String("key", entryKey),
		zap.Bool("has_embedding", len(entry.Embedding) > 0),
	)
	return true
}

// Clear bulk-removes entries by key pattern and returns how many entries
// were removed. An empty pattern clears every entry. Companion usage hashes
// are removed alongside their entries but not counted.
func (s *Service) Clear(ctx context.Context, pattern string) int64 {
	if pattern == "" {
		pattern = s.keys.allEntriesPattern()
	}

	keys, err := s.store.KeysMatching(ctx, pattern)
	if err != nil {
		s.metrics.IncStoreError("clear")
		s.logger.Warn("clear enumeration failed, degrading to no-op", zap.Error(err))
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	usageKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		usageKeys = append(usageKeys, s.keys.usageForEntry(key))
	}

	n, err := s.store.Delete(ctx, keys...)
	if err != nil {
		s.metrics.IncStoreError("clear")
		s.logger.Warn("clear delete failed", zap.Error(err))
		return 0
	}
	_, _ = s.store.Delete(ctx, usageKeys...)

	s.logger.Info("cache cleared",
		zap.String("pattern", pattern),
		zap.Int64("removed", n),
	)
	return n
}

// ClearScope removes entries belonging to a workspace/endpoint scope. Empty
// arguments widen the scope to all workspaces or both endpoint types.
func (s *Service) ClearScope(ctx context.Context, workspaceID string, endpoint types.EndpointType) int64 {
	return s.Clear(ctx, s.keys.scopePattern(workspaceID, endpoint))
}

// Stats reports the cache's operational state.
func (s *Service) Stats(ctx context.Context) types.StatsRecord {
	rec := types.StatsRecord{
		EmbeddingProviderAvailable: s.provider != nil,
		ActiveThreshold:            s.cfg.SimilarityThreshold,
		ExactHits:                  s.exactHits.Load(),
		SemanticHits:               s.semanticHits.Load(),
		Misses:                     s.misses.Load(),
		TokensSaved:                s.tokensSaved.Load(),
	}

	if err := s.store.Ping(ctx); err != nil {
		s.metrics.IncStoreError("ping")
		return rec
	}
	rec.StoreConnected = true

	keys, err := s.store.KeysMatching(ctx, s.keys.allEntriesPattern())
	if err != nil {
		s.metrics.IncStoreError("keys")
		return rec
	}
	rec.EntryCount = int64(len(keys))
	s.metrics.SetEntryCount(rec.EntryCount)
	return rec
}

// getExact performs the exact-match point lookup. Malformed entries are
// evicted; a workspace mismatch is logged loudly and treated as a miss.
func (s *Service) getExact(ctx context.Context, entryKey, workspaceID string) (*Entry, bool) {
	raw, err := s.store.Get(ctx, entryKey)
	if err != nil {
		if !store.IsNotFound(err) {
			s.metrics.IncStoreError("get")
			s.logger.Warn("store read failed, degrading to miss", zap.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		s.logger.Warn("evicting malformed cache entry",
			zap.String("key", entryKey),
			zap.Error(err),
		)
		_, _ = s.store.Delete(ctx, entryKey, s.keys.usageForEntry(entryKey))
		return nil, false
	}

	if entry.WorkspaceID != workspaceID {
		// must never happen with correct key partitioning
		s.logger.Error("workspace mismatch on exact lookup",
			zap.String("key", entryKey),
			zap.String("entry_workspace", entry.WorkspaceID),
			zap.String("query_workspace", workspaceID),
		)
		return nil, false
	}

	return &entry, true
}

// embed obtains the query embedding, collapsing concurrent calls for
// identical text into a single provider request.
func (s *Service) embed(ctx context.Context, text string) ([]float64, error) {
	v, err, _ := s.embedGroup.Do(text, func() (any, error) {
		return s.provider.EmbedQuery(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// recordConversationUsage atomically increments the hit counter for one
// (entry, conversation) pair and aligns the usage hash's TTL with its
// entry. A failed increment is logged but does not cancel the hit.
func (s *Service) recordConversationUsage(ctx context.Context, entryKey, conversation string) {
	usageKey := s.keys.usageForEntry(entryKey)
	if _, err := s.store.HIncrBy(ctx, usageKey, conversation, 1); err != nil {
		s.metrics.IncStoreError("hincrby")
		s.logger.Warn("usage counter increment failed", zap.Error(err))
		return
	}

	ttl := s.cfg.TTL
	if remaining, err := s.store.TTL(ctx, entryKey); err == nil && remaining > 0 {
		ttl = remaining
	}
	if err := s.store.Expire(ctx, usageKey, ttl); err != nil {
		s.logger.Warn("usage counter expire failed", zap.Error(err))
	}
}

func (s *Service) miss(endpoint types.EndpointType, span trace.Span, start time.Time) types.CacheResult {
	s.misses.Add(1)
	s.metrics.ObserveLookup("miss", string(endpoint), time.Since(start))
	span.SetAttributes(attribute.String("cache.result", "miss"))
	return types.CacheResult{}
}

func (s *Service) effectiveThreshold(opts *LookupOptions) float64 {
	th := s.cfg.SimilarityThreshold
	if opts != nil && opts.Threshold != nil {
		th = *opts.Threshold
	}
	if th < 0 {
		th = 0
	}
	if th > 1 {
		th = 1
	}
	return th
}

func conversationContext(opts *LookupOptions) string {
	if opts == nil {
		return ""
	}
	return opts.ConversationContext
}
