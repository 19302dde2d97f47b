package cache

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/semcache/store"
	"github.com/BaSui01/semcache/types"
)

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when the dimensions disagree or either vector has zero norm.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SearchQuery describes one semantic search over a workspace/endpoint
// partition.
type SearchQuery struct {
	Vector       []float64
	WorkspaceID  string
	EndpointType types.EndpointType
	// Threshold in [0,1]; a candidate at exactly the threshold is a hit.
	Threshold float64
	// ConversationContext scopes the usage cap; empty disables throttling.
	ConversationContext string
	// UsageCap is the max semantic replays per (entry, conversation).
	UsageCap int64
	// OnThrottled, when set, is invoked once per candidate skipped because
	// its conversation counter reached the cap.
	OnThrottled func()
}

// Match is a qualifying semantic search result.
type Match struct {
	Key        string
	Entry      *Entry
	Similarity float64
}

// CandidateIndex ranks a partition's entries against a query vector. The
// linear-scan implementation below is the reference; an ANN-backed variant
// can replace it without touching the facade.
type CandidateIndex interface {
	Search(ctx context.Context, q SearchQuery) (*Match, error)
}

// LinearScanIndex is an O(n) scan over one workspace/endpoint partition.
// Acceptable at modest per-tenant scale; ties between equally similar
// candidates break in favor of the first one encountered in the store's
// key-scan order, which is not stable across backends.
type LinearScanIndex struct {
	store  store.KVStore
	keys   keyBuilder
	logger *zap.Logger
}

// NewLinearScanIndex creates the reference candidate index.
func NewLinearScanIndex(kv store.KVStore, keyPrefix string, logger *zap.Logger) *LinearScanIndex {
	return &LinearScanIndex{
		store:  kv,
		keys:   newKeyBuilder(keyPrefix),
		logger: logger.With(zap.String("component", "semantic_index")),
	}
}

// Search returns the best candidate at or above the threshold, or nil when
// nothing qualifies. Candidates are discarded before ranking when their
// recorded workspace disagrees with the query's (which signals a bug and is
// logged loudly) or when their usage counter for the query's conversation
// has reached the cap.
func (idx *LinearScanIndex) Search(ctx context.Context, q SearchQuery) (*Match, error) {
	keys, err := idx.store.KeysMatching(ctx, idx.keys.partitionPattern(q.WorkspaceID, q.EndpointType))
	if err != nil {
		return nil, err
	}

	var best *Match
	for _, key := range keys {
		raw, err := idx.store.Get(ctx, key)
		if err != nil {
			if store.IsNotFound(err) {
				// expired between scan and read
				continue
			}
			return nil, err
		}

		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			idx.logger.Warn("evicting malformed cache entry",
				zap.String("key", key),
				zap.Error(err),
			)
			_, _ = idx.store.Delete(ctx, key, idx.keys.usageForEntry(key))
			continue
		}

		if entry.WorkspaceID != q.WorkspaceID {
			idx.logger.Error("workspace mismatch in partition scan, skipping entry",
				zap.String("key", key),
				zap.String("entry_workspace", entry.WorkspaceID),
				zap.String("query_workspace", q.WorkspaceID),
			)
			continue
		}

		if len(entry.Embedding) == 0 {
			// stored embedding-less; exact-match only
			continue
		}

		if q.ConversationContext != "" {
			used, err := idx.conversationUsage(ctx, key, q.ConversationContext)
			if err != nil {
				return nil, err
			}
			if used >= q.UsageCap {
				if q.OnThrottled != nil {
					q.OnThrottled()
				}
				continue
			}
		}

		sim := cosineSimilarity(q.Vector, entry.Embedding)
		if best == nil || sim > best.Similarity {
			e := entry
			best = &Match{Key: key, Entry: &e, Similarity: sim}
		}
	}

	if best == nil || best.Similarity*100 < q.Threshold*100 {
		return nil, nil
	}
	return best, nil
}

// conversationUsage reads one conversation's counter from the entry's
// companion usage hash.
func (idx *LinearScanIndex) conversationUsage(ctx context.Context, entryKey, conversation string) (int64, error) {
	fields, err := idx.store.HGetAll(ctx, idx.keys.usageForEntry(entryKey))
	if err != nil {
		return 0, err
	}
	raw, ok := fields[conversation]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}
