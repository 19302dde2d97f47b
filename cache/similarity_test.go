package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/semcache/store"
	"github.com/BaSui01/semcache/types"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"dimension mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"scaled is identical", []float64{1, 2}, []float64{10, 20}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func newTestIndex(t *testing.T) (*store.RedisStore, *LinearScanIndex) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisStoreFromClient(client, time.Hour, zap.NewNop())
	t.Cleanup(func() { _ = kv.Close() })

	return kv, NewLinearScanIndex(kv, "semcache:", zap.NewNop())
}

func putEntry(t *testing.T, kv store.KVStore, keys keyBuilder, workspace string, endpoint types.EndpointType, fingerprint string, entry Entry) string {
	t.Helper()
	entry.WorkspaceID = workspace
	entry.EndpointType = endpoint
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&entry)
	require.NoError(t, err)
	key := keys.entry(workspace, endpoint, fingerprint)
	require.NoError(t, kv.Set(context.Background(), key, string(data), time.Hour))
	return key
}

func TestLinearScanIndex_BestMatchWins(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	putEntry(t, kv, keys, "w1", types.EndpointChat, "fp1", Entry{
		Response:  json.RawMessage(`"near"`),
		Embedding: []float64{0.9, 0.4359},
	})
	putEntry(t, kv, keys, "w1", types.EndpointChat, "fp2", Entry{
		Response:  json.RawMessage(`"far"`),
		Embedding: []float64{0.1, 0.995},
	})

	match, err := idx.Search(ctx, SearchQuery{
		Vector:       []float64{1, 0},
		WorkspaceID:  "w1",
		EndpointType: types.EndpointChat,
		Threshold:    0.5,
		UsageCap:     2,
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, json.RawMessage(`"near"`), match.Entry.Response)
	assert.InDelta(t, 0.9, match.Similarity, 0.01)
}

func TestLinearScanIndex_ThresholdBoundary(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	putEntry(t, kv, keys, "w1", types.EndpointChat, "fp1", Entry{
		Response:  json.RawMessage(`"r"`),
		Embedding: []float64{1, 0},
	})

	// exactly at threshold: hit
	match, err := idx.Search(ctx, SearchQuery{
		Vector:       []float64{0.5, 0.8660254037844386},
		WorkspaceID:  "w1",
		EndpointType: types.EndpointChat,
		Threshold:    0.5,
		UsageCap:     2,
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.InDelta(t, 0.5, match.Similarity, 1e-9)

	// just below threshold: miss
	match, err = idx.Search(ctx, SearchQuery{
		Vector:       []float64{0.4999, 0.8660831311138671},
		WorkspaceID:  "w1",
		EndpointType: types.EndpointChat,
		Threshold:    0.5,
		UsageCap:     2,
	})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLinearScanIndex_WorkspacePartition(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	putEntry(t, kv, keys, "w1", types.EndpointChat, "fp1", Entry{
		Response:  json.RawMessage(`"w1 data"`),
		Embedding: []float64{1, 0},
	})

	match, err := idx.Search(ctx, SearchQuery{
		Vector:       []float64{1, 0},
		WorkspaceID:  "w2",
		EndpointType: types.EndpointChat,
		Threshold:    0.5,
		UsageCap:     2,
	})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLinearScanIndex_DefensiveWorkspaceCheck(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	// an entry that landed under the wrong partition must still be skipped
	entry := Entry{
		Response:    json.RawMessage(`"leaked"`),
		Embedding:   []float64{1, 0},
		WorkspaceID: "w-other",
	}
	data, err := json.Marshal(&entry)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, keys.entry("w1", types.EndpointChat, "fp1"), string(data), time.Hour))

	match, err := idx.Search(ctx, SearchQuery{
		Vector:       []float64{1, 0},
		WorkspaceID:  "w1",
		EndpointType: types.EndpointChat,
		Threshold:    0.5,
		UsageCap:     2,
	})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLinearScanIndex_SkipsEmbeddinglessEntries(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	putEntry(t, kv, keys, "w1", types.EndpointChat, "fp1", Entry{
		Response: json.RawMessage(`"no embedding"`),
	})

	match, err := idx.Search(ctx, SearchQuery{
		Vector:       []float64{1, 0},
		WorkspaceID:  "w1",
		EndpointType: types.EndpointChat,
		Threshold:    0,
		UsageCap:     2,
	})
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLinearScanIndex_EvictsMalformedEntries(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	badKey := keys.entry("w1", types.EndpointChat, "bad")
	require.NoError(t, kv.Set(ctx, badKey, "{not json", time.Hour))
	putEntry(t, kv, keys, "w1", types.EndpointChat, "good", Entry{
		Response:  json.RawMessage(`"ok"`),
		Embedding: []float64{1, 0},
	})

	match, err := idx.Search(ctx, SearchQuery{
		Vector:       []float64{1, 0},
		WorkspaceID:  "w1",
		EndpointType: types.EndpointChat,
		Threshold:    0.5,
		UsageCap:     2,
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, json.RawMessage(`"ok"`), match.Entry.Response)

	_, err = kv.Get(ctx, badKey)
	assert.True(t, store.IsNotFound(err))
}

func TestLinearScanIndex_UsageCapFiltersCandidates(t *testing.T) {
	kv, idx := newTestIndex(t)
	keys := newKeyBuilder("semcache:")
	ctx := context.Background()

	key := putEntry(t, kv, keys, "w1", types.EndpointChat, "fp1", Entry{
		Response:  json.RawMessage(`"capped"`),
		Embedding: []float64{1, 0},
	})

	// exhaust the cap for conv1
	_, err := kv.HIncrBy(ctx, keys.usageForEntry(key), "conv1", 2)
	require.NoError(t, err)

	throttled := 0
	q := SearchQuery{
		Vector:              []float64{1, 0},
		WorkspaceID:         "w1",
		EndpointType:        types.EndpointChat,
		Threshold:           0.5,
		ConversationContext: "conv1",
		UsageCap:            2,
		OnThrottled:         func() { throttled++ },
	}
	match, err := idx.Search(ctx, q)
	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Equal(t, 1, throttled)

	// a different conversation still sees the entry
	q.ConversationContext = "conv2"
	match, err = idx.Search(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, match)

	// no conversation context disables throttling entirely
	q.ConversationContext = ""
	match, err = idx.Search(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, match)
}
