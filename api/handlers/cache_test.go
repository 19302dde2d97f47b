package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/semcache/api"
	"github.com/BaSui01/semcache/cache"
	"github.com/BaSui01/semcache/config"
	"github.com/BaSui01/semcache/store"
	"github.com/BaSui01/semcache/types"
)

func newTestCacheHandler(t *testing.T) *CacheHandler {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisStoreFromClient(client, time.Hour, zap.NewNop())
	t.Cleanup(func() { _ = kv.Close() })

	svc, err := cache.NewService(cache.Options{
		Store: kv,
		Config: config.CacheConfig{
			TTL:                  time.Hour,
			SimilarityThreshold:  0.85,
			ConversationUsageCap: 2,
		},
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	return NewCacheHandler(svc, zap.NewNop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)

	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}

func TestCacheHandler_StoreThenLookup(t *testing.T) {
	h := newTestCacheHandler(t)

	genReq := &types.GenerationRequest{Prompt: "What is the capital of France?"}
	rec := postJSON(t, h.HandleStore, "/api/v1/cache/store", api.StoreRequest{
		WorkspaceID: "w1",
		Endpoint:    types.EndpointCompletion,
		Request:     genReq,
		Response:    json.RawMessage(`{"choices":[{"text":"Paris"}]}`),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[api.StoreResponse](t, rec).Stored)

	rec = postJSON(t, h.HandleLookup, "/api/v1/cache/lookup", api.LookupRequest{
		WorkspaceID: "w1",
		Endpoint:    types.EndpointCompletion,
		Request:     genReq,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeData[api.LookupResponse](t, rec)
	assert.True(t, result.Hit)
	assert.Equal(t, types.CacheTypeExact, result.CacheType)
	assert.JSONEq(t, `{"choices":[{"text":"Paris"}]}`, string(result.Response))
}

func TestCacheHandler_LookupMiss(t *testing.T) {
	h := newTestCacheHandler(t)

	rec := postJSON(t, h.HandleLookup, "/api/v1/cache/lookup", api.LookupRequest{
		WorkspaceID: "w1",
		Endpoint:    types.EndpointChat,
		Request: &types.GenerationRequest{
			Messages: []types.Message{{Role: types.RoleUser, Content: "hello"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeData[api.LookupResponse](t, rec)
	assert.False(t, result.Hit)
	assert.Empty(t, result.Response)
}

func TestCacheHandler_LookupValidation(t *testing.T) {
	h := newTestCacheHandler(t)

	tests := []struct {
		name string
		req  api.LookupRequest
	}{
		{"missing workspace", api.LookupRequest{
			Endpoint: types.EndpointChat,
			Request:  &types.GenerationRequest{},
		}},
		{"bad endpoint", api.LookupRequest{
			WorkspaceID: "w1",
			Endpoint:    "bogus",
			Request:     &types.GenerationRequest{},
		}},
		{"missing request", api.LookupRequest{
			WorkspaceID: "w1",
			Endpoint:    types.EndpointChat,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleLookup, "/api/v1/cache/lookup", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
		})
	}
}

func TestCacheHandler_StoreValidation(t *testing.T) {
	h := newTestCacheHandler(t)

	rec := postJSON(t, h.HandleStore, "/api/v1/cache/store", api.StoreRequest{
		WorkspaceID: "w1",
		Endpoint:    types.EndpointCompletion,
		Request:     &types.GenerationRequest{Prompt: "p"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "response is required")
}

func TestCacheHandler_MethodNotAllowed(t *testing.T) {
	h := newTestCacheHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/lookup", nil)
	rec := httptest.NewRecorder()
	h.HandleLookup(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/cache/stats", nil)
	rec = httptest.NewRecorder()
	h.HandleStats(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCacheHandler_ContentTypeRequired(t *testing.T) {
	h := newTestCacheHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/lookup", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.HandleLookup(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheHandler_Clear(t *testing.T) {
	h := newTestCacheHandler(t)

	for _, prompt := range []string{"a", "b"} {
		rec := postJSON(t, h.HandleStore, "/api/v1/cache/store", api.StoreRequest{
			WorkspaceID: "w1",
			Endpoint:    types.EndpointCompletion,
			Request:     &types.GenerationRequest{Prompt: prompt},
			Response:    json.RawMessage(`"r"`),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := postJSON(t, h.HandleClear, "/api/v1/cache/clear", api.ClearRequest{
		WorkspaceID: "w1",
		Endpoint:    types.EndpointCompletion,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decodeData[api.ClearResponse](t, rec).Removed)

	// clearing again removes nothing
	rec = postJSON(t, h.HandleClear, "/api/v1/cache/clear", api.ClearRequest{})
	assert.Equal(t, int64(0), decodeData[api.ClearResponse](t, rec).Removed)
}

func TestCacheHandler_Stats(t *testing.T) {
	h := newTestCacheHandler(t)

	rec := postJSON(t, h.HandleStore, "/api/v1/cache/store", api.StoreRequest{
		WorkspaceID: "w1",
		Endpoint:    types.EndpointCompletion,
		Request:     &types.GenerationRequest{Prompt: "p"},
		Response:    json.RawMessage(`"r"`),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	statsRec := httptest.NewRecorder()
	h.HandleStats(statsRec, req)
	require.Equal(t, http.StatusOK, statsRec.Code)

	stats := decodeData[types.StatsRecord](t, statsRec)
	assert.True(t, stats.StoreConnected)
	assert.Equal(t, int64(1), stats.EntryCount)
	assert.False(t, stats.EmbeddingProviderAvailable)
}
