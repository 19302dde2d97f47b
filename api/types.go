package api

import (
	"encoding/json"

	"github.com/BaSui01/semcache/types"
)

// =============================================================================
// 🔍 Lookup types
// =============================================================================

// LookupRequest asks the cache for a previously stored response.
// @Description Cache lookup request structure
type LookupRequest struct {
	// Workspace the request belongs to
	WorkspaceID string `json:"workspace_id" example:"ws-42" binding:"required"`
	// Endpoint type: completion or chat
	Endpoint types.EndpointType `json:"endpoint" example:"chat" binding:"required"`
	// The generation request to match against
	Request *types.GenerationRequest `json:"request" binding:"required"`
	// Optional similarity threshold override in [0,1]
	Threshold *float64 `json:"threshold,omitempty" example:"0.85"`
	// Optional conversation scope for usage-cap enforcement
	ConversationID string `json:"conversation_id,omitempty" example:"conv-7"`
}

// LookupResponse is the lookup outcome. On a miss Hit is false and the other
// fields are empty.
type LookupResponse struct {
	Hit       bool            `json:"hit"`
	CacheType types.CacheType `json:"cache_type,omitempty" example:"semantic"`
	Response  json.RawMessage `json:"response,omitempty"`
}

// =============================================================================
// 💾 Store types
// =============================================================================

// StoreRequest persists a fresh upstream response.
// @Description Cache store request structure
type StoreRequest struct {
	WorkspaceID string                   `json:"workspace_id" example:"ws-42" binding:"required"`
	Endpoint    types.EndpointType       `json:"endpoint" example:"chat" binding:"required"`
	Request     *types.GenerationRequest `json:"request" binding:"required"`
	// Opaque upstream response body to cache
	Response json.RawMessage `json:"response" binding:"required"`
}

// StoreResponse reports whether the entry was written.
type StoreResponse struct {
	Stored bool `json:"stored"`
}

// =============================================================================
// 🧹 Clear and stats types
// =============================================================================

// ClearRequest bulk-removes entries. Empty fields widen the scope: an empty
// WorkspaceID clears every workspace, an empty Endpoint both endpoint types.
type ClearRequest struct {
	WorkspaceID string             `json:"workspace_id,omitempty" example:"ws-42"`
	Endpoint    types.EndpointType `json:"endpoint,omitempty" example:"chat"`
}

// ClearResponse reports how many entries were removed.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// StatsResponse mirrors the cache's operational statistics.
type StatsResponse = types.StatsRecord
