package cache

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/BaSui01/semcache/types"
)

// Entry is the unit of storage: one cached response plus the metadata needed
// to match, rank, and throttle it. The entry JSON is written once and never
// rewritten; the ConversationUsage counters live in a companion Redis hash
// (one HINCRBY-able field per conversation) and are overlaid onto the struct
// when an entry is loaded.
type Entry struct {
	ID            string             `json:"id"`
	RequestSubset RequestSubset      `json:"request_subset"`
	Response      json.RawMessage    `json:"response"`
	Embedding     []float64          `json:"embedding,omitempty"`
	WorkspaceID   string             `json:"workspace_id"`
	EndpointType  types.EndpointType `json:"endpoint_type"`
	CreatedAt     time.Time          `json:"created_at"`
	// Estimated token count of Response, recorded at store time for
	// tokens-saved accounting on hits.
	ResponseTokens int `json:"response_tokens,omitempty"`
	// Per-conversation semantic hit counters. Empty at creation; the
	// authoritative values are kept in the companion usage hash.
	ConversationUsage map[string]int64 `json:"conversation_usage,omitempty"`
}

// keyBuilder derives the Redis key layout for entries and their companion
// usage hashes:
//
//	{prefix}resp:{workspace}:{endpoint}:{fingerprint}
//	{prefix}usage:{workspace}:{endpoint}:{fingerprint}
type keyBuilder struct {
	prefix string
}

func newKeyBuilder(prefix string) keyBuilder {
	if prefix == "" {
		prefix = "semcache:"
	}
	return keyBuilder{prefix: prefix}
}

func (k keyBuilder) entry(workspaceID string, endpoint types.EndpointType, fingerprint string) string {
	return k.prefix + "resp:" + workspaceID + ":" + string(endpoint) + ":" + fingerprint
}

func (k keyBuilder) usage(workspaceID string, endpoint types.EndpointType, fingerprint string) string {
	return k.prefix + "usage:" + workspaceID + ":" + string(endpoint) + ":" + fingerprint
}

// usageForEntry maps an entry key to its companion usage key.
func (k keyBuilder) usageForEntry(entryKey string) string {
	return strings.Replace(entryKey, k.prefix+"resp:", k.prefix+"usage:", 1)
}

// partitionPattern matches all entries of one workspace/endpoint partition.
func (k keyBuilder) partitionPattern(workspaceID string, endpoint types.EndpointType) string {
	return k.prefix + "resp:" + workspaceID + ":" + string(endpoint) + ":*"
}

// scopePattern matches entries of a workspace/endpoint scope; empty arguments
// widen to all workspaces or both endpoint types.
func (k keyBuilder) scopePattern(workspaceID string, endpoint types.EndpointType) string {
	w := workspaceID
	if w == "" {
		w = "*"
	}
	e := string(endpoint)
	if e == "" {
		e = "*"
	}
	return k.prefix + "resp:" + w + ":" + e + ":*"
}

// allEntriesPattern matches every entry across all partitions.
func (k keyBuilder) allEntriesPattern() string {
	return k.prefix + "resp:*"
}
