package types

import "encoding/json"

// EndpointType identifies which gateway endpoint a request targets.
type EndpointType string

const (
	EndpointCompletion EndpointType = "completion"
	EndpointChat       EndpointType = "chat"
)

// Valid reports whether the endpoint type is one of the known values.
func (e EndpointType) Valid() bool {
	return e == EndpointCompletion || e == EndpointChat
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

// GenerationRequest is the inbound generation request as seen by the cache.
// Completion requests carry Prompt; chat requests carry Messages. The
// remaining fields are the sampling parameters that participate in the
// exact-match fingerprint.
type GenerationRequest struct {
	Prompt           string    `json:"prompt,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Model            string    `json:"model,omitempty"`
	Temperature      float64   `json:"temperature,omitempty"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	TopP             float64   `json:"top_p,omitempty"`
	FrequencyPenalty float64   `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64   `json:"presence_penalty,omitempty"`
}

// LastUserContent returns the free text used for semantic matching: the full
// prompt for completion requests, the content of the last message for chat
// requests. Earlier turns and system prompts are deliberately ignored.
func (r *GenerationRequest) LastUserContent(endpoint EndpointType) string {
	if endpoint == EndpointCompletion {
		return r.Prompt
	}
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// CacheType labels how a cached response was located.
type CacheType string

const (
	CacheTypeExact    CacheType = "exact"
	CacheTypeSemantic CacheType = "semantic"
)

// CacheResult is the outcome of a cache lookup. On a miss Hit is false and
// the remaining fields are zero.
type CacheResult struct {
	Hit       bool            `json:"hit"`
	Response  json.RawMessage `json:"response,omitempty"`
	CacheType CacheType       `json:"cache_type,omitempty"`
}

// StatsRecord summarizes the cache's operational state.
type StatsRecord struct {
	StoreConnected             bool    `json:"store_connected"`
	EntryCount                 int64   `json:"entry_count"`
	EmbeddingProviderAvailable bool    `json:"embedding_provider_available"`
	ActiveThreshold            float64 `json:"active_threshold"`
	ExactHits                  uint64  `json:"exact_hits"`
	SemanticHits               uint64  `json:"semantic_hits"`
	Misses                     uint64  `json:"misses"`
	TokensSaved                uint64  `json:"tokens_saved"`
}
