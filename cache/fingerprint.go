package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/semcache/types"
)

// RequestSubset is the deliberately narrow set of request fields that
// participate in the exact-match fingerprint. Anything outside this subset
// (user identifiers, trace metadata, streaming flags) never influences
// matching, and the full original payload is never persisted.
//
// The model identifier is part of the subset: two requests differing only
// in requested model must not collide.
type RequestSubset struct {
	Prompt           string          `json:"prompt,omitempty"`
	Messages         []types.Message `json:"messages,omitempty"`
	Model            string          `json:"model,omitempty"`
	Temperature      float64         `json:"temperature"`
	MaxTokens        int             `json:"max_tokens"`
	TopP             float64         `json:"top_p"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
	PresencePenalty  float64         `json:"presence_penalty"`
}

// NewRequestSubset extracts the fingerprint fields from a request. For
// completion requests only the prompt carries, for chat only the messages.
func NewRequestSubset(req *types.GenerationRequest, endpoint types.EndpointType) RequestSubset {
	s := RequestSubset{
		Model:            req.Model,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}
	if endpoint == types.EndpointCompletion {
		s.Prompt = req.Prompt
	} else {
		s.Messages = req.Messages
	}
	return s
}

// Fingerprint returns the canonical hash of the subset. encoding/json
// serializes struct fields in declaration order, which gives the stable key
// ordering the digest requires.
func (s RequestSubset) Fingerprint() string {
	data, err := json.Marshal(s)
	if err != nil {
		// Marshal of this struct cannot fail; keep a deterministic fallback
		// anyway so a key is always produced.
		data = []byte(fmt.Sprintf("%v", s))
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}
