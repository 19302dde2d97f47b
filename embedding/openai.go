package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/semcache/config"
)

// OpenAIProvider implements embedding generation against the OpenAI API.
type OpenAIProvider struct {
	*BaseProvider
}

// NewOpenAIProvider creates an OpenAI embedding provider from config.
func NewOpenAIProvider(cfg config.EmbeddingConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}

	return &OpenAIProvider{
		BaseProvider: NewBaseProvider(BaseConfig{
			Name:       "openai-embedding",
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
		}),
	}
}

type openAIEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

// EmbedQuery generates the embedding for a single piece of text.
func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	body := openAIEmbedRequest{
		Input:      []string{text},
		Model:      p.model,
		Dimensions: p.dimensions,
	}

	respBody, err := p.DoRequest(ctx, "POST", "/v1/embeddings", body, map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var oaResp openAIEmbedResponse
	if err := json.Unmarshal(respBody, &oaResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(oaResp.Data) == 0 {
		return nil, ErrNoEmbedding
	}

	return oaResp.Data[0].Embedding, nil
}
