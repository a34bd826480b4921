package embedding

import (
	"context"
	"fmt"

	"github.com/alnada/counsellor/internal/config"
)

// New creates the embedder selected by cfg.Name, wrapped in an LRU cache.
func New(ctx context.Context, cfg *config.ProviderConfig) (Embedder, error) {
	var inner Embedder
	switch cfg.Name {
	case "gemini":
		e, err := NewGeminiEmbedder(ctx, cfg.APIKey, cfg.EmbedModel, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		inner = e
	case "openai":
		inner = NewOpenAIEmbedder(cfg.APIKey, cfg.EmbedModel, cfg.Dimensions)
	case "mock":
		inner = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Name)
	}
	return NewCachedEmbedder(inner, cfg.EmbedCacheSize), nil
}
