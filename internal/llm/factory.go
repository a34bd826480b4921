package llm

import (
	"context"
	"fmt"

	"github.com/alnada/counsellor/internal/config"
)

// New creates the generator selected by cfg.Name.
func New(ctx context.Context, cfg *config.ProviderConfig) (Generator, error) {
	switch cfg.Name {
	case "gemini":
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.ChatModel)
	case "openai":
		return NewOpenAIGenerator(cfg.APIKey, cfg.ChatModel), nil
	case "mock":
		return NewMockGenerator("mock reply"), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Name)
	}
}
