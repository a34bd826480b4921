package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

var _ Generator = (*GeminiGenerator)(nil)

// GeminiGenerator generates replies through the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator. An empty apiKey falls
// back to the GOOGLE_API_KEY environment variable handled by the SDK.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate invokes the model with the prompt. Gemini answers with a sequence
// of typed parts; they are carried through as a parts-shaped reply.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (*Reply, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return PartsReply(nil), nil
	}
	parts := make([]ReplyPart, 0, len(resp.Candidates[0].Content.Parts))
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, ReplyPart{Kind: "text", Text: part.Text})
		}
	}
	return PartsReply(parts), nil
}

// Close is a no-op; the genai client holds no closable resources.
func (g *GeminiGenerator) Close() error {
	return nil
}
