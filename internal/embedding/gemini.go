package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

var _ Embedder = (*GeminiEmbedder)(nil)

// GeminiEmbedder produces embeddings through the Gemini API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder creates a Gemini-backed embedder. An empty apiKey falls
// back to the GOOGLE_API_KEY environment variable handled by the SDK.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

// Embed returns the embedding vector for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: text}}},
	}
	var config *genai.EmbedContentConfig
	if e.dimensions > 0 {
		config = &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(e.dimensions)),
		}
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Values, nil
}

// Dimensions returns the configured embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the genai client holds no closable resources.
func (e *GeminiEmbedder) Close() error {
	return nil
}
