package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Generator = (*OpenAIGenerator)(nil)

// OpenAIGenerator generates replies through the OpenAI chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator creates an OpenAI-backed generator. An empty apiKey falls
// back to the OPENAI_API_KEY environment variable handled by the SDK.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), model: model}
}

// Generate invokes the model with the prompt. Chat completions answer with a
// message object carrying a content field; that is a wrapped-shaped reply.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (*Reply, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Wrapped(""), nil
	}
	return Wrapped(completion.Choices[0].Message.Content), nil
}

// Close is a no-op for OpenAIGenerator.
func (g *OpenAIGenerator) Close() error {
	return nil
}
