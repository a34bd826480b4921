package llm

import (
	"context"
	"sync"
)

var _ Generator = (*MockGenerator)(nil)

// MockGenerator is a deterministic generator for tests. It records every
// prompt and answers with a fixed reply, or fails when Err is set.
type MockGenerator struct {
	mu      sync.Mutex
	Reply   *Reply
	Err     error
	Prompts []string
}

// NewMockGenerator returns a generator answering with a plain reply.
func NewMockGenerator(reply string) *MockGenerator {
	return &MockGenerator{Reply: Plain(reply)}
}

// Generate records the prompt and returns the configured reply or error.
func (g *MockGenerator) Generate(ctx context.Context, prompt string) (*Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Reply, nil
}

// Calls returns how many prompts were generated.
func (g *MockGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Prompts)
}

// LastPrompt returns the most recent prompt, or empty when none.
func (g *MockGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Prompts) == 0 {
		return ""
	}
	return g.Prompts[len(g.Prompts)-1]
}

// Close is a no-op for MockGenerator.
func (g *MockGenerator) Close() error {
	return nil
}
