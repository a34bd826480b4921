package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/embedding"
	"github.com/alnada/counsellor/internal/index"
	"github.com/alnada/counsellor/internal/llm"
	"github.com/alnada/counsellor/internal/store"
)

// ApologyReply is the fixed user-visible reply when the language model call
// fails. The conversation is still considered answered in that case.
const ApologyReply = "⚠️ Error processing your request."

const personaPrompt = `You are Counsellor AI, a helpful educational assistant.
Please provide a well-structured response with clear paragraph breaks.
Use double line breaks between paragraphs, and avoid markdown.`

// Engine retrieves per-student context and assembles grounded prompts.
type Engine struct {
	store     store.Store
	indexes   *index.Cache
	embedder  embedding.Embedder
	generator llm.Generator
	topK      int
	logger    *zap.Logger
}

// NewEngine creates an engine with the given dependencies.
func NewEngine(
	st store.Store,
	indexes *index.Cache,
	embedder embedding.Embedder,
	generator llm.Generator,
	topK int,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:     st,
		indexes:   indexes,
		embedder:  embedder,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Answer produces a grounded reply to a session-bound question. The identity
// guardrail runs first and short-circuits without any external call. A missing
// student record surfaces as an error wrapping store.ErrNotFound: the caller
// must treat the session as invalid and prompt re-authentication. Model
// failures are absorbed into ApologyReply.
func (e *Engine) Answer(ctx context.Context, studentID, question string) (string, error) {
	if reply, ok := InterceptIdentity(question); ok {
		return reply, nil
	}

	record, err := e.store.GetStudent(ctx, studentID)
	if err != nil {
		return "", fmt.Errorf("load student: %w", err)
	}

	ix, err := e.indexes.GetOrBuild(ctx, studentID, record)
	if err != nil {
		e.logger.Error("index build failed", zap.String("student_id", studentID), zap.Error(err))
		return ApologyReply, nil
	}

	queryVec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		e.logger.Error("question embedding failed", zap.String("student_id", studentID), zap.Error(err))
		return ApologyReply, nil
	}

	chunks := ix.Search(queryVec, e.topK)
	contexts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contexts = append(contexts, chunk.Text)
	}

	prompt := fmt.Sprintf("%s\n\nStudent Context: %s\n\nStudent Question: %s",
		personaPrompt, strings.Join(contexts, "\n"), question)

	reply, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("model call failed", zap.String("student_id", studentID), zap.Error(err))
		return ApologyReply, nil
	}
	return FormatReply(reply.Text()), nil
}

// AnswerGeneric answers a question without student context. Used for chat
// outside an authenticated session.
func (e *Engine) AnswerGeneric(ctx context.Context, question string) (string, error) {
	if reply, ok := InterceptIdentity(question); ok {
		return reply, nil
	}

	prompt := fmt.Sprintf("%s\n\nQuestion: %s", personaPrompt, question)
	reply, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("model call failed", zap.Error(err))
		return ApologyReply, nil
	}
	return FormatReply(reply.Text()), nil
}
