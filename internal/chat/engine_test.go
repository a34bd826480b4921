package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/alnada/counsellor/internal/embedding"
	"github.com/alnada/counsellor/internal/index"
	"github.com/alnada/counsellor/internal/llm"
	"github.com/alnada/counsellor/internal/models"
	"github.com/alnada/counsellor/internal/store"
)

// countingEmbedder wraps the mock embedder and counts provider calls.
type countingEmbedder struct {
	*embedding.MockEmbedder
	calls atomic.Int64
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return e.MockEmbedder.Embed(ctx, text)
}

func newTestEngine(t *testing.T, generator llm.Generator) (*Engine, store.Store, *countingEmbedder) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	embedder := &countingEmbedder{MockEmbedder: embedding.NewMockEmbedder(32)}
	indexes := index.NewCache(embedder, 8, zap.NewNop())
	return NewEngine(st, indexes, embedder, generator, 6, zap.NewNop()), st, embedder
}

func seedStudent(t *testing.T, st store.Store, studentID string) {
	t.Helper()
	record := &models.StudentRecord{
		StudentID:  studentID,
		Name:       "Aisha Rahman",
		Profile:    map[string]any{"id": studentID, "grade": "11"},
		Attendance: map[string]any{"percentage": 92.5},
		Scores:     []any{map[string]any{"subject": "Math", "score": 88.0}},
	}
	if err := st.UpsertStudent(context.Background(), record); err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
}

func TestAnswerIdentityGuardrail(t *testing.T) {
	generator := llm.NewMockGenerator("should not be used")
	engine, st, embedder := newTestEngine(t, generator)
	seedStudent(t, st, "27")

	reply, err := engine.Answer(context.Background(), "27", "Who created you?")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if reply != IdentityReply {
		t.Errorf("expected identity reply, got %q", reply)
	}
	if generator.Calls() != 0 {
		t.Errorf("expected no generator calls, got %d", generator.Calls())
	}
	if n := embedder.calls.Load(); n != 0 {
		t.Errorf("expected no embedding calls, got %d", n)
	}
}

func TestAnswerGroundsPromptInStudentContext(t *testing.T) {
	generator := llm.NewMockGenerator("Your attendance is strong this term.")
	engine, st, _ := newTestEngine(t, generator)
	seedStudent(t, st, "27")

	reply, err := engine.Answer(context.Background(), "27", "How is my attendance?")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if reply == "" || reply == ApologyReply {
		t.Fatalf("unexpected reply: %q", reply)
	}

	prompt := generator.LastPrompt()
	if !strings.Contains(prompt, "Student Context:") {
		t.Errorf("prompt missing context section: %q", prompt)
	}
	if !strings.Contains(prompt, "Student Question: How is my attendance?") {
		t.Errorf("prompt missing question: %q", prompt)
	}
	if !strings.Contains(prompt, "92.5") {
		t.Errorf("prompt missing retrieved attendance data: %q", prompt)
	}
}

func TestAnswerUnknownStudent(t *testing.T) {
	engine, _, _ := newTestEngine(t, llm.NewMockGenerator("unused"))

	_, err := engine.Answer(context.Background(), "99", "How am I doing?")
	if err == nil {
		t.Fatal("expected error for unknown student")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAnswerGeneratorFailure(t *testing.T) {
	generator := &llm.MockGenerator{Err: errors.New("model unavailable")}
	engine, st, _ := newTestEngine(t, generator)
	seedStudent(t, st, "27")

	reply, err := engine.Answer(context.Background(), "27", "How is my attendance?")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if reply != ApologyReply {
		t.Errorf("expected apology reply, got %q", reply)
	}
}

func TestAnswerGenericSkipsRetrieval(t *testing.T) {
	generator := llm.NewMockGenerator("Study in short focused blocks.")
	engine, _, embedder := newTestEngine(t, generator)

	reply, err := engine.AnswerGeneric(context.Background(), "How should I study?")
	if err != nil {
		t.Fatalf("AnswerGeneric returned error: %v", err)
	}
	if reply == "" || reply == ApologyReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if n := embedder.calls.Load(); n != 0 {
		t.Errorf("expected no embedding calls, got %d", n)
	}
	if strings.Contains(generator.LastPrompt(), "Student Context:") {
		t.Errorf("generic prompt should not carry student context: %q", generator.LastPrompt())
	}
}
