// Package index builds and searches per-student semantic context indexes.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/alnada/counsellor/internal/embedding"
	"github.com/alnada/counsellor/internal/models"
)

// Chunk is one searchable unit of a student's index: a labeled record
// category serialized to text, with its embedding.
type Chunk struct {
	Label  string
	Text   string
	Vector []float32
}

// Index is an immutable per-student semantic index. A data refresh requires
// rebuilding the index, not mutating it.
type Index struct {
	studentID string
	chunks    []Chunk
}

// StudentID returns the student this index was built for.
func (ix *Index) StudentID() string {
	return ix.studentID
}

// Size returns the number of chunks.
func (ix *Index) Size() int {
	return len(ix.chunks)
}

// Build serializes each record category into a labeled text block, embeds the
// blocks, and assembles the index. One chunk per category: the data is small,
// structured, and categorical, so whole-category chunking preserves topical
// coherence for retrieval.
func Build(ctx context.Context, record *models.StudentRecord, embedder embedding.Embedder) (*Index, error) {
	categories := record.Categories()
	chunks := make([]Chunk, 0, len(categories))
	for _, category := range categories {
		data, err := json.Marshal(category.Data)
		if err != nil {
			return nil, fmt.Errorf("serialize %s: %w", category.Label, err)
		}
		text := category.Label + ": " + string(data)
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", category.Label, err)
		}
		chunks = append(chunks, Chunk{Label: category.Label, Text: text, Vector: vec})
	}
	return &Index{studentID: record.StudentID, chunks: chunks}, nil
}

// Search returns the top-k chunks by inner product with the query vector
// (cosine similarity for normalized vectors), best first.
func (ix *Index) Search(query []float32, k int) []Chunk {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil
	}
	type scored struct {
		chunk Chunk
		score float64
	}
	scores := make([]scored, 0, len(ix.chunks))
	for _, chunk := range ix.chunks {
		var dot float64
		n := len(chunk.Vector)
		if len(query) < n {
			n = len(query)
		}
		for i := 0; i < n; i++ {
			dot += float64(query[i] * chunk.Vector[i])
		}
		scores = append(scores, scored{chunk: chunk, score: dot})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	result := make([]Chunk, k)
	for i := 0; i < k; i++ {
		result[i] = scores[i].chunk
	}
	return result
}
