package services

import (
	"context"
	"errors"
	"fmt"

	"docchat/models"
)

// fakeEmbedder returns deterministic vectors. vectorsForBatch, when set,
// overrides the 1:1 chunk/vector contract to simulate a misbehaving provider.
type fakeEmbedder struct {
	embedErr        error
	batchErr        error
	vectorsForBatch int // -1 means "one per input"
	embedCalls      int
	batchCalls      int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectorsForBatch: -1}
}

func (f *fakeEmbedder) Model() string { return "fake-embedding-model" }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if text == "" {
		return nil, ErrEmptyInput
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	n := len(texts)
	if f.vectorsForBatch >= 0 {
		n = f.vectorsForBatch
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i), 1, 0}
	}
	return vectors, nil
}

// fakeIndex is an in-memory VectorIndex with injectable failures.
type fakeIndex struct {
	records    map[string][]ChunkRecord // keyed by doc id
	matches    []QueryMatch             // canned query results
	upsertErr  error
	queryErr   error
	deleteErr  error
	deleted    []string
	queryCalls int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string][]ChunkRecord)}
}

func (f *fakeIndex) Upsert(ctx context.Context, records []ChunkRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, r := range records {
		f.records[r.DocID] = append(f.records[r.DocID], r)
	}
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, k int) ([]QueryMatch, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if k < len(f.matches) {
		return f.matches[:k], nil
	}
	return f.matches, nil
}

func (f *fakeIndex) GetByDocument(ctx context.Context, docID string) ([]QueryMatch, error) {
	matches := make([]QueryMatch, 0, len(f.records[docID]))
	for _, r := range f.records[docID] {
		matches = append(matches, QueryMatch{
			ID:   r.ID,
			Text: r.Text,
			Metadata: map[string]interface{}{
				"doc_id":   r.DocID,
				"filename": r.Filename,
				"chunk_id": r.ID,
			},
		})
	}
	return matches, nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, docID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, docID)
	delete(f.records, docID)
	return nil
}

func (f *fakeIndex) Count(ctx context.Context) (int, error) {
	total := 0
	for _, recs := range f.records {
		total += len(recs)
	}
	return total, nil
}

// fakeGenerator records calls and returns a canned answer.
type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (f *fakeGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int32, temperature float32) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// failingRegistry wraps a real registry but fails every Upsert, to exercise
// the ingestion compensating action.
type failingRegistry struct {
	DocumentRegistry
}

func (f *failingRegistry) Upsert(record models.DocumentRecord) error {
	return errors.New("disk full")
}

func newTestRegistry(tb interface {
	TempDir() string
	Fatalf(format string, args ...any)
}) *FileRegistry {
	registry, err := NewFileRegistry(tb.TempDir())
	if err != nil {
		tb.Fatalf("failed to create registry: %v", err)
	}
	return registry
}

func matchWithScore(docID, filename, text string, distance float64) QueryMatch {
	return QueryMatch{
		ID:   fmt.Sprintf("%s_0", docID),
		Text: text,
		Metadata: map[string]interface{}{
			"doc_id":   docID,
			"filename": filename,
			"chunk_id": fmt.Sprintf("%s_0", docID),
		},
		Distance: distance,
	}
}
