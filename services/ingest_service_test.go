package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/models"
)

func newTestChunker(t *testing.T) *Chunker {
	t.Helper()
	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
	return chunker
}

func TestIngest_WritesBothStores(t *testing.T) {
	index := newFakeIndex()
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), index, registry)

	content := []byte("Paris is the capital of France.")
	docID, err := svc.Ingest(context.Background(), content, "france.txt")
	require.NoError(t, err)
	require.NotEmpty(t, docID)

	record, ok := registry.Get(docID)
	require.True(t, ok)
	assert.Equal(t, "france.txt", record.Filename)
	assert.Equal(t, models.DocumentStatusProcessed, record.Status)
	assert.Equal(t, 1, record.ChunkCount)
	assert.Equal(t, int64(len(content)), record.Size)
	assert.Equal(t, "fake-embedding-model", record.EmbeddingModel)

	chunks, err := index.GetByDocument(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, docID+"_0", chunks[0].ID)
	assert.Equal(t, "Paris is the capital of France.", chunks[0].Text)
}

func TestIngest_ChunkIDsAreDeterministic(t *testing.T) {
	index := newFakeIndex()
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), index, registry)

	text := strings.Repeat("A reasonably long filler sentence for chunking. ", 60)
	docID, err := svc.Ingest(context.Background(), []byte(text), "long.txt")
	require.NoError(t, err)

	chunks, err := index.GetByDocument(context.Background(), docID)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	seen := make(map[string]bool)
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c.ID, docID+"_"))
		assert.False(t, seen[c.ID], "chunk id %s duplicated", c.ID)
		seen[c.ID] = true
	}

	record, ok := registry.Get(docID)
	require.True(t, ok)
	assert.Equal(t, len(chunks), record.ChunkCount)
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), newFakeIndex(), newTestRegistry(t))

	_, err := svc.Ingest(context.Background(), []byte("data"), "image.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIngest_WhitespaceOnlyContent(t *testing.T) {
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), newFakeIndex(), registry)

	// A file of pure whitespace extracts "successfully" but holds no usable
	// text; that is an empty-content failure, not a chunking one.
	_, err := svc.Ingest(context.Background(), []byte("   \n  "), "blank.txt")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, 0, registry.Count())
}

func TestIngest_EmbeddingCountMismatchLeavesNoRecord(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.vectorsForBatch = 0 // provider returns fewer vectors than chunks
	index := newFakeIndex()
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), embedder, index, registry)

	_, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)

	assert.Equal(t, 0, registry.Count())
	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "nothing may reach the index on a count mismatch")
}

func TestIngest_ProviderFailureLeavesNoRecord(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.batchErr = errors.New("provider unreachable")
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), embedder, newFakeIndex(), registry)

	_, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.Error(t, err)
	assert.Equal(t, 0, registry.Count())
}

func TestIngest_IndexFailureLeavesNoRegistryEntry(t *testing.T) {
	index := newFakeIndex()
	index.upsertErr = errors.New("index unavailable")
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), index, registry)

	_, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.Error(t, err)
	assert.Equal(t, 0, registry.Count(), "the registry write is the commit point")
}

func TestIngest_RegistryFailureRollsBackIndexWrite(t *testing.T) {
	index := newFakeIndex()
	registry := &failingRegistry{DocumentRegistry: newTestRegistry(t)}
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), index, registry)

	_, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.Error(t, err)

	require.Len(t, index.deleted, 1, "index write must be compensated when the registry write fails")
	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDelete_RemovesBothStores(t *testing.T) {
	index := newFakeIndex()
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), index, registry)

	docID, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), docID))

	chunks, err := index.GetByDocument(context.Background(), docID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	_, ok := registry.Get(docID)
	assert.False(t, ok)
}

func TestDelete_UnknownDocument(t *testing.T) {
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), newFakeIndex(), newTestRegistry(t))
	err := svc.Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDelete_IndexFailureKeepsRegistryEntry(t *testing.T) {
	index := newFakeIndex()
	registry := newTestRegistry(t)
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), index, registry)

	docID, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.NoError(t, err)

	index.deleteErr = errors.New("index unavailable")
	require.Error(t, svc.Delete(context.Background(), docID))

	_, ok := registry.Get(docID)
	assert.True(t, ok, "registry entry must survive a failed index delete")
}

func TestList_IncludesIngestedDocument(t *testing.T) {
	svc := NewDocumentService(newTestChunker(t), newFakeEmbedder(), newFakeIndex(), newTestRegistry(t))

	docID, err := svc.Ingest(context.Background(), []byte("Paris is the capital of France."), "france.txt")
	require.NoError(t, err)

	records := svc.List()
	require.Len(t, records, 1)
	assert.Equal(t, docID, records[0].ID)
	assert.Equal(t, 1, svc.Count())
}
