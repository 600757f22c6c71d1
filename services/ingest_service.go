package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat/models"
)

// DocumentService owns the document lifecycle: ingestion into both stores,
// listing, and atomic-from-the-caller's-perspective deletion.
type DocumentService interface {
	Ingest(ctx context.Context, content []byte, filename string) (string, error)
	Delete(ctx context.Context, id string) error
	List() []models.DocumentRecord
	Count() int
}

type documentServiceImpl struct {
	chunker  *Chunker
	embedder EmbeddingProvider
	index    VectorIndex
	registry DocumentRegistry
}

// NewDocumentService wires the ingestion pipeline. All collaborators are
// injected so tests can substitute fakes.
func NewDocumentService(chunker *Chunker, embedder EmbeddingProvider, index VectorIndex, registry DocumentRegistry) DocumentService {
	return &documentServiceImpl{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		registry: registry,
	}
}

// Ingest runs extract -> chunk -> embed (one batch call) -> index write ->
// registry write for one document. The registry write is the commit point:
// if the index write fails no registry entry is created, and if the registry
// write fails the just-written chunks are removed again, so the two stores
// never disagree about a processed document.
func (s *documentServiceImpl) Ingest(ctx context.Context, content []byte, filename string) (string, error) {
	docID := uuid.New().String()

	text, err := ExtractText(content, filename)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return "", ErrNoChunks
	}

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("could not embed document chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return "", fmt.Errorf("%w: %d chunks, %d embeddings", ErrEmbeddingCountMismatch, len(chunks), len(vectors))
	}

	records := make([]ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = ChunkRecord{
			ID:       fmt.Sprintf("%s_%d", docID, i),
			DocID:    docID,
			Filename: filename,
			Index:    i,
			Text:     chunk,
			Vector:   vectors[i],
		}
	}
	if err := s.index.Upsert(ctx, records); err != nil {
		return "", fmt.Errorf("failed to write chunks to vector index: %w", err)
	}

	record := models.DocumentRecord{
		ID:             docID,
		Filename:       filename,
		Size:           int64(len(content)),
		UploadTime:     time.Now().UTC(),
		Status:         models.DocumentStatusProcessed,
		ChunkCount:     len(chunks),
		EmbeddingModel: s.embedder.Model(),
	}
	if err := s.registry.Upsert(record); err != nil {
		// Compensating action: without a registry entry the chunks would be
		// orphaned, so undo the index write before surfacing the error.
		if delErr := s.index.DeleteByDocument(ctx, docID); delErr != nil {
			log.Printf("INGEST ERROR: Registry write failed and index rollback for %s also failed, stores have drifted: %v", docID, delErr)
		}
		return "", fmt.Errorf("failed to record document metadata: %w", err)
	}

	log.Printf("SERVICE: Ingested %s as document %s (%d chunks)", filename, docID, len(chunks))
	return docID, nil
}

// Delete removes a document's chunks from the vector index and then its
// registry record. The registry entry is only dropped once the index is
// clean, so a failed index delete leaves a consistent pair behind.
func (s *documentServiceImpl) Delete(ctx context.Context, id string) error {
	if _, ok := s.registry.Get(id); !ok {
		return ErrDocumentNotFound
	}
	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %w", id, err)
	}
	deleted, err := s.registry.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete registry record for %s: %w", id, err)
	}
	if !deleted {
		return ErrDocumentNotFound
	}
	log.Printf("SERVICE: Deleted document %s", id)
	return nil
}

// List returns all registered documents.
func (s *documentServiceImpl) List() []models.DocumentRecord {
	return s.registry.List()
}

// Count returns the number of registered documents.
func (s *documentServiceImpl) Count() int {
	return s.registry.Count()
}
