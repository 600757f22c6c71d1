package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms/openai"
)

// EmbeddingProvider converts text into fixed-dimension vectors, singly or in
// batch. Implementations must fail on empty input rather than returning an
// empty vector, so callers can tell "nothing to embed" from provider failure.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	llm   *openai.LLM
	model string
}

// NewOpenAIEmbedder builds an embedder for the given model. The API key is
// read from OPENAI_API_KEY by the underlying client.
func NewOpenAIEmbedder(model string) (*OpenAIEmbedder, error) {
	if model == "" {
		model = "text-embedding-3-small"
	}
	llm, err := openai.New(openai.WithEmbeddingModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIEmbedder{llm: llm, model: model}, nil
}

// Model returns the embedding model identifier in use.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed returns the embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := cleanForEmbedding(text)
	if cleaned == "" {
		return nil, ErrEmptyInput
	}
	vectors, err := e.llm.CreateEmbedding(ctx, []string{cleaned})
	if err != nil {
		return nil, fmt.Errorf("openai embedding call failed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in a single provider call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		if c := cleanForEmbedding(t); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyInput
	}
	vectors, err := e.llm.CreateEmbedding(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("openai batch embedding call failed: %w", err)
	}
	return vectors, nil
}

// cleanForEmbedding flattens newlines before sending text to the embeddings
// API, matching how chunks were embedded at ingestion time.
func cleanForEmbedding(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}
