package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"docchat/models"
)

// Fixed answers for the terminal shortcut states of a query. Every internal
// failure on the query path degrades to one of these or to a descriptive
// error string; the caller always gets answer-shaped text.
const (
	AnswerNoDocuments = "No documents found."
	AnswerUngrounded  = "I do not know. The question doesn't relate to the available documents."
	AnswerDecline     = "I do not know. Available documents don't contain information to answer your question."
)

// declinePhrases are the "I don't know"-equivalents the generator may emit.
// Any of them normalizes the whole answer to AnswerDecline so downstream
// consumers can rely on a single canonical decline string.
var declinePhrases = []string{
	"i do not know",
	"i don't know",
	"cannot answer",
	"not enough information",
}

const (
	// defaultGroundingThreshold is the similarity below which retrieval is
	// considered too poor to answer from.
	defaultGroundingThreshold = 0.3

	defaultMaxResults = 3

	answerMaxTokens   = 500
	answerTemperature = 0.1
)

// RAGService answers questions strictly from the uploaded corpus.
type RAGService interface {
	Retrieve(ctx context.Context, question string, maxResults int) ([]models.Source, error)
	Answer(ctx context.Context, question string, maxResults int) (string, []models.Source)
}

type ragServiceImpl struct {
	embedder  EmbeddingProvider
	index     VectorIndex
	generator Generator
	threshold float64
}

// NewRAGService wires the retrieval pipeline and answer synthesis. A
// non-positive threshold falls back to the default grounding threshold.
func NewRAGService(embedder EmbeddingProvider, index VectorIndex, generator Generator, threshold float64) RAGService {
	if threshold <= 0 {
		threshold = defaultGroundingThreshold
	}
	return &ragServiceImpl{
		embedder:  embedder,
		index:     index,
		generator: generator,
		threshold: threshold,
	}
}

// Retrieve embeds the question and returns the nearest chunks as sources,
// ordered by descending similarity. An empty result is a valid, common
// outcome; a provider or index failure is reported as ErrRetrievalFailed so
// callers can tell "nothing relevant" from "index unreachable".
func (r *ragServiceImpl) Retrieve(ctx context.Context, question string, maxResults int) ([]models.Source, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: could not embed question: %v", ErrRetrievalFailed, err)
	}

	matches, err := r.index.Query(ctx, vector, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: vector index query failed: %v", ErrRetrievalFailed, err)
	}

	sources := make([]models.Source, 0, len(matches))
	for _, m := range matches {
		source := models.Source{
			Content:         m.Text,
			SimilarityScore: distanceToSimilarity(m.Distance),
		}
		if v, ok := m.Metadata["filename"].(string); ok {
			source.Filename = v
		}
		if v, ok := m.Metadata["doc_id"].(string); ok {
			source.DocID = v
		}
		if v, ok := m.Metadata["chunk_id"].(string); ok {
			source.ChunkID = v
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Answer runs the full query pipeline. It never returns an error: empty
// retrieval, an ungrounded result, and provider failures all degrade to a
// user-facing textual answer.
func (r *ragServiceImpl) Answer(ctx context.Context, question string, maxResults int) (string, []models.Source) {
	sources, err := r.Retrieve(ctx, question, maxResults)
	if err != nil {
		log.Printf("SERVICE ERROR: Retrieval failed: %v", err)
		return fmt.Sprintf("Error searching the documents: %v", err), nil
	}
	if len(sources) == 0 {
		return AnswerNoDocuments, nil
	}

	// Grounding gate: if nothing retrieved clears the similarity threshold,
	// decline without paying for a generation that could only hallucinate.
	grounded := false
	for _, src := range sources {
		if src.SimilarityScore >= r.threshold {
			grounded = true
			break
		}
	}
	if !grounded {
		return AnswerUngrounded, sources
	}

	prompt := BuildAnswerPrompt(question, sources)
	answer, err := r.generator.Complete(ctx, systemPrompt, prompt, answerMaxTokens, answerTemperature)
	if err != nil {
		log.Printf("SERVICE ERROR: Generation failed: %v", err)
		return fmt.Sprintf("Error generating answer: %v", err), sources
	}

	answer = strings.TrimSpace(answer)
	lowered := strings.ToLower(answer)
	for _, phrase := range declinePhrases {
		if strings.Contains(lowered, phrase) {
			return AnswerDecline, sources
		}
	}
	return answer, sources
}

// distanceToSimilarity converts a cosine distance to a similarity score in
// [0, 1], rounded to 3 decimal places.
func distanceToSimilarity(distance float64) float64 {
	similarity := 1.0 - distance
	if similarity < 0 {
		similarity = 0
	}
	return math.Round(similarity*1000) / 1000
}
