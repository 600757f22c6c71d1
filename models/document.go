package models

import "time"

// DocumentStatusProcessed is the only terminal success state for a document.
// A failed ingestion never leaves a document record behind.
const DocumentStatusProcessed = "processed"

// DocumentRecord is the registry-side summary of one uploaded document.
// The vector index only ever references its ID.
type DocumentRecord struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	Size           int64     `json:"size"`
	UploadTime     time.Time `json:"upload_time"`
	Status         string    `json:"status"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingModel string    `json:"embedding_model"`
}

// Source is one retrieved chunk annotated with its similarity score and
// origin. It lives only for the duration of answering a single question.
type Source struct {
	Content         string  `json:"content"`
	Filename        string  `json:"filename"`
	DocID           string  `json:"doc_id"`
	ChunkID         string  `json:"chunk_id"`
	SimilarityScore float64 `json:"similarity_score"`
}
