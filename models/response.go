package models

import "time"

// UploadResponse is returned after a successful document ingestion.
type UploadResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryResponse carries the synthesized answer and the sources it was
// grounded on. Sources are omitted for the fixed short-circuit answers.
type QueryResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// DocumentList is the body of GET /api/v1/documents.
type DocumentList struct {
	Documents []DocumentRecord `json:"documents"`
	Total     int              `json:"total"`
}

// DeleteResponse is returned after a successful document deletion.
type DeleteResponse struct {
	Message   string `json:"message"`
	DeletedID string `json:"deleted_id"`
}
