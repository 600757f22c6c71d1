package services

import "errors"

// Failure modes surfaced by the ingestion and deletion paths. The query path
// never returns these to the end user; it degrades to a textual answer and
// keeps the typed error for logging only.
var (
	// ErrUnsupportedFormat means the filename extension is not a supported
	// text-bearing format (.txt, .md, .pdf).
	ErrUnsupportedFormat = errors.New("unsupported file type: only PDF, TXT and MD files are supported")

	// ErrEmptyContent means no extractable text remained after
	// format-specific extraction.
	ErrEmptyContent = errors.New("no text content found in document")

	// ErrNoChunks means the chunker produced zero chunks from the
	// extracted text.
	ErrNoChunks = errors.New("no text chunks created from the document")

	// ErrEmbeddingCountMismatch means the embedding provider returned a
	// different number of vectors than chunks submitted.
	ErrEmbeddingCountMismatch = errors.New("chunk and embedding counts do not match")

	// ErrDocumentNotFound means the document identifier is unknown to the
	// metadata registry.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEmptyInput means a provider was asked to embed empty text. Kept
	// distinct from provider failure so callers can tell the two apart.
	ErrEmptyInput = errors.New("empty input text")

	// ErrRetrievalFailed marks a retrieval that failed because a provider
	// or the index was unreachable, as opposed to finding no matches.
	ErrRetrievalFailed = errors.New("retrieval failed")
)
