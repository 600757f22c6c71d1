package controller

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docchat/models"
	"docchat/services"
)

// answerNoCorpus is returned when a question arrives before any document has
// been uploaded. The query path short-circuits without touching a provider.
const answerNoCorpus = "No documents uploaded yet."

// RAGController handles the HTTP requests for the document Q&A API. It
// depends on the document and RAG services to perform the actual work.
type RAGController struct {
	documents  services.DocumentService
	rag        services.RAGService
	maxResults int
}

// NewRAGController is called from main.go to inject the service dependencies.
// maxResults is the result count used when a query does not ask for one.
func NewRAGController(documents services.DocumentService, rag services.RAGService, maxResults int) *RAGController {
	return &RAGController{documents: documents, rag: rag, maxResults: maxResults}
}

// UploadDocument is the Gin handler for POST /api/v1/documents. It accepts a
// multipart upload, ingests it, and returns the new document identifier.
func (c *RAGController) UploadDocument(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing file in request: " + err.Error()})
		return
	}
	if !services.IsSupportedFilename(fileHeader.Filename) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, TXT and MD files are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	if len(content) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Empty file uploaded"})
		return
	}

	docID, err := c.documents.Ingest(ctx.Request.Context(), content, fileHeader.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrUnsupportedFormat) ||
			errors.Is(err, services.ErrEmptyContent) ||
			errors.Is(err, services.ErrNoChunks) {
			status = http.StatusBadRequest
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, models.UploadResponse{
		ID:        docID,
		Filename:  fileHeader.Filename,
		Status:    "success",
		Message:   "Document uploaded and processed successfully",
		Timestamp: time.Now().UTC(),
	})
}

// Query is the Gin handler for POST /api/v1/query. The query path never
// hard-fails on internal errors; every outcome is answer-shaped text.
func (c *RAGController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Question cannot be empty"})
		return
	}

	if c.documents.Count() == 0 {
		ctx.JSON(http.StatusOK, models.QueryResponse{Answer: answerNoCorpus})
		return
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	answer, sources := c.rag.Answer(ctx.Request.Context(), req.Question, maxResults)
	ctx.JSON(http.StatusOK, models.QueryResponse{Answer: answer, Sources: sources})
}

// GetDocuments is the Gin handler for GET /api/v1/documents.
func (c *RAGController) GetDocuments(ctx *gin.Context) {
	records := c.documents.List()
	ctx.JSON(http.StatusOK, models.DocumentList{Documents: records, Total: len(records)})
}

// DeleteDocument is the Gin handler for DELETE /api/v1/documents/:id.
func (c *RAGController) DeleteDocument(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.documents.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}
	ctx.JSON(http.StatusOK, models.DeleteResponse{
		Message:   "Document deleted successfully",
		DeletedID: id,
	})
}

// Health is the Gin handler for GET /health.
func (c *RAGController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "docchat API",
		"documents": c.documents.Count(),
		"timestamp": time.Now().UTC(),
	})
}
