package main

import (
	"context"
	"flag"
	"log"
	"os"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"google.golang.org/genai"

	"docchat/config"
	"docchat/controller"
	"docchat/services"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Create Chroma client using v2 API
	chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.Chroma.URL))
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			log.Printf("Warning: Failed to close chroma client: %v", err)
		}
	}()

	embedder, err := services.NewOpenAIEmbedder(cfg.Embedding.Model)
	if err != nil {
		log.Fatalf("FATAL: Failed to create embedding client: %v. Make sure OPENAI_API_KEY is set.", err)
	}

	// The collection name is derived from the embedding model, so a model
	// change always lands on a fresh, dimension-compatible index.
	collection, err := services.OpenChromaCollection(ctx, chromaClient, cfg.Chroma.Collection, embedder.Model())
	if err != nil {
		log.Fatalf("FATAL: Failed to get or create collection: %v", err)
	}
	index := services.NewChromaIndex(collection)

	registry, err := services.NewFileRegistry(cfg.StoragePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to open metadata registry: %v", err)
	}

	// An empty index paired with a non-empty registry means the index was
	// rebuilt (new model or wiped store); clear the registry so no record
	// points at discarded vectors.
	if chunkCount, err := index.Count(ctx); err != nil {
		log.Printf("Warning: Could not count vector index at startup: %v", err)
	} else if chunkCount == 0 && registry.Count() > 0 {
		log.Printf("STARTUP: Vector index is empty but registry holds %d documents. Resetting registry.", registry.Count())
		if err := registry.Reset(); err != nil {
			log.Fatalf("FATAL: Failed to reset metadata registry: %v", err)
		}
	}

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
	}
	log.Println("Successfully connected to Google Gemini.")
	generator := services.NewGeminiGenerator(geminiClient, cfg.Generation.Model)

	chunker, err := services.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("FATAL: Invalid chunking config: %v", err)
	}

	documentService := services.NewDocumentService(chunker, embedder, index, registry)
	ragService := services.NewRAGService(embedder, index, generator, cfg.Retrieval.SimilarityThreshold)
	ragController := controller.NewRAGController(documentService, ragService, cfg.Retrieval.MaxResults)

	// Optional drop-directory sync
	if cfg.WatchDir != "" {
		watcher := services.NewDirectoryWatcher(documentService)
		watcher.ScanDirectory(ctx, cfg.WatchDir)
		go watcher.Watch(ctx, cfg.WatchDir)
	}

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", ragController.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/documents", ragController.UploadDocument)
		apiV1.GET("/documents", ragController.GetDocuments)
		apiV1.DELETE("/documents/:id", ragController.DeleteDocument)
		apiV1.POST("/query", ragController.Query)
	}

	log.Printf("docchat backend starting on http://localhost:%s", cfg.Server.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST   http://localhost:%s/api/v1/documents", cfg.Server.Port)
	log.Printf("  GET    http://localhost:%s/api/v1/documents", cfg.Server.Port)
	log.Printf("  DELETE http://localhost:%s/api/v1/documents/:id", cfg.Server.Port)
	log.Printf("  POST   http://localhost:%s/api/v1/query", cfg.Server.Port)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
