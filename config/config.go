package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// ChromaConfig contains connection details for the ChromaDB vector store.
type ChromaConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig selects the embedding model.
type EmbeddingConfig struct {
	Model string `yaml:"model"`
}

// GenerationConfig selects the language generation model.
type GenerationConfig struct {
	Model string `yaml:"model"`
}

// ChunkingConfig configures how documents are split into chunks.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig configures query-time behavior.
type RetrievalConfig struct {
	MaxResults          int     `yaml:"max_results"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// AppConfig is the root application configuration.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Chroma     ChromaConfig     `yaml:"chroma"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	// StoragePath holds the metadata registry sidecar file.
	StoragePath string `yaml:"storage_path"`
	// WatchDir, when set, is auto-ingested and kept in sync.
	WatchDir string `yaml:"watch_dir"`
}

// Load reads the config from path, falling back to defaults when the file
// does not exist. The document is decoded over a pre-populated default
// config, so keys absent from the file keep their defaults while explicit
// values, zero included, are honored. Environment variables override the
// file for deploy-time settings; API keys are env-only and never live in
// the file.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:      ServerConfig{Port: "8080"},
		Chroma:      ChromaConfig{URL: "http://localhost:8000", Collection: "documents"},
		Embedding:   EmbeddingConfig{Model: "text-embedding-3-small"},
		Generation:  GenerationConfig{Model: "gemini-2.5-flash"},
		Chunking:    ChunkingConfig{Size: 1000, Overlap: 200},
		Retrieval:   RetrievalConfig{MaxResults: 3, SimilarityThreshold: 0.3},
		StoragePath: "./vector_store",
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("API_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CHROMA_URL"); v != "" {
		cfg.Chroma.URL = v
	}
	if v := os.Getenv("VECTOR_STORE_PATH"); v != "" {
		cfg.StoragePath = v
	}
	if v := os.Getenv("WATCH_DIR"); v != "" {
		cfg.WatchDir = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
}
