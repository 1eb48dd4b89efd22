package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Vector store (Qdrant-compatible HTTP API)
	VectorStoreURL    string `envconfig:"VECTOR_STORE_URL" default:"http://localhost:6333"`
	VectorStoreAPIKey string `envconfig:"VECTOR_STORE_API_KEY"`

	// Local model server (Ollama-compatible)
	LocalModelURL   string `envconfig:"LOCAL_MODEL_URL" default:"http://localhost:11434"`
	LocalEmbedModel string `envconfig:"LOCAL_EMBED_MODEL" default:"nomic-embed-text"`
	LocalChatModel  string `envconfig:"LOCAL_CHAT_MODEL" default:"llama3"`

	// Cloud model API (Gemini)
	CloudAPIKey     string `envconfig:"CLOUD_API_KEY"`
	CloudEmbedModel string `envconfig:"CLOUD_EMBED_MODEL" default:"text-embedding-004"`
	CloudChatModel  string `envconfig:"CLOUD_CHAT_MODEL" default:"gemini-1.5-flash"`

	// Text-extraction mirror, reached by prefixing the target URL
	MirrorURL string `envconfig:"MIRROR_URL" default:"https://r.jina.ai"`

	DefaultChunkSize     int    `envconfig:"DEFAULT_CHUNK_SIZE" default:"1000"`
	DefaultChunkOverlap  int    `envconfig:"DEFAULT_CHUNK_OVERLAP" default:"100"`
	DefaultInternalDepth int    `envconfig:"DEFAULT_INTERNAL_DEPTH" default:"0"`
	DefaultExternalDepth int    `envconfig:"DEFAULT_EXTERNAL_DEPTH" default:"0"`
	DefaultProvider      string `envconfig:"DEFAULT_EMBEDDING_PROVIDER" default:"local-model"`

	// Scheduled refresh of all registered sources; 0 disables the worker.
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"24h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("KB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasCloudProvider() bool {
	return c.CloudAPIKey != ""
}
