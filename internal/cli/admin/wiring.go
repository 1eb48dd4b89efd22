package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/canopy-labs/knowledgebot/internal/config"
	"github.com/canopy-labs/knowledgebot/internal/database"
	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/canopy-labs/knowledgebot/internal/embedding"
	"github.com/canopy-labs/knowledgebot/internal/ingest"
	"github.com/canopy-labs/knowledgebot/internal/repository"
	"github.com/canopy-labs/knowledgebot/internal/vectorstore"
	"github.com/jackc/pgx/v5/pgxpool"
)

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func defaultProvider(cfg *config.Config) domain.EmbeddingProvider {
	return domain.NormalizeProvider(cfg.DefaultProvider, domain.ProviderLocalModel)
}

// buildOrchestrator wires the ingest pipeline from configuration. The
// returned cleanup releases the cloud embedding client, when one was built.
func buildOrchestrator(ctx context.Context, cfg *config.Config, sourceRepo *repository.SourceRepository) (*ingest.Orchestrator, func(), error) {
	fetcher := ingest.NewHTTPFetcher(cfg.MirrorURL)
	collector := ingest.NewCollector(fetcher, cfg.DefaultInternalDepth, cfg.DefaultExternalDepth)

	local := embedding.NewOllamaClient(cfg.LocalModelURL, cfg.LocalEmbedModel)

	cleanup := func() {}
	var cloud embedding.Embedder
	if cfg.HasCloudProvider() {
		gemini, err := embedding.NewGeminiClient(ctx, cfg.CloudAPIKey, cfg.CloudEmbedModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create cloud embedding client: %w", err)
		}
		cloud = gemini
		cleanup = func() {
			if err := gemini.Close(); err != nil {
				log.Printf("failed to close cloud embedding client: %v", err)
			}
		}
	}

	factory := embedding.NewFactory(local, cloud, defaultProvider(cfg))
	vectors := vectorstore.NewClient(cfg.VectorStoreURL, cfg.VectorStoreAPIKey)

	chunkCfg := ingest.ChunkConfig{
		Size:    cfg.DefaultChunkSize,
		Overlap: cfg.DefaultChunkOverlap,
	}

	return ingest.NewOrchestrator(sourceRepo, collector, factory, vectors, chunkCfg), cleanup, nil
}
