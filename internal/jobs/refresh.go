package jobs

import (
	"context"
	"log"

	"github.com/canopy-labs/knowledgebot/internal/domain"
)

// SourceLister lists the sources eligible for a scheduled refresh.
type SourceLister interface {
	GetAll(ctx context.Context) ([]*domain.Source, error)
}

// Ingestor triggers an ingest run for a source.
type Ingestor interface {
	Ingest(ctx context.Context, sourceID, reason string) error
}

// RefreshProcessor re-ingests every registered source on each run. Sources
// currently processing are skipped; per-source failures are logged and do not
// stop the sweep.
type RefreshProcessor struct {
	sources  SourceLister
	ingestor Ingestor
}

// NewRefreshProcessor creates a RefreshProcessor.
func NewRefreshProcessor(sources SourceLister, ingestor Ingestor) *RefreshProcessor {
	return &RefreshProcessor{sources: sources, ingestor: ingestor}
}

// Process runs one refresh sweep.
func (p *RefreshProcessor) Process(ctx context.Context) error {
	sources, err := p.sources.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, src := range sources {
		if src.IngestStatus == domain.IngestStatusProcessing {
			continue
		}
		if err := p.ingestor.Ingest(ctx, src.ID, "scheduled"); err != nil {
			log.Printf("scheduled refresh failed source=%s tenant=%s: %v", src.ID, src.TenantID, err)
		}
	}

	return nil
}
