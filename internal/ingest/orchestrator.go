package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/canopy-labs/knowledgebot/internal/embedding"
	"github.com/canopy-labs/knowledgebot/internal/telemetry"
	"github.com/canopy-labs/knowledgebot/internal/vectorstore"
	"golang.org/x/sync/singleflight"
)

// SourceStore is the persistence surface the orchestrator needs.
type SourceStore interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	UpdateIngestStatus(ctx context.Context, id string, status domain.IngestStatus, ingestErr *string, triggeredAt, completedAt *time.Time) error
	RecordHistory(ctx context.Context, entry *domain.IngestHistoryEntry) error
}

// DocumentCollector resolves a source into its documents.
type DocumentCollector interface {
	Collect(ctx context.Context, src *domain.Source) ([]domain.Document, error)
}

// EmbedderFactory resolves the embedder for a source's provider.
type EmbedderFactory interface {
	ForProvider(provider domain.EmbeddingProvider) (embedding.Embedder, error)
}

// VectorStore is the vector persistence surface the orchestrator needs.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, vectorSize int) error
	UpsertPoints(ctx context.Context, name string, points []domain.EmbeddingPoint) error
}

// Orchestrator runs the ingest pipeline for a source: collect, chunk, embed,
// store. Concurrent runs for the same source are collapsed into one.
type Orchestrator struct {
	store     SourceStore
	collector DocumentCollector
	embedders EmbedderFactory
	vectors   VectorStore
	chunkCfg  ChunkConfig

	group singleflight.Group
}

// NewOrchestrator wires an ingest orchestrator.
func NewOrchestrator(store SourceStore, collector DocumentCollector, embedders EmbedderFactory, vectors VectorStore, chunkCfg ChunkConfig) *Orchestrator {
	return &Orchestrator{
		store:     store,
		collector: collector,
		embedders: embedders,
		vectors:   vectors,
		chunkCfg:  chunkCfg,
	}
}

// Ingest runs the pipeline for the given source. If a run for the same
// source is already in flight within this process, the call joins it instead
// of starting a second one. The run itself is detached from the caller's
// cancellation so an aborted HTTP request does not strand a source in
// processing.
func (o *Orchestrator) Ingest(ctx context.Context, sourceID, reason string) error {
	runCtx := context.WithoutCancel(ctx)
	_, err, _ := o.group.Do(sourceID, func() (any, error) {
		return nil, o.run(runCtx, sourceID, reason)
	})
	return err
}

func (o *Orchestrator) run(ctx context.Context, sourceID, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, "ingest.run", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: reason,
	})
	defer span.End()

	src, err := o.store.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}

	startedAt := time.Now().UTC()
	if err := o.store.UpdateIngestStatus(ctx, src.ID, domain.IngestStatusProcessing, nil, &startedAt, nil); err != nil {
		return err
	}
	o.recordHistory(ctx, src, domain.IngestStatusProcessing, reason, startedAt)

	points, err := o.buildPoints(ctx, src)
	if err != nil {
		return o.failRun(ctx, src, err)
	}

	name := vectorstore.CollectionName(src.TenantID)
	if err := o.vectors.EnsureCollection(ctx, name, len(points[0].Vector)); err != nil {
		return o.failRun(ctx, src, err)
	}
	if err := o.vectors.UpsertPoints(ctx, name, points); err != nil {
		return o.failRun(ctx, src, err)
	}

	completedAt := time.Now().UTC()
	if err := o.store.UpdateIngestStatus(ctx, src.ID, domain.IngestStatusReady, nil, nil, &completedAt); err != nil {
		return err
	}
	o.recordHistory(ctx, src, domain.IngestStatusReady, "", completedAt)

	log.Printf("ingest completed source=%s tenant=%s chunks=%d", src.ID, src.TenantID, len(points))
	return nil
}

// buildPoints runs collect, chunk and embed for the source and returns the
// points ready for the vector store. It guarantees a non-empty result.
func (o *Orchestrator) buildPoints(ctx context.Context, src *domain.Source) ([]domain.EmbeddingPoint, error) {
	docs, err := o.collector.Collect(ctx, src)
	if err != nil {
		return nil, err
	}

	cfg := ResolveChunkConfig(src.Metadata, o.chunkCfg)
	chunks, err := ChunkDocuments(docs, src.Metadata, cfg)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, domain.ErrNoExtractableText
	}

	embedder, err := o.embedders.ForProvider(src.EmbeddingProvider)
	if err != nil {
		return nil, err
	}

	points := make([]domain.EmbeddingPoint, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, err
		}
		if len(vector) == 0 {
			continue
		}
		points = append(points, domain.EmbeddingPoint{
			ID:      chunk.ID,
			Vector:  vector,
			Payload: pointPayload(src, chunk),
		})
	}
	if len(points) == 0 {
		return nil, domain.ErrNoVectors
	}

	return points, nil
}

func (o *Orchestrator) failRun(ctx context.Context, src *domain.Source, cause error) error {
	msg := errMessage(cause)
	failedAt := time.Now().UTC()

	if err := o.store.UpdateIngestStatus(ctx, src.ID, domain.IngestStatusError, &msg, nil, nil); err != nil {
		log.Printf("failed to persist error status source=%s: %v", src.ID, err)
	}
	o.recordHistory(ctx, src, domain.IngestStatusError, msg, failedAt)

	telemetry.CaptureError(ctx, cause)
	return cause
}

func (o *Orchestrator) recordHistory(ctx context.Context, src *domain.Source, status domain.IngestStatus, detail string, at time.Time) {
	entry := &domain.IngestHistoryEntry{
		SourceID:    src.ID,
		TenantID:    src.TenantID,
		Status:      status,
		Detail:      detail,
		TriggeredAt: at,
	}
	if err := o.store.RecordHistory(ctx, entry); err != nil {
		log.Printf("failed to record ingest history source=%s: %v", src.ID, err)
	}
}

func pointPayload(src *domain.Source, chunk domain.Chunk) map[string]any {
	payload := map[string]any{
		"tenant_id": src.TenantID,
		"text":      chunk.Text,
		"origin":    chunk.Origin,
	}
	for k, v := range chunk.Metadata {
		payload[k] = v
	}
	return payload
}

// errMessage extracts a user-facing message from a pipeline error.
func errMessage(err error) string {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		return derr.Message
	}
	return err.Error()
}
