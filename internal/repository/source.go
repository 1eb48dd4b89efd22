package repository

import (
	"context"
	"errors"
	"time"

	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SourceRepository struct {
	db dbtx
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{db: pool}
}

func NewSourceRepositoryWithTx(tx pgx.Tx) *SourceRepository {
	return &SourceRepository{db: tx}
}

const sourceColumns = `id, tenant_id, type, value, embedding_provider, metadata, ingest_status, ingest_error, created_at, updated_at, last_triggered_at, last_ingest_at`

func (r *SourceRepository) Create(ctx context.Context, s *domain.Source) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sources (id, tenant_id, type, value, embedding_provider, metadata, ingest_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.TenantID, s.Type, s.Value, s.EmbeddingProvider, s.Metadata, s.IngestStatus, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	var s domain.Source
	err := r.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.TenantID, &s.Type, &s.Value, &s.EmbeddingProvider, &s.Metadata, &s.IngestStatus, &s.IngestError, &s.CreatedAt, &s.UpdatedAt, &s.LastTriggeredAt, &s.LastIngestAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SourceRepository) GetAll(ctx context.Context) ([]*domain.Source, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sourceColumns+` FROM sources ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSourceRows(rows)
}

func (r *SourceRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Source, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSourceRows(rows)
}

func (r *SourceRepository) Update(ctx context.Context, s *domain.Source) error {
	s.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sources SET type = $1, value = $2, embedding_provider = $3, metadata = $4, ingest_status = $5, updated_at = $6
		 WHERE id = $7`,
		s.Type, s.Value, s.EmbeddingProvider, s.Metadata, s.IngestStatus, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM sources WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

// UpdateIngestStatus moves a source through its ingest lifecycle. ingestErr
// replaces the stored error unconditionally; triggeredAt and completedAt only
// update the respective timestamp when non-nil.
func (r *SourceRepository) UpdateIngestStatus(ctx context.Context, id string, status domain.IngestStatus, ingestErr *string, triggeredAt, completedAt *time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE sources
		 SET ingest_status = $1,
		     ingest_error = $2,
		     last_triggered_at = COALESCE($3, last_triggered_at),
		     last_ingest_at = COALESCE($4, last_ingest_at),
		     updated_at = $5
		 WHERE id = $6`,
		status, ingestErr, triggeredAt, completedAt, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepository) RecordHistory(ctx context.Context, entry *domain.IngestHistoryEntry) error {
	if entry.TriggeredAt.IsZero() {
		entry.TriggeredAt = time.Now().UTC()
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO ingest_history (source_id, tenant_id, status, detail, triggered_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		entry.SourceID, entry.TenantID, entry.Status, entry.Detail, entry.TriggeredAt,
	).Scan(&entry.ID)
}

func (r *SourceRepository) ListHistory(ctx context.Context, sourceID string, limit int) ([]*domain.IngestHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, source_id, tenant_id, status, detail, triggered_at
		 FROM ingest_history WHERE source_id = $1 ORDER BY triggered_at DESC, id DESC LIMIT $2`,
		sourceID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.IngestHistoryEntry
	for rows.Next() {
		var e domain.IngestHistoryEntry
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TenantID, &e.Status, &e.Detail, &e.TriggeredAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func scanSourceRows(rows pgx.Rows) ([]*domain.Source, error) {
	var results []*domain.Source
	for rows.Next() {
		var s domain.Source
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Type, &s.Value, &s.EmbeddingProvider, &s.Metadata, &s.IngestStatus, &s.IngestError, &s.CreatedAt, &s.UpdatedAt, &s.LastTriggeredAt, &s.LastIngestAt); err != nil {
			return nil, err
		}
		results = append(results, &s)
	}
	return results, rows.Err()
}
