package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canopy-labs/knowledgebot/internal/api/handlers"
	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopRepo struct{}

func (noopRepo) Create(ctx context.Context, s *domain.Source) error { return nil }
func (noopRepo) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	return nil, domain.ErrSourceNotFound
}
func (noopRepo) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Source, error) {
	return nil, nil
}
func (noopRepo) Update(ctx context.Context, s *domain.Source) error { return nil }
func (noopRepo) Delete(ctx context.Context, id string) error        { return nil }
func (noopRepo) ListHistory(ctx context.Context, sourceID string, limit int) ([]*domain.IngestHistoryEntry, error) {
	return nil, nil
}

type noopIngestor struct{}

func (noopIngestor) Ingest(ctx context.Context, sourceID, reason string) error { return nil }

func newRouter() http.Handler {
	handler := handlers.NewSourceHandler(noopRepo{}, noopIngestor{}, domain.ProviderLocalModel)
	return NewRouter(RouterConfig{SourceHandler: handler})
}

func TestRouter_Health(t *testing.T) {
	router := newRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_SourcesRequireTenant(t *testing.T) {
	router := newRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_NotFoundSource(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/sources/missing", nil)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
