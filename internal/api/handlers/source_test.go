package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/canopy-labs/knowledgebot/internal/api/middleware"
	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSourceRepo struct {
	mu      sync.Mutex
	sources map[string]*domain.Source
	history map[string][]*domain.IngestHistoryEntry
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{
		sources: make(map[string]*domain.Source),
		history: make(map[string][]*domain.IngestHistoryEntry),
	}
}

func (r *fakeSourceRepo) Create(ctx context.Context, s *domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.sources[s.ID] = &copied
	return nil
}

func (r *fakeSourceRepo) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sources[id]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSourceRepo) ListByTenant(ctx context.Context, tenantID string) ([]*domain.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Source
	for _, s := range r.sources {
		if s.TenantID == tenantID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) Update(ctx context.Context, s *domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[s.ID]; !ok {
		return domain.ErrSourceNotFound
	}
	copied := *s
	r.sources[s.ID] = &copied
	return nil
}

func (r *fakeSourceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return domain.ErrSourceNotFound
	}
	delete(r.sources, id)
	return nil
}

func (r *fakeSourceRepo) ListHistory(ctx context.Context, sourceID string, limit int) ([]*domain.IngestHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[sourceID], nil
}

type fakeIngestor struct {
	mu      sync.Mutex
	calls   []string
	reasons []string
	done    chan struct{}
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{done: make(chan struct{}, 10)}
}

func (f *fakeIngestor) Ingest(ctx context.Context, sourceID, reason string) error {
	f.mu.Lock()
	f.calls = append(f.calls, sourceID)
	f.reasons = append(f.reasons, reason)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeIngestor) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ingest trigger")
	}
}

func newTestRouter(repo SourceRepo, ingestor Ingestor) http.Handler {
	h := NewSourceHandler(repo, ingestor, domain.ProviderLocalModel)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant)
		r.Route("/sources", func(r chi.Router) {
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/ingest", h.IngestNow)
			r.Get("/{id}/history", h.History)
		})
	})
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, tenant string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if tenant != "" {
		req.Header.Set(middleware.TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wrapper))
	require.NoError(t, json.Unmarshal(wrapper.Data, out))
}

func TestSourceHandler_Create(t *testing.T) {
	repo := newFakeSourceRepo()
	ingestor := newFakeIngestor()
	router := newTestRouter(repo, ingestor)

	rec := doRequest(t, router, http.MethodPost, "/sources", "acme", CreateSourceRequest{
		Type:              "url",
		Value:             "https://example.com",
		EmbeddingProvider: "gemini-cloud",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SourceResponse
	decodeData(t, rec, &resp)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "acme", resp.TenantID)
	assert.Equal(t, "pending", resp.IngestStatus)
	assert.Equal(t, "cloud-model", resp.EmbeddingProvider)

	ingestor.waitForCall(t)
	assert.Equal(t, []string{resp.ID}, ingestor.calls)
	assert.Equal(t, []string{"create"}, ingestor.reasons)
}

func TestSourceHandler_Create_Validation(t *testing.T) {
	router := newTestRouter(newFakeSourceRepo(), newFakeIngestor())

	rec := doRequest(t, router, http.MethodPost, "/sources", "acme", CreateSourceRequest{Value: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/sources", "acme", CreateSourceRequest{Type: "url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/sources", "acme", CreateSourceRequest{Type: "video", Value: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourceHandler_MissingTenantHeader(t *testing.T) {
	router := newTestRouter(newFakeSourceRepo(), newFakeIngestor())

	rec := doRequest(t, router, http.MethodGet, "/sources", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourceHandler_Get_TenantScoping(t *testing.T) {
	repo := newFakeSourceRepo()
	repo.sources["src-1"] = &domain.Source{
		ID:                "src-1",
		TenantID:          "acme",
		Type:              domain.SourceTypeText,
		Value:             "text",
		EmbeddingProvider: domain.ProviderLocalModel,
		IngestStatus:      domain.IngestStatusReady,
	}
	router := newTestRouter(repo, newFakeIngestor())

	rec := doRequest(t, router, http.MethodGet, "/sources/src-1", "acme", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// another tenant's source reads as not found
	rec = doRequest(t, router, http.MethodGet, "/sources/src-1", "globex", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourceHandler_List(t *testing.T) {
	repo := newFakeSourceRepo()
	repo.sources["a"] = &domain.Source{ID: "a", TenantID: "acme"}
	repo.sources["b"] = &domain.Source{ID: "b", TenantID: "globex"}
	router := newTestRouter(repo, newFakeIngestor())

	rec := doRequest(t, router, http.MethodGet, "/sources", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []*SourceResponse
	decodeData(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "a", resp[0].ID)
}

func TestSourceHandler_Update(t *testing.T) {
	repo := newFakeSourceRepo()
	repo.sources["src-1"] = &domain.Source{
		ID:                "src-1",
		TenantID:          "acme",
		Type:              domain.SourceTypeURL,
		Value:             "https://old.example.com",
		EmbeddingProvider: domain.ProviderLocalModel,
		IngestStatus:      domain.IngestStatusReady,
	}
	ingestor := newFakeIngestor()
	router := newTestRouter(repo, ingestor)

	rec := doRequest(t, router, http.MethodPut, "/sources/src-1", "acme", UpdateSourceRequest{
		Value: "https://new.example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SourceResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "https://new.example.com", resp.Value)
	assert.Equal(t, "pending", resp.IngestStatus)

	ingestor.waitForCall(t)
	assert.Equal(t, []string{"update"}, ingestor.reasons)
}

func TestSourceHandler_Delete(t *testing.T) {
	repo := newFakeSourceRepo()
	repo.sources["src-1"] = &domain.Source{ID: "src-1", TenantID: "acme"}
	router := newTestRouter(repo, newFakeIngestor())

	rec := doRequest(t, router, http.MethodDelete, "/sources/src-1", "acme", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.sources)
}

func TestSourceHandler_IngestNow(t *testing.T) {
	repo := newFakeSourceRepo()
	repo.sources["src-1"] = &domain.Source{
		ID:           "src-1",
		TenantID:     "acme",
		IngestStatus: domain.IngestStatusReady,
	}
	ingestor := newFakeIngestor()
	router := newTestRouter(repo, ingestor)

	rec := doRequest(t, router, http.MethodPost, "/sources/src-1/ingest", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"src-1"}, ingestor.calls)
	assert.Equal(t, []string{"manual"}, ingestor.reasons)
}

func TestSourceHandler_History(t *testing.T) {
	repo := newFakeSourceRepo()
	repo.sources["src-1"] = &domain.Source{ID: "src-1", TenantID: "acme"}
	repo.history["src-1"] = []*domain.IngestHistoryEntry{
		{ID: 2, SourceID: "src-1", Status: domain.IngestStatusReady, TriggeredAt: time.Now()},
		{ID: 1, SourceID: "src-1", Status: domain.IngestStatusProcessing, Detail: "manual", TriggeredAt: time.Now()},
	}
	router := newTestRouter(repo, newFakeIngestor())

	rec := doRequest(t, router, http.MethodGet, "/sources/src-1/history", "acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []*HistoryEntryResponse
	decodeData(t, rec, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, "ready", resp[0].Status)
	assert.Equal(t, "manual", resp[1].Detail)
}
