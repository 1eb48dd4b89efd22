package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/canopy-labs/knowledgebot/internal/api"
	"github.com/canopy-labs/knowledgebot/internal/api/middleware"
	"github.com/canopy-labs/knowledgebot/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SourceRepo interface {
	Create(ctx context.Context, s *domain.Source) error
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.Source, error)
	Update(ctx context.Context, s *domain.Source) error
	Delete(ctx context.Context, id string) error
	ListHistory(ctx context.Context, sourceID string, limit int) ([]*domain.IngestHistoryEntry, error)
}

type Ingestor interface {
	Ingest(ctx context.Context, sourceID, reason string) error
}

type SourceHandler struct {
	repo            SourceRepo
	ingestor        Ingestor
	defaultProvider domain.EmbeddingProvider
}

func NewSourceHandler(repo SourceRepo, ingestor Ingestor, defaultProvider domain.EmbeddingProvider) *SourceHandler {
	return &SourceHandler{repo: repo, ingestor: ingestor, defaultProvider: defaultProvider}
}

type CreateSourceRequest struct {
	Type              string            `json:"type"`
	Value             string            `json:"value"`
	EmbeddingProvider string            `json:"embedding_provider"`
	Metadata          map[string]string `json:"metadata"`
}

type UpdateSourceRequest struct {
	Value             string            `json:"value"`
	EmbeddingProvider string            `json:"embedding_provider"`
	Metadata          map[string]string `json:"metadata"`
}

type SourceResponse struct {
	ID                string            `json:"id"`
	TenantID          string            `json:"tenant_id"`
	Type              string            `json:"type"`
	Value             string            `json:"value"`
	EmbeddingProvider string            `json:"embedding_provider"`
	Metadata          map[string]string `json:"metadata"`
	IngestStatus      string            `json:"ingest_status"`
	IngestError       *string           `json:"ingest_error,omitempty"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
	LastTriggeredAt   *string           `json:"last_triggered_at,omitempty"`
	LastIngestAt      *string           `json:"last_ingest_at,omitempty"`
}

func sourceToResponse(s *domain.Source) *SourceResponse {
	return &SourceResponse{
		ID:                s.ID,
		TenantID:          s.TenantID,
		Type:              string(s.Type),
		Value:             s.Value,
		EmbeddingProvider: string(s.EmbeddingProvider),
		Metadata:          s.Metadata,
		IngestStatus:      string(s.IngestStatus),
		IngestError:       s.IngestError,
		CreatedAt:         s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
		LastTriggeredAt:   formatTimePtr(s.LastTriggeredAt),
		LastIngestAt:      formatTimePtr(s.LastIngestAt),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type == "" {
		api.Error(w, http.StatusBadRequest, "type is required")
		return
	}
	if req.Value == "" {
		api.Error(w, http.StatusBadRequest, "value is required")
		return
	}

	now := time.Now().UTC()
	src := &domain.Source{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		Type:              domain.SourceType(req.Type),
		Value:             req.Value,
		EmbeddingProvider: domain.NormalizeProvider(req.EmbeddingProvider, h.defaultProvider),
		Metadata:          req.Metadata,
		IngestStatus:      domain.IngestStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := domain.ValidateSource(src); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), src); err != nil {
		api.HandleError(w, err)
		return
	}

	h.triggerIngest(r.Context(), src.ID, "create")

	api.Success(w, http.StatusCreated, sourceToResponse(src))
}

func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	src, ok := h.tenantSource(w, r)
	if !ok {
		return
	}
	api.Success(w, http.StatusOK, sourceToResponse(src))
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())

	sources, err := h.repo.ListByTenant(r.Context(), tenantID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*SourceResponse, len(sources))
	for i, s := range sources {
		responses[i] = sourceToResponse(s)
	}
	api.Success(w, http.StatusOK, responses)
}

func (h *SourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	src, ok := h.tenantSource(w, r)
	if !ok {
		return
	}

	var req UpdateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Value != "" {
		src.Value = req.Value
	}
	if req.EmbeddingProvider != "" {
		src.EmbeddingProvider = domain.NormalizeProvider(req.EmbeddingProvider, h.defaultProvider)
	}
	if req.Metadata != nil {
		src.Metadata = req.Metadata
	}
	src.IngestStatus = domain.IngestStatusPending

	if err := h.repo.Update(r.Context(), src); err != nil {
		api.HandleError(w, err)
		return
	}

	h.triggerIngest(r.Context(), src.ID, "update")

	api.Success(w, http.StatusOK, sourceToResponse(src))
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	src, ok := h.tenantSource(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), src.ID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

// IngestNow runs the ingest pipeline synchronously and returns the resulting
// source state.
func (h *SourceHandler) IngestNow(w http.ResponseWriter, r *http.Request) {
	src, ok := h.tenantSource(w, r)
	if !ok {
		return
	}

	if err := h.ingestor.Ingest(r.Context(), src.ID, "manual"); err != nil {
		api.HandleError(w, err)
		return
	}

	updated, err := h.repo.GetByID(r.Context(), src.ID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, sourceToResponse(updated))
}

type HistoryEntryResponse struct {
	ID          int64  `json:"id"`
	SourceID    string `json:"source_id"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

func (h *SourceHandler) History(w http.ResponseWriter, r *http.Request) {
	src, ok := h.tenantSource(w, r)
	if !ok {
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.repo.ListHistory(r.Context(), src.ID, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*HistoryEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = &HistoryEntryResponse{
			ID:          e.ID,
			SourceID:    e.SourceID,
			Status:      string(e.Status),
			Detail:      e.Detail,
			TriggeredAt: e.TriggeredAt.Format(time.RFC3339),
		}
	}
	api.Success(w, http.StatusOK, responses)
}

// tenantSource loads the source from the URL and enforces tenant scoping.
// A source belonging to another tenant reads as not found.
func (h *SourceHandler) tenantSource(w http.ResponseWriter, r *http.Request) (*domain.Source, bool) {
	tenantID := middleware.GetTenantID(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return nil, false
	}

	src, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return nil, false
	}
	if src.TenantID != tenantID {
		api.Error(w, http.StatusNotFound, domain.ErrSourceNotFound.Message)
		return nil, false
	}
	return src, true
}

func (h *SourceHandler) triggerIngest(ctx context.Context, sourceID, reason string) {
	go func() {
		if err := h.ingestor.Ingest(context.WithoutCancel(ctx), sourceID, reason); err != nil {
			log.Printf("background ingest failed source=%s reason=%s: %v", sourceID, reason, err)
		}
	}()
}
