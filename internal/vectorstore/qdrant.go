package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/canopy-labs/knowledgebot/internal/domain"
)

// Client talks to a Qdrant instance over its REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Qdrant client. apiKey may be empty for unauthenticated
// instances.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// CollectionName derives the per-tenant collection name.
func CollectionName(tenantID string) string {
	return "tenant_" + tenantID
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// EnsureCollection creates the collection with the given vector size if it
// does not exist yet. An already existing collection is not an error.
func (c *Client) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	body := createCollectionRequest{Vectors: vectorParams{Size: vectorSize, Distance: "Cosine"}}

	status, detail, err := c.do(ctx, http.MethodPut, "/collections/"+name, body)
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStore, "failed to create collection", err)
	}
	if status == http.StatusConflict {
		return nil
	}
	if status < 200 || status >= 300 {
		if strings.Contains(detail, "already exists") {
			return nil
		}
		return domain.NewDomainError(domain.ErrCodeStore,
			fmt.Sprintf("vector store returned status %d creating collection %s: %s", status, name, detail))
	}
	return nil
}

type upsertPointsRequest struct {
	Points []point `json:"points"`
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// UpsertPoints writes the given points into the collection, waiting for the
// write to be applied before returning.
func (c *Client) UpsertPoints(ctx context.Context, name string, points []domain.EmbeddingPoint) error {
	if len(points) == 0 {
		return nil
	}

	body := upsertPointsRequest{Points: make([]point, 0, len(points))}
	for _, p := range points {
		body.Points = append(body.Points, point{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}

	status, detail, err := c.do(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true", body)
	if err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeStore, "failed to upsert points", err)
	}
	if status < 200 || status >= 300 {
		return domain.NewDomainError(domain.ErrCodeStore,
			fmt.Sprintf("vector store returned status %d upserting into %s: %s", status, name, detail))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, strings.TrimSpace(string(detail)), nil
}
