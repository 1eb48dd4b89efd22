package domain

import (
	"fmt"
	"time"
)

// SourceType represents the kind of content a source points at.
type SourceType string

const (
	SourceTypeURL     SourceType = "url"
	SourceTypePDF     SourceType = "pdf"
	SourceTypeText    SourceType = "text"
	SourceTypeCSV     SourceType = "csv"
	SourceTypeSitemap SourceType = "sitemap"
)

// IngestStatus tracks where a source is in its ingestion lifecycle.
type IngestStatus string

const (
	IngestStatusPending    IngestStatus = "pending"
	IngestStatusProcessing IngestStatus = "processing"
	IngestStatusReady      IngestStatus = "ready"
	IngestStatusError      IngestStatus = "error"
)

// Recognized metadata keys. Metadata is an open map; these are the keys the
// pipeline itself reads.
const (
	MetaInternalCrawlDepth = "internalCrawlDepth"
	MetaExternalCrawlDepth = "externalCrawlDepth"
	MetaChunkSize          = "chunkSize"
	MetaChunkOverlap       = "chunkOverlap"
	MetaFilename           = "filename"
	MetaSourceLabel        = "source"
)

// Source is a registered piece of ingestible content. The meaning of Value
// depends on Type: a URL for url/pdf, raw text for text, and base64-encoded
// file content for csv.
type Source struct {
	ID                string
	TenantID          string
	Type              SourceType
	Value             string
	EmbeddingProvider EmbeddingProvider
	Metadata          map[string]string
	IngestStatus      IngestStatus
	IngestError       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastTriggeredAt   *time.Time
	LastIngestAt      *time.Time
}

// ValidateSource validates a Source instance.
func ValidateSource(s *Source) error {
	if s == nil {
		return fmt.Errorf("source cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("source ID is required")
	}

	if s.TenantID == "" {
		return fmt.Errorf("source TenantID is required")
	}

	if s.Value == "" {
		return fmt.Errorf("source Value is required")
	}

	if !isValidSourceType(s.Type) {
		return fmt.Errorf("source Type is invalid: %s", s.Type)
	}

	if !isValidEmbeddingProvider(s.EmbeddingProvider) {
		return fmt.Errorf("source EmbeddingProvider is invalid: %s", s.EmbeddingProvider)
	}

	if !isValidIngestStatus(s.IngestStatus) {
		return fmt.Errorf("source IngestStatus is invalid: %s", s.IngestStatus)
	}

	return nil
}

// isValidSourceType checks if a SourceType is valid
func isValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypeURL, SourceTypePDF, SourceTypeText, SourceTypeCSV, SourceTypeSitemap:
		return true
	}
	return false
}

// isValidIngestStatus checks if an IngestStatus is valid
func isValidIngestStatus(s IngestStatus) bool {
	switch s {
	case IngestStatusPending, IngestStatusProcessing, IngestStatusReady, IngestStatusError:
		return true
	}
	return false
}
