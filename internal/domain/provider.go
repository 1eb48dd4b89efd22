package domain

import "strings"

// EmbeddingProvider selects the backend that turns chunk text into vectors.
type EmbeddingProvider string

const (
	ProviderLocalModel EmbeddingProvider = "local-model"
	ProviderCloudModel EmbeddingProvider = "cloud-model"
)

// NormalizeProvider maps an arbitrary provider string onto the closed
// provider set. Strings mentioning "cloud" select the cloud backend, strings
// mentioning "local" the local one; anything else falls back to the supplied
// default. Normalization happens once, at source create/update, so the rest
// of the pipeline only ever sees a valid value.
func NormalizeProvider(raw string, fallback EmbeddingProvider) EmbeddingProvider {
	switch {
	case strings.Contains(strings.ToLower(raw), "cloud"):
		return ProviderCloudModel
	case strings.Contains(strings.ToLower(raw), "local"):
		return ProviderLocalModel
	default:
		return fallback
	}
}

// isValidEmbeddingProvider checks if an EmbeddingProvider is valid
func isValidEmbeddingProvider(p EmbeddingProvider) bool {
	switch p {
	case ProviderLocalModel, ProviderCloudModel:
		return true
	}
	return false
}
