package embedding

import (
	"github.com/canopy-labs/knowledgebot/internal/domain"
)

// Factory resolves an Embedder for a requested provider. The cloud embedder
// may be nil when no API key is configured; requesting it then fails.
type Factory struct {
	local    Embedder
	cloud    Embedder
	fallback domain.EmbeddingProvider
}

// NewFactory creates a provider factory with the given default provider.
func NewFactory(local, cloud Embedder, fallback domain.EmbeddingProvider) *Factory {
	return &Factory{local: local, cloud: cloud, fallback: fallback}
}

// ForProvider returns the embedder for the given provider. Unknown values
// fall back to the configured default.
func (f *Factory) ForProvider(provider domain.EmbeddingProvider) (Embedder, error) {
	switch provider {
	case domain.ProviderLocalModel:
		return f.local, nil
	case domain.ProviderCloudModel:
		if f.cloud == nil {
			return nil, domain.ErrCloudProviderKeyMissing
		}
		return f.cloud, nil
	default:
		if f.fallback == domain.ProviderCloudModel && f.cloud != nil {
			return f.cloud, nil
		}
		return f.local, nil
	}
}
