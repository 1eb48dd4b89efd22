package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		raw      string
		fallback EmbeddingProvider
		want     EmbeddingProvider
	}{
		{"local-model", ProviderCloudModel, ProviderLocalModel},
		{"cloud-model", ProviderLocalModel, ProviderCloudModel},
		{"CLOUD", ProviderLocalModel, ProviderCloudModel},
		{"my-local-llm", ProviderCloudModel, ProviderLocalModel},
		{"gemini-cloud", ProviderLocalModel, ProviderCloudModel},
		{"", ProviderLocalModel, ProviderLocalModel},
		{"openai", ProviderCloudModel, ProviderCloudModel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeProvider(tt.raw, tt.fallback), "raw=%q", tt.raw)
	}
}
