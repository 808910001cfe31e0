package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEmbeddingProvider_IsValid tests provider name validation
func TestEmbeddingProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider EmbeddingProvider
		valid    bool
	}{
		{ProviderGemini, true},
		{ProviderOllama, true},
		{ProviderOpenAI, true},
		{EmbeddingProvider(""), false},
		{EmbeddingProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
		})
	}
}

// TestEmbeddingProvider_RequiresAPIKey tests key requirements per provider
func TestEmbeddingProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, ProviderGemini.RequiresAPIKey())
	assert.True(t, ProviderOpenAI.RequiresAPIKey())
	assert.False(t, ProviderOllama.RequiresAPIKey())
}

// TestEmbeddingProvider_IsLocal tests local provider detection
func TestEmbeddingProvider_IsLocal(t *testing.T) {
	assert.True(t, ProviderOllama.IsLocal())
	assert.False(t, ProviderGemini.IsLocal())
	assert.False(t, ProviderOpenAI.IsLocal())
}
