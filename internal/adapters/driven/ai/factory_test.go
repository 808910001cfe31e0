package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-labs/lectern/internal/core/domain"
)

func TestCreateEmbeddingService_Gemini(t *testing.T) {
	svc, err := CreateEmbeddingService(EmbeddingSettings{
		Provider: domain.ProviderGemini,
		APIKey:   "test-key",
	})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "text-embedding-004", svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
}

func TestCreateEmbeddingService_Ollama(t *testing.T) {
	svc, err := CreateEmbeddingService(EmbeddingSettings{
		Provider: domain.ProviderOllama,
		Model:    "all-minilm",
	})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "all-minilm", svc.ModelName())
}

func TestCreateEmbeddingService_OpenAI_RequiresKey(t *testing.T) {
	_, err := CreateEmbeddingService(EmbeddingSettings{
		Provider: domain.ProviderOpenAI,
	})
	require.Error(t, err)
}

func TestCreateEmbeddingService_Unknown(t *testing.T) {
	_, err := CreateEmbeddingService(EmbeddingSettings{
		Provider: domain.EmbeddingProvider("cohere"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

func TestProviders(t *testing.T) {
	providers := Providers()
	assert.Len(t, providers, 3)
	assert.Contains(t, providers, domain.ProviderGemini)
	assert.Contains(t, providers, domain.ProviderOllama)
	assert.Contains(t, providers, domain.ProviderOpenAI)
}
