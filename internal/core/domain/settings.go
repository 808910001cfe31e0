package domain

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// ProviderGemini is the Google Generative Language API.
	ProviderGemini EmbeddingProvider = "gemini"

	// ProviderOllama is a local Ollama instance.
	ProviderOllama EmbeddingProvider = "ollama"

	// ProviderOpenAI is the OpenAI cloud API.
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == ProviderGemini || p == ProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p EmbeddingProvider) IsLocal() bool {
	return p == ProviderOllama
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Retrieval and ingestion defaults. All of these are configuration,
// overridable per call.
const (
	// DefaultTopK is the maximum number of ranked matches returned.
	DefaultTopK = 5

	// DefaultSimilarityThreshold excludes matches scoring below it.
	DefaultSimilarityThreshold = 0.5

	// DefaultIngestionConcurrency bounds parallel embedding calls
	// during one ingestion.
	DefaultIngestionConcurrency = 4

	// DefaultEmbedRatePerSec paces embedding requests to stay inside
	// provider rate limits.
	DefaultEmbedRatePerSec = 10
)
