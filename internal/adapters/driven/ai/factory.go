// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/campus-labs/lectern/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/campus-labs/lectern/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/campus-labs/lectern/internal/adapters/driven/embedding/openai"
	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// EmbeddingSettings holds provider-independent embedding configuration.
// Credentials come from process configuration, never hardcoded.
type EmbeddingSettings struct {
	// Provider selects the backend by name.
	Provider domain.EmbeddingProvider

	// APIKey authenticates against hosted providers.
	APIKey string

	// BaseURL overrides the provider endpoint (local gateways, test doubles).
	BaseURL string

	// Model overrides the provider's default embedding model.
	Model string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// factoryFunc builds an embedding service from settings.
type factoryFunc func(EmbeddingSettings) (driven.EmbeddingService, error)

// factories is the provider registry, keyed by name. Selection happens
// by explicit name lookup, resolved once per call - never by runtime
// type inspection.
var factories = map[domain.EmbeddingProvider]factoryFunc{
	domain.ProviderGemini: func(s EmbeddingSettings) (driven.EmbeddingService, error) {
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})
	},
	domain.ProviderOllama: func(s EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		}), nil
	},
	domain.ProviderOpenAI: func(s EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})
	},
}

// CreateEmbeddingService creates the embedding service for the named provider.
func CreateEmbeddingService(settings EmbeddingSettings) (driven.EmbeddingService, error) {
	factory, ok := factories[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}

	svc, err := factory(settings)
	if err != nil {
		return nil, fmt.Errorf("create %s embedding service: %w", settings.Provider, err)
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity with a lightweight ping.
func CreateAndValidateEmbeddingService(settings EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%s embedding service unreachable: %w", settings.Provider, err)
	}

	return svc, nil
}

// Providers returns the registered provider names.
func Providers() []domain.EmbeddingProvider {
	names := make([]domain.EmbeddingProvider, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
