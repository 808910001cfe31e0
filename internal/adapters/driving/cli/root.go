// Package cli provides the command-line interface for Lectern.
// Commands are thin adapters: they parse flags, resolve configuration
// and delegate to the core services.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campus-labs/lectern/internal/adapters/driven/ai"
	configfile "github.com/campus-labs/lectern/internal/adapters/driven/config/file"
	"github.com/campus-labs/lectern/internal/adapters/driven/storage/qdrant"
	"github.com/campus-labs/lectern/internal/adapters/driven/storage/sqlite"
	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
	"github.com/campus-labs/lectern/internal/core/services"
	"github.com/campus-labs/lectern/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

// Shared services, wired lazily by the commands that need them.
var (
	configStore driven.ConfigStore
	docStore    *sqlite.Store
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Chunk, embed and retrieve course materials",
	Long: `Lectern ingests course documents into an embedded corpus and
retrieves the most relevant passages for a question, with citations
back to the exact character range they came from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		store, err := configfile.NewConfigStore(flagConfigDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		configStore = store
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.lectern)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.lectern/data)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStorage opens the document store and picks the vector backend.
// SQLite always holds documents and chunks; vectors live either in
// the same database or in Qdrant when configured.
func openStorage(cmd *cobra.Command) error {
	if docStore != nil {
		return nil
	}

	store, err := sqlite.NewStore(flagDataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	docStore = store
	logger.Debug("Opened store at %s", store.Path())

	if configStore.GetString("vector.backend") == "qdrant" {
		idx, err := qdrant.NewIndex(cmd.Context(), qdrant.Config{
			Host:       configStore.GetString("vector.host"),
			Port:       configStore.GetInt("vector.port"),
			Collection: configStore.GetString("vector.collection"),
			Dimensions: configStore.GetInt("embedding.dimensions"),
		})
		if err != nil {
			return fmt.Errorf("connect qdrant: %w", err)
		}
		vectorIndex = idx
		logger.Debug("Using Qdrant vector backend")
	} else {
		vectorIndex = store
	}
	return nil
}

// closeStorage releases storage handles after a command finishes.
func closeStorage() {
	if vectorIndex != nil && vectorIndex != driven.VectorIndex(docStore) {
		_ = vectorIndex.Close()
	}
	if docStore != nil {
		_ = docStore.Close()
		docStore = nil
	}
	vectorIndex = nil
}

// resolveProvider picks the embedding provider from the flag, falling
// back to configuration, then to Ollama as the no-key default.
func resolveProvider(flagValue string) (domain.EmbeddingProvider, error) {
	name := flagValue
	if name == "" {
		name = configStore.GetString("embedding.provider")
	}
	if name == "" {
		name = domain.ProviderOllama.String()
	}

	provider := domain.EmbeddingProvider(name)
	if !provider.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, name)
	}
	return provider, nil
}

// openEmbedder creates and validates the embedding service for the
// resolved provider.
func openEmbedder(provider domain.EmbeddingProvider) error {
	if embedder != nil {
		return nil
	}

	svc, err := ai.CreateAndValidateEmbeddingService(ai.EmbeddingSettings{
		Provider:   provider,
		APIKey:     configStore.GetString("embedding.api_key"),
		BaseURL:    configStore.GetString("embedding.base_url"),
		Model:      configStore.GetString("embedding.model"),
		Dimensions: configStore.GetInt("embedding.dimensions"),
	})
	if err != nil {
		return err
	}
	embedder = svc
	logger.Debug("Embedding provider %s ready (model %s, %d dims)",
		provider, svc.ModelName(), svc.Dimensions())
	return nil
}

// closeEmbedder releases the embedding service.
func closeEmbedder() {
	if embedder != nil {
		_ = embedder.Close()
		embedder = nil
	}
}

// newDocuments builds the document management service over the open
// storage handles.
func newDocuments() *services.Documents {
	return services.NewDocuments(docStore, vectorIndex)
}
