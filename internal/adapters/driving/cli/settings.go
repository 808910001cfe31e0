package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/campus-labs/lectern/internal/adapters/driven/ai"
	"github.com/campus-labs/lectern/internal/chunker"
	"github.com/campus-labs/lectern/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, chunking parameters and
retrieval defaults. Settings persist in the config file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key. Keys:

  embedding.provider              gemini, ollama or openai
  embedding.api_key               API key for hosted providers
  embedding.base_url              provider endpoint override
  embedding.model                 embedding model override
  ingestion.max_chunk_chars       chunk size bound
  ingestion.overlap_chars         chunk overlap
  ingestion.concurrency           parallel embedding calls
  ingestion.embed_rate_per_sec    embedding request pacing
  retrieval.top_k                 maximum results returned
  retrieval.similarity_threshold  minimum similarity score
  vector.backend                  sqlite (default) or qdrant
  vector.host                     Qdrant host
  vector.port                     Qdrant gRPC port`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	provider := configStore.GetString("embedding.provider")
	if provider == "" {
		provider = domain.ProviderOllama.String() + " (default)"
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", provider)
	if model := configStore.GetString("embedding.model"); model != "" {
		cmd.Printf("  Model: %s\n", model)
	}
	if baseURL := configStore.GetString("embedding.base_url"); baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if apiKey := configStore.GetString("embedding.api_key"); apiKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
	}
	cmd.Println()

	cmd.Println("[Ingestion]")
	cmd.Printf("  Max chunk chars: %s\n", orDefault(configStore.GetInt("ingestion.max_chunk_chars"), chunker.DefaultMaxChars))
	cmd.Printf("  Overlap chars: %s\n", orDefault(configStore.GetInt("ingestion.overlap_chars"), chunker.DefaultOverlapChars))
	cmd.Printf("  Concurrency: %s\n", orDefault(configStore.GetInt("ingestion.concurrency"), domain.DefaultIngestionConcurrency))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %s\n", orDefault(configStore.GetInt("retrieval.top_k"), domain.DefaultTopK))
	threshold := configStore.GetFloat("retrieval.similarity_threshold")
	if threshold == 0 {
		cmd.Printf("  Similarity threshold: %.2f (default)\n", domain.DefaultSimilarityThreshold)
	} else {
		cmd.Printf("  Similarity threshold: %.2f\n", threshold)
	}
	cmd.Println()

	cmd.Println("[Vector]")
	backend := configStore.GetString("vector.backend")
	if backend == "" {
		backend = "sqlite (default)"
	}
	cmd.Printf("  Backend: %s\n", backend)
	cmd.Println()

	cmd.Printf("Config file: %s\n", configStore.Path())
	cmd.Printf("Available providers: %v\n", ai.Providers())
	return nil
}

func runSettingsSet(_ *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Validate provider names up front so a typo surfaces here, not
	// at the next ingest.
	if key == "embedding.provider" {
		if !domain.EmbeddingProvider(value).IsValid() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, value)
		}
	}

	// Store numerics as numbers so typed getters work
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return configStore.Set(key, i)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return configStore.Set(key, f)
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return configStore.Set(key, b)
	}
	return configStore.Set(key, value)
}

// maskAPIKey shows only the last four characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// orDefault renders a configured integer or its fallback.
func orDefault(configured, fallback int) string {
	if configured > 0 {
		return strconv.Itoa(configured)
	}
	return fmt.Sprintf("%d (default)", fallback)
}
