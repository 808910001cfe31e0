package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driving"
	"github.com/campus-labs/lectern/internal/core/services"
	"github.com/campus-labs/lectern/internal/extract"
)

var (
	ingestTitle       string
	ingestCourse      string
	ingestTopic       string
	ingestWeek        int
	ingestTags        []string
	ingestProvider    string
	ingestMaxChars    int
	ingestOverlap     int
	ingestConcurrency int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a course document into the corpus",
	Long: `Reads a text file, splits it into overlapping chunks on sentence
boundaries, embeds each chunk and persists everything for retrieval.

A chunk that fails to embed is skipped and reported; the rest of the
document still lands.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (defaults to file name)")
	ingestCmd.Flags().StringVarP(&ingestCourse, "course", "c", "", "course code, e.g. CS-340")
	ingestCmd.Flags().StringVar(&ingestTopic, "topic", "", "subject area")
	ingestCmd.Flags().IntVarP(&ingestWeek, "week", "w", 0, "course week number")
	ingestCmd.Flags().StringSliceVar(&ingestTags, "tag", nil, "free-form label (repeatable)")
	ingestCmd.Flags().StringVarP(&ingestProvider, "provider", "p", "", "embedding provider: gemini, ollama or openai")
	ingestCmd.Flags().IntVar(&ingestMaxChars, "max-chars", 0, "chunk size bound in characters")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "chunk overlap in characters")
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 0, "parallel embedding calls")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}

	provider, err := resolveProvider(ingestProvider)
	if err != nil {
		return err
	}
	if err := openEmbedder(provider); err != nil {
		return err
	}
	defer closeEmbedder()

	if err := openStorage(cmd); err != nil {
		return err
	}
	defer closeStorage()

	title := ingestTitle
	if title == "" {
		title = extract.Title(path, content)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "text/plain"
	}

	doc := &domain.Document{
		Title:      title,
		CourseCode: ingestCourse,
		Topic:      ingestTopic,
		WeekNumber: ingestWeek,
		Tags:       ingestTags,
		Content:    extract.Text(path, content),
		FileURL:    path,
		FileMetadata: domain.FileMetadata{
			FileName:    filepath.Base(path),
			ContentType: contentType,
			SizeBytes:   info.Size(),
		},
	}

	svc := services.NewIngestor(docStore, vectorIndex, embedder, provider,
		configStore.GetFloat("ingestion.embed_rate_per_sec"))

	opts := driving.IngestOptions{
		MaxChunkChars: resolveInt(ingestMaxChars, "ingestion.max_chunk_chars"),
		OverlapChars:  resolveInt(ingestOverlap, "ingestion.overlap_chars"),
		Provider:      provider,
		Concurrency:   resolveInt(ingestConcurrency, "ingestion.concurrency"),
	}

	report, err := svc.Ingest(cmd.Context(), doc, opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %q as %s\n", doc.Title, report.DocumentID)
	cmd.Printf("Chunks: %d/%d persisted\n", report.Succeeded, report.ChunkCount)

	if report.Partial() {
		cmd.Println("\nSkipped chunks:")
		for _, outcome := range report.Outcomes {
			if !outcome.Succeeded() {
				cmd.Printf("  [%d] %v\n", outcome.Index, outcome.Err)
			}
		}
	}
	return nil
}

// resolveInt prefers the flag value, then the configured value, then
// leaves the zero for service-level defaults.
func resolveInt(flagValue int, configKey string) int {
	if flagValue > 0 {
		return flagValue
	}
	return configStore.GetInt(configKey)
}
