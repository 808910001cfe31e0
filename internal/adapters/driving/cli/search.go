package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driving"
	"github.com/campus-labs/lectern/internal/core/services"
)

var (
	searchTopK      int
	searchThreshold float64
	searchProvider  string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve the most relevant chunks for a question",
	Long: `Embeds the query and ranks stored chunks by cosine similarity.
Results below the similarity threshold are excluded. If the vector
backend is unreachable the command reports an ungrounded result
instead of failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score")
	searchCmd.Flags().StringVarP(&searchProvider, "provider", "p", "", "embedding provider: gemini, ollama or openai")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	provider, err := resolveProvider(searchProvider)
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

	svc := services.NewRetriever(docStore, vectorIndex, embedder, provider)

	threshold := searchThreshold
	if threshold == 0 {
		threshold = configStore.GetFloat("retrieval.similarity_threshold")
	}

	opts := driving.RetrieveOptions{
		TopK:                resolveInt(searchTopK, "retrieval.top_k"),
		SimilarityThreshold: threshold,
		Provider:            provider,
	}

	retrieval, err := svc.Retrieve(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if searchJSON {
		return outputRetrievalJSON(cmd, retrieval)
	}
	return outputRetrievalTable(cmd, retrieval)
}

// retrievalOutput is the stable JSON shape for scripting consumers.
type retrievalOutput struct {
	Results  []resultOutput `json:"results"`
	Degraded bool           `json:"degraded"`
	Error    string         `json:"error,omitempty"`
}

type resultOutput struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Content       string  `json:"content"`
	StartChar     int     `json:"start_char"`
	EndChar       int     `json:"end_char"`
	Score         float64 `json:"score"`
}

func outputRetrievalJSON(cmd *cobra.Command, retrieval *domain.Retrieval) error {
	out := retrievalOutput{
		Results:  make([]resultOutput, 0, len(retrieval.Results)),
		Degraded: retrieval.Degraded(),
	}
	if retrieval.Err != nil {
		out.Error = retrieval.Err.Error()
	}
	for _, r := range retrieval.Results {
		out.Results = append(out.Results, resultOutput{
			DocumentID:    r.Chunk.DocumentID,
			DocumentTitle: r.DocumentTitle,
			ChunkIndex:    r.Chunk.Index,
			Content:       r.Chunk.Content,
			StartChar:     r.Chunk.StartChar,
			EndChar:       r.Chunk.EndChar,
			Score:         r.Score,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrievalTable(cmd *cobra.Command, retrieval *domain.Retrieval) error {
	if retrieval.Degraded() {
		cmd.Printf("Warning: similarity backend unavailable (%v)\n", retrieval.Err)
		cmd.Println("Proceeding without grounding.")
		return nil
	}

	if len(retrieval.Results) == 0 {
		cmd.Println("No results above the similarity threshold.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range retrieval.Results {
		title := r.DocumentTitle
		if title == "" {
			title = r.Chunk.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, r.Score)
		cmd.Printf("      chunk %d, chars %d-%d\n", r.Chunk.Index, r.Chunk.StartChar, r.Chunk.EndChar)
		cmd.Printf("      %s\n", snippet(r.Chunk.Content, 160))
		cmd.Println()
	}
	return nil
}

// snippet truncates content for terminal display.
func snippet(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
