package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage ingested documents",
	RunE:    runDocumentsList,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if err := openStorage(cmd); err != nil {
		return err
	}
	defer closeStorage()

	docs, err := newDocuments().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for _, doc := range docs {
		cmd.Printf("  %s\n", doc.ID)
		cmd.Printf("      %s", doc.Title)
		if doc.CourseCode != "" {
			cmd.Printf("  (%s", doc.CourseCode)
			if doc.WeekNumber > 0 {
				cmd.Printf(", week %d", doc.WeekNumber)
			}
			cmd.Printf(")")
		}
		cmd.Println()
	}
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if err := openStorage(cmd); err != nil {
		return err
	}
	defer closeStorage()

	doc, err := newDocuments().Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	chunks, err := docStore.GetChunks(cmd.Context(), doc.ID)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}

	cmd.Printf("ID:          %s\n", doc.ID)
	cmd.Printf("Title:       %s\n", doc.Title)
	if doc.CourseCode != "" {
		cmd.Printf("Course:      %s\n", doc.CourseCode)
	}
	if doc.Topic != "" {
		cmd.Printf("Topic:       %s\n", doc.Topic)
	}
	if doc.WeekNumber > 0 {
		cmd.Printf("Week:        %d\n", doc.WeekNumber)
	}
	if len(doc.Tags) > 0 {
		cmd.Printf("Tags:        %v\n", doc.Tags)
	}
	if doc.FileMetadata.FileName != "" {
		cmd.Printf("File:        %s (%s, %d bytes)\n",
			doc.FileMetadata.FileName, doc.FileMetadata.ContentType, doc.FileMetadata.SizeBytes)
	}
	cmd.Printf("Chunks:      %d\n", len(chunks))
	if len(chunks) > 0 {
		cmd.Printf("Provider:    %s\n", chunks[0].Metadata.Provider)
	}
	cmd.Printf("Ingested:    %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if err := openStorage(cmd); err != nil {
		return err
	}
	defer closeStorage()

	if err := newDocuments().Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
