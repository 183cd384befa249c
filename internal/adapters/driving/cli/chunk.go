package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
)

var chunkJSON bool

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split a document into semantic chunks",
	Long: `Splits a document at semantic boundaries detected from embedding
similarity between adjacent sentences. Reads from the file argument,
or from stdin when the argument is omitted or "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	content, title, uri, err := readInput(args)
	if err != nil {
		return err
	}

	doc := &domain.Document{
		ID:      uuid.NewString(),
		URI:     uri,
		Title:   title,
		Content: content,
	}

	chunks, err := chunkingService.ChunkDocument(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if chunkJSON {
		return outputChunksJSON(cmd, chunks)
	}
	return outputChunksTable(cmd, chunks)
}

// readInput returns the document content plus title and URI metadata from
// the optional file argument. "-" or no argument reads stdin.
func readInput(args []string) (content, title, uri string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", "stdin", nil
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), filepath.Base(path), path, nil
}

func outputChunksJSON(cmd *cobra.Command, chunks []domain.Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChunksTable(cmd *cobra.Command, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		cmd.Println("No chunks produced.")
		return nil
	}

	cmd.Printf("Chunks: %d\n", len(chunks))
	cmd.Println()
	for i := range chunks {
		cmd.Printf("  [%d] units %d-%d, %d chars, ~%d tokens\n",
			chunks[i].Position+1, chunks[i].StartUnit, chunks[i].EndUnit,
			chunks[i].CharCount, chunks[i].TokenCount)
		cmd.Printf("      %s\n", preview(chunks[i].Content, 70))
		cmd.Println()
	}
	return nil
}

// preview returns the first n runes of text on a single line.
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = append(runes[:n], '…')
	}
	out := string(runes)
	for i := range out {
		if out[i] == '\n' {
			return out[:i] + "…"
		}
	}
	return out
}
