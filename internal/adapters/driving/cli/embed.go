package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

var (
	embedJSON bool
	embedFile string
)

var embedCmd = &cobra.Command{
	Use:   "embed [text...]",
	Short: "Resolve embedding vectors for texts",
	Long: `Resolves embedding vectors for the given texts through the cache and
the configured provider. Identical texts are resolved once. Use --file to
read one text per line instead of passing arguments.`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedJSON, "json", false, "output vectors as JSON")
	embedCmd.Flags().StringVarP(&embedFile, "file", "f", "", "read texts from file, one per line")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	if embeddingService == nil {
		return errors.New("embedding service not configured")
	}

	texts := args
	if embedFile != "" {
		fileTexts, err := readLines(embedFile)
		if err != nil {
			return err
		}
		texts = append(texts, fileTexts...)
	}
	if len(texts) == 0 {
		return errors.New("no texts given")
	}

	requests := make([]driving.EmbedRequest, len(texts))
	for i, text := range texts {
		requests[i] = driving.EmbedRequest{ID: strconv.Itoa(i), Text: text}
	}

	batch, err := embeddingService.EmbedBatch(cmd.Context(), requests)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	if embedJSON {
		return outputEmbedJSON(cmd, batch)
	}
	return outputEmbedSummary(cmd, texts, batch)
}

// readLines reads non-empty lines from a file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

func outputEmbedJSON(cmd *cobra.Command, batch *driving.BatchResult) error {
	data, err := json.MarshalIndent(batch.Results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputEmbedSummary(cmd *cobra.Command, texts []string, batch *driving.BatchResult) error {
	dims := 0
	if len(batch.Results) > 0 {
		dims = len(batch.Results[0].Embedding)
	}

	cmd.Printf("Embedded %d texts (%d dimensions) in %s\n", len(texts), dims, batch.TotalTime)
	cmd.Printf("Cache: %d hits, %d misses\n", batch.CacheHits, batch.CacheMisses)
	if batch.Retries > 0 {
		cmd.Printf("Retries: %d\n", batch.Retries)
	}
	cmd.Println()
	for i := range batch.Results {
		origin := "provider"
		if batch.Results[i].FromCache {
			origin = "cache"
		}
		cmd.Printf("  [%d] %s (%s)\n", i+1, preview(texts[i], 60), origin)
	}
	return nil
}
