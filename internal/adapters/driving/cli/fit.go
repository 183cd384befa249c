package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

var (
	fitJSON     bool
	fitMax      int
	fitReserved int
)

var fitCmd = &cobra.Command{
	Use:   "fit [file]",
	Short: "Fit ranked results into a token budget",
	Long: `Fits ranked retrieval results into a context window budget. Results
are included whole, best first, until the budget is exhausted.

The input is a JSON array of results, read from the file argument or
from stdin when the argument is omitted or "-":

  [{"id": "r1", "text": "...", "score": 0.9, "source": "docs"}, ...]`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFit,
}

func init() {
	fitCmd.Flags().BoolVar(&fitJSON, "json", false, "output fitted context as JSON")
	fitCmd.Flags().IntVar(&fitMax, "max-tokens", 0, "context window budget (0 = settings default)")
	fitCmd.Flags().IntVar(&fitReserved, "reserved-tokens", 0, "tokens reserved for the prompt frame (0 = settings default, negative = none)")
	rootCmd.AddCommand(fitCmd)
}

func runFit(cmd *cobra.Command, args []string) error {
	if contextService == nil {
		return errors.New("context service not configured")
	}

	results, err := readResults(args)
	if err != nil {
		return err
	}

	fitted := contextService.Fit(results, driving.FitOptions{
		MaxTokens:      fitMax,
		ReservedTokens: fitReserved,
	})

	if fitJSON {
		return outputFitJSON(cmd, fitted)
	}
	return outputFitSummary(cmd, fitted)
}

// readResults parses the JSON result array from the optional file argument.
// "-" or no argument reads stdin.
func readResults(args []string) ([]domain.SearchResult, error) {
	var data []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", args[0], err)
		}
	}

	var results []domain.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}
	return results, nil
}

func outputFitJSON(cmd *cobra.Command, fitted domain.FittedContext) error {
	data, err := json.MarshalIndent(fitted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fitted context: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputFitSummary(cmd *cobra.Command, fitted domain.FittedContext) error {
	cmd.Printf("Included %d results, excluded %d (used %d of %d tokens)\n",
		len(fitted.Results), fitted.ExcludedCount, fitted.TokensUsed, fitted.TokensAvailable)
	if fitted.Truncated {
		cmd.Println("Context was truncated to fit the budget.")
	}
	cmd.Println()
	for i := range fitted.Results {
		cmd.Printf("  [%d] %s", i+1, fitted.Results[i].ID)
		if fitted.Results[i].Source != "" {
			cmd.Printf(" (%s)", fitted.Results[i].Source)
		}
		cmd.Println()
		cmd.Printf("      %s\n", preview(fitted.Results[i].Text, 70))
	}
	return nil
}
