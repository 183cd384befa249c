package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, context, cache and provider settings.

Use subcommands to configure specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsProviderCmd = &cobra.Command{
	Use:   "provider",
	Short: "Configure the embedding provider",
	Long:  `Configure the embedding provider used for semantic chunking and embedding.`,
	RunE:  runSettingsProvider,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsStore == nil {
			return errors.New("settings store not configured")
		}
		cmd.Println(settingsStore.Path())
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsProviderCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return errors.New("settings store not configured")
	}

	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Min chunk size: %d chars\n", settings.Chunking.MinChunkSize)
	cmd.Printf("  Max chunk size: %d chars\n", settings.Chunking.MaxChunkSize)
	cmd.Printf("  Threshold multiplier: %.2f\n", settings.Chunking.ThresholdMultiplier)
	cmd.Println()

	cmd.Println("[Context]")
	cmd.Printf("  Chars per token: %d\n", settings.Context.CharsPerToken)
	cmd.Printf("  Max tokens: %d\n", settings.Context.MaxTokens)
	cmd.Printf("  Reserved tokens: %d\n", settings.Context.ReservedTokens)
	cmd.Println()

	cmd.Println("[Cache]")
	if settings.Cache.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  Max entries: %d\n", settings.Cache.MaxEntries)
		cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	cmd.Println("[Provider]")
	cmd.Printf("  Kind: %s\n", settings.Provider.Kind)
	if settings.Provider.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Provider.Model)
	}
	if settings.Provider.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Provider.BaseURL)
	}
	if settings.Provider.Kind.RequiresAPIKey() {
		if settings.Provider.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Provider.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Batch size: %d\n", settings.Provider.BatchSize)
	cmd.Printf("  Max retries: %d\n", settings.Provider.MaxRetries)
	cmd.Printf("  Max concurrency: %d\n", settings.Provider.MaxConcurrency)
	cmd.Printf("  Requests per second: %.1f\n", settings.Provider.RequestsPerSecond)

	return nil
}

func runSettingsProvider(cmd *cobra.Command, _ []string) error {
	if settingsStore == nil {
		return errors.New("settings store not configured")
	}

	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Embedding Provider")
	providers := []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI}
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p)
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selected := providers[idx-1]

	cmd.Printf("Enter model name [%s]: ", "provider default")
	model := readLine(reader)

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	settings.Provider.Kind = selected
	settings.Provider.Model = model
	settings.Provider.APIKey = apiKey

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := settingsStore.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s\n", selected)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
