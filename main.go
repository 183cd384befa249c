// Command ragctx assembles retrieval context for LLM prompts: it chunks
// documents at semantic boundaries, resolves embeddings with caching and
// batching, and fits ranked results into a token budget.
package main

import (
	"fmt"
	"os"

	cachesqlite "github.com/custodia-labs/ragctx-cli/internal/adapters/driven/cache/sqlite"
	"github.com/custodia-labs/ragctx-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragctx-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/ragctx-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragctx-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragctx-cli/internal/core/services"
	"github.com/custodia-labs/ragctx-cli/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	store, err := file.NewSettingsStore("")
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}

	settings, err := store.Load()
	if err != nil {
		return err
	}

	svc := &cli.Services{Settings: store}

	fitter, err := services.NewContextFitter(settings)
	if err != nil {
		return err
	}
	svc.Context = fitter

	// Embedding-backed services are optional at startup: a provider that
	// cannot be constructed (e.g. missing API key) leaves the chunk and
	// embed commands unconfigured while settings and fit keep working.
	cleanup, err := wireEmbedding(settings, svc)
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
	} else {
		defer cleanup()
	}

	cli.SetServices(svc)
	return cli.Execute()
}

// wireEmbedding builds the provider, cache, embedder and chunker, and
// returns a cleanup releasing their resources.
func wireEmbedding(settings domain.Settings, svc *cli.Services) (func(), error) {
	provider, err := buildProvider(settings.Provider)
	if err != nil {
		return nil, err
	}

	var cache driven.EmbeddingCache
	if settings.Cache.Enabled {
		cache, err = cachesqlite.NewCache(cachesqlite.Config{
			MaxEntries: settings.Cache.MaxEntries,
			TTL:        settings.Cache.TTL,
		})
		if err != nil {
			provider.Close() //nolint:errcheck
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
	}

	cleanup := func() {
		if cache != nil {
			cache.Close() //nolint:errcheck
		}
		provider.Close() //nolint:errcheck
	}

	embedder, err := services.NewEmbedder(provider, cache, settings)
	if err != nil {
		cleanup()
		return nil, err
	}

	chunker, err := services.NewSemanticChunker(embedder, settings)
	if err != nil {
		cleanup()
		return nil, err
	}

	svc.Embedding = embedder
	svc.Chunking = chunker
	return cleanup, nil
}

// buildProvider constructs the embedding provider adapter selected by the
// settings.
func buildProvider(p domain.ProviderSettings) (driven.EmbeddingProvider, error) {
	switch p.Kind {
	case domain.AIProviderOpenAI:
		return openai.NewEmbeddingProvider(openai.Config{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: p.Timeout,
		})
	case domain.AIProviderOllama:
		return ollama.NewEmbeddingProvider(ollama.Config{
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: p.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Kind)
	}
}
