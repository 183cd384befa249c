package domain

import (
	"fmt"
	"time"
)

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available embedding providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Default settings values.
const (
	DefaultMinChunkSize        = 200
	DefaultMaxChunkSize        = 2000
	DefaultThresholdMultiplier = 1.0
	DefaultMaxTokens           = 4000
	DefaultReservedTokens      = 500
	DefaultCacheMaxEntries     = 10000
	DefaultCacheTTL            = 24 * time.Hour
	DefaultBatchSize           = 32
	DefaultMaxRetries          = 3
	DefaultProviderTimeout     = 30 * time.Second
	DefaultMaxConcurrency      = 4
	DefaultRequestsPerSecond   = 8.0
)

// DefaultRetryDelays is the default per-attempt backoff schedule.
// The last delay repeats for attempts beyond the schedule length.
var DefaultRetryDelays = []time.Duration{
	200 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// ChunkingSettings configures semantic boundary detection.
type ChunkingSettings struct {
	// MinChunkSize is the minimum chunk length in characters.
	// Shorter chunks are merged into a neighbour in Pass 2.
	MinChunkSize int

	// MaxChunkSize is the maximum chunk length in characters.
	// Longer chunks are force-split in Pass 2.
	MaxChunkSize int

	// ThresholdMultiplier is the standard-deviation multiplier for the
	// adaptive boundary cutoff.
	ThresholdMultiplier float64
}

// ContextSettings configures context window fitting.
type ContextSettings struct {
	// CharsPerToken is the token estimation ratio.
	CharsPerToken int

	// MaxTokens is the default context window budget.
	MaxTokens int

	// ReservedTokens is the default budget reserved for the prompt frame.
	ReservedTokens int
}

// CacheSettings configures the embedding cache.
type CacheSettings struct {
	// Enabled toggles caching. When false every lookup is a miss.
	Enabled bool

	// MaxEntries is the cache capacity. Least-recently-used entries are
	// evicted once the capacity is exceeded.
	MaxEntries int

	// TTL is the time-to-live for entries. Older entries are treated
	// as absent.
	TTL time.Duration
}

// ProviderSettings configures the remote embedding provider.
type ProviderSettings struct {
	// Kind selects the provider adapter.
	Kind AIProvider

	// BaseURL is the provider API base URL. Empty uses the adapter default.
	BaseURL string

	// Model is the embedding model identifier.
	Model string

	// APIKey authenticates cloud providers.
	APIKey string

	// BatchSize caps how many texts are sent in one remote request.
	BatchSize int

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// RetryDelays is the per-attempt backoff schedule. The last entry
	// repeats for attempts beyond the schedule length.
	RetryDelays []time.Duration

	// Timeout bounds each remote request.
	Timeout time.Duration

	// MaxConcurrency bounds in-flight remote requests per batch call.
	MaxConcurrency int

	// RequestsPerSecond is the sustained provider request rate.
	RequestsPerSecond float64
}

// Settings is the root configuration for the retrieval context pipeline.
type Settings struct {
	Chunking ChunkingSettings
	Context  ContextSettings
	Cache    CacheSettings
	Provider ProviderSettings
}

// DefaultSettings returns settings with documented defaults for every field.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			MinChunkSize:        DefaultMinChunkSize,
			MaxChunkSize:        DefaultMaxChunkSize,
			ThresholdMultiplier: DefaultThresholdMultiplier,
		},
		Context: ContextSettings{
			CharsPerToken:  DefaultCharsPerToken,
			MaxTokens:      DefaultMaxTokens,
			ReservedTokens: DefaultReservedTokens,
		},
		Cache: CacheSettings{
			Enabled:    true,
			MaxEntries: DefaultCacheMaxEntries,
			TTL:        DefaultCacheTTL,
		},
		Provider: ProviderSettings{
			Kind:              AIProviderOllama,
			BatchSize:         DefaultBatchSize,
			MaxRetries:        DefaultMaxRetries,
			RetryDelays:       DefaultRetryDelays,
			Timeout:           DefaultProviderTimeout,
			MaxConcurrency:    DefaultMaxConcurrency,
			RequestsPerSecond: DefaultRequestsPerSecond,
		},
	}
}

// Validate rejects invalid bounds. Invalid settings are never silently
// clamped; construction fails instead.
func (s Settings) Validate() error {
	if s.Chunking.MinChunkSize <= 0 {
		return fmt.Errorf("%w: min chunk size must be positive", ErrInvalidInput)
	}
	if s.Chunking.MaxChunkSize < s.Chunking.MinChunkSize {
		return fmt.Errorf("%w: max chunk size must be >= min chunk size", ErrInvalidInput)
	}
	if s.Chunking.ThresholdMultiplier < 0 {
		return fmt.Errorf("%w: threshold multiplier must be non-negative", ErrInvalidInput)
	}
	if s.Context.CharsPerToken <= 0 {
		return fmt.Errorf("%w: chars per token must be positive", ErrInvalidInput)
	}
	if s.Context.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive", ErrInvalidInput)
	}
	if s.Context.ReservedTokens < 0 {
		return fmt.Errorf("%w: reserved tokens must be non-negative", ErrInvalidInput)
	}
	if s.Cache.Enabled {
		if s.Cache.MaxEntries <= 0 {
			return fmt.Errorf("%w: cache max entries must be positive", ErrInvalidInput)
		}
		if s.Cache.TTL <= 0 {
			return fmt.Errorf("%w: cache ttl must be positive", ErrInvalidInput)
		}
	}
	if !s.Provider.Kind.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, s.Provider.Kind)
	}
	if s.Provider.BatchSize <= 0 {
		return fmt.Errorf("%w: provider batch size must be positive", ErrInvalidInput)
	}
	if s.Provider.MaxRetries < 0 {
		return fmt.Errorf("%w: provider max retries must be non-negative", ErrInvalidInput)
	}
	for _, d := range s.Provider.RetryDelays {
		if d < 0 {
			return fmt.Errorf("%w: retry delays must be non-negative", ErrInvalidInput)
		}
	}
	if s.Provider.Timeout <= 0 {
		return fmt.Errorf("%w: provider timeout must be positive", ErrInvalidInput)
	}
	if s.Provider.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: provider max concurrency must be positive", ErrInvalidInput)
	}
	if s.Provider.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: provider requests per second must be positive", ErrInvalidInput)
	}
	return nil
}
