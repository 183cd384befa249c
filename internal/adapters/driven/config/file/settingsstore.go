// Package file provides a TOML-backed settings store in the ragctx
// config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is a file-based implementation of driven.SettingsStore
// using TOML. Settings are stored as a typed document; fields absent from
// the file keep their defaults.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// settingsFile is the on-disk TOML layout. Durations are written as
// strings in time.ParseDuration syntax ("30s", "24h").
type settingsFile struct {
	Chunking struct {
		MinChunkSize        int     `toml:"min_chunk_size"`
		MaxChunkSize        int     `toml:"max_chunk_size"`
		ThresholdMultiplier float64 `toml:"threshold_multiplier"`
	} `toml:"chunking"`

	Context struct {
		CharsPerToken  int `toml:"chars_per_token"`
		MaxTokens      int `toml:"max_tokens"`
		ReservedTokens int `toml:"reserved_tokens"`
	} `toml:"context"`

	Cache struct {
		Enabled    *bool  `toml:"enabled"`
		MaxEntries int    `toml:"max_entries"`
		TTL        string `toml:"ttl"`
	} `toml:"cache"`

	Provider struct {
		Kind              string   `toml:"kind"`
		BaseURL           string   `toml:"base_url"`
		Model             string   `toml:"model"`
		APIKey            string   `toml:"api_key"`
		BatchSize         int      `toml:"batch_size"`
		MaxRetries        *int     `toml:"max_retries"`
		RetryDelays       []string `toml:"retry_delays"`
		Timeout           string   `toml:"timeout"`
		MaxConcurrency    int      `toml:"max_concurrency"`
		RequestsPerSecond float64  `toml:"requests_per_second"`
	} `toml:"provider"`
}

// NewSettingsStore creates a new TOML-based settings store.
// If configDir is empty, defaults to ~/.ragctx/config.toml.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".ragctx")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads settings from disk. A missing file yields defaults; fields
// absent from the file keep their defaults. Loaded settings are validated
// before being returned.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet - that's fine, use defaults
			return settings, nil
		}
		return domain.Settings{}, fmt.Errorf("reading config file: %w", err)
	}

	var f settingsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return domain.Settings{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyFile(&settings, f); err != nil {
		return domain.Settings{}, err
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("config file %s: %w", s.filePath, err)
	}
	return settings, nil
}

// Save persists the settings with restricted permissions.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(toFile(settings))
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// applyFile overlays non-empty file fields onto the defaults.
func applyFile(settings *domain.Settings, f settingsFile) error {
	if f.Chunking.MinChunkSize != 0 {
		settings.Chunking.MinChunkSize = f.Chunking.MinChunkSize
	}
	if f.Chunking.MaxChunkSize != 0 {
		settings.Chunking.MaxChunkSize = f.Chunking.MaxChunkSize
	}
	if f.Chunking.ThresholdMultiplier != 0 {
		settings.Chunking.ThresholdMultiplier = f.Chunking.ThresholdMultiplier
	}

	if f.Context.CharsPerToken != 0 {
		settings.Context.CharsPerToken = f.Context.CharsPerToken
	}
	if f.Context.MaxTokens != 0 {
		settings.Context.MaxTokens = f.Context.MaxTokens
	}
	if f.Context.ReservedTokens != 0 {
		settings.Context.ReservedTokens = f.Context.ReservedTokens
	}

	if f.Cache.Enabled != nil {
		settings.Cache.Enabled = *f.Cache.Enabled
	}
	if f.Cache.MaxEntries != 0 {
		settings.Cache.MaxEntries = f.Cache.MaxEntries
	}
	if f.Cache.TTL != "" {
		ttl, err := time.ParseDuration(f.Cache.TTL)
		if err != nil {
			return fmt.Errorf("parsing cache ttl: %w", err)
		}
		settings.Cache.TTL = ttl
	}

	if f.Provider.Kind != "" {
		settings.Provider.Kind = domain.AIProvider(f.Provider.Kind)
	}
	if f.Provider.BaseURL != "" {
		settings.Provider.BaseURL = f.Provider.BaseURL
	}
	if f.Provider.Model != "" {
		settings.Provider.Model = f.Provider.Model
	}
	if f.Provider.APIKey != "" {
		settings.Provider.APIKey = f.Provider.APIKey
	}
	if f.Provider.BatchSize != 0 {
		settings.Provider.BatchSize = f.Provider.BatchSize
	}
	if f.Provider.MaxRetries != nil {
		settings.Provider.MaxRetries = *f.Provider.MaxRetries
	}
	if len(f.Provider.RetryDelays) > 0 {
		delays := make([]time.Duration, len(f.Provider.RetryDelays))
		for i, raw := range f.Provider.RetryDelays {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("parsing retry delay %q: %w", raw, err)
			}
			delays[i] = d
		}
		settings.Provider.RetryDelays = delays
	}
	if f.Provider.Timeout != "" {
		timeout, err := time.ParseDuration(f.Provider.Timeout)
		if err != nil {
			return fmt.Errorf("parsing provider timeout: %w", err)
		}
		settings.Provider.Timeout = timeout
	}
	if f.Provider.MaxConcurrency != 0 {
		settings.Provider.MaxConcurrency = f.Provider.MaxConcurrency
	}
	if f.Provider.RequestsPerSecond != 0 {
		settings.Provider.RequestsPerSecond = f.Provider.RequestsPerSecond
	}

	return nil
}

// toFile converts settings to the on-disk layout.
func toFile(settings domain.Settings) settingsFile {
	var f settingsFile

	f.Chunking.MinChunkSize = settings.Chunking.MinChunkSize
	f.Chunking.MaxChunkSize = settings.Chunking.MaxChunkSize
	f.Chunking.ThresholdMultiplier = settings.Chunking.ThresholdMultiplier

	f.Context.CharsPerToken = settings.Context.CharsPerToken
	f.Context.MaxTokens = settings.Context.MaxTokens
	f.Context.ReservedTokens = settings.Context.ReservedTokens

	enabled := settings.Cache.Enabled
	f.Cache.Enabled = &enabled
	f.Cache.MaxEntries = settings.Cache.MaxEntries
	f.Cache.TTL = settings.Cache.TTL.String()

	f.Provider.Kind = settings.Provider.Kind.String()
	f.Provider.BaseURL = settings.Provider.BaseURL
	f.Provider.Model = settings.Provider.Model
	f.Provider.APIKey = settings.Provider.APIKey
	f.Provider.BatchSize = settings.Provider.BatchSize
	retries := settings.Provider.MaxRetries
	f.Provider.MaxRetries = &retries
	f.Provider.RetryDelays = make([]string, len(settings.Provider.RetryDelays))
	for i, d := range settings.Provider.RetryDelays {
		f.Provider.RetryDelays[i] = d.String()
	}
	f.Provider.Timeout = settings.Provider.Timeout.String()
	f.Provider.MaxConcurrency = settings.Provider.MaxConcurrency
	f.Provider.RequestsPerSecond = settings.Provider.RequestsPerSecond

	return f
}
