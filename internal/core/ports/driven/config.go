package driven

import "github.com/custodia-labs/ragctx-cli/internal/core/domain"

// SettingsStore persists application settings.
type SettingsStore interface {
	// Load reads settings from the backing store. A missing store yields
	// defaults. Loaded settings are validated before being returned.
	Load() (domain.Settings, error)

	// Save persists the settings.
	Save(settings domain.Settings) error

	// Path returns the backing location for display purposes.
	Path() string
}
