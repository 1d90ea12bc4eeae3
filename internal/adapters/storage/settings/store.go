package settings

import (
	"context"

	domain "meetdesk/internal/domain/settings"
)

// Store persists the settings singleton.
type Store interface {
	// Get returns the stored settings, or domain.Default() when none were saved.
	Get(ctx context.Context) (domain.Settings, error)
	// Save replaces the settings row.
	// PRE: s has been validated
	Save(ctx context.Context, s domain.Settings) error
}
