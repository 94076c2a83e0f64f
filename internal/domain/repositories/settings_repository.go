package repositories

import (
	"context"

	"p2p-ramp.backend/internal/domain/entities"
)

// SettingsRepository persists the settings history; the highest version wins.
type SettingsRepository interface {
	GetLatest(ctx context.Context) (*entities.Settings, error)
	// Insert stores s.Version; ErrAlreadyExists if that version is taken.
	Insert(ctx context.Context, s *entities.Settings) error
}
