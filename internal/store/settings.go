package store

import (
	"context"
	"errors"

	"github.com/readtrack/readtrack-server/internal/domain"
)

// GetSettings returns the settings record.
func (s *BadgerStore) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	return s.settings.Get(ctx, domain.SettingsID)
}

// SaveSettings creates or replaces the settings record. The ID is forced to SettingsID.
func (s *BadgerStore) SaveSettings(ctx context.Context, settings *domain.UserSettings) error {
	settings.ID = domain.SettingsID
	err := s.settings.Update(ctx, settings.ID, settings)
	if errors.Is(err, ErrNotFound) {
		return s.settings.Create(ctx, settings.ID, settings)
	}
	return err
}
