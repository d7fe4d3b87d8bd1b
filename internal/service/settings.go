package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/readtrack/readtrack-server/internal/domain"
	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/store"
)

// SettingsService owns the singleton settings record. It is the only writer.
type SettingsService struct {
	store  store.Store
	clock  Clock
	logger *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store store.Store, clock Clock, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Get returns the settings record, or unsaved defaults before the first write.
func (s *SettingsService) Get(ctx context.Context) (*domain.UserSettings, error) {
	settings, err := s.store.GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		now := s.clock.Now()
		settings = &domain.UserSettings{
			Record:      domain.Record{ID: domain.SettingsID},
			VisitorID:   uuid.NewString(),
			Theme:       domain.ThemeAuto,
			DefaultView: domain.ViewDashboard,
		}
		settings.InitTimestamps(now)
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// update applies fn to the current settings and saves the result.
func (s *SettingsService) update(ctx context.Context, fn func(*domain.UserSettings)) (*domain.UserSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	fn(settings)
	settings.Touch(s.clock.Now())
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

// GetCredentials returns the stored Kindle credentials, or nil unless both
// values are present.
func (s *SettingsService) GetCredentials(ctx context.Context) (*domain.KindleCredentials, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	creds := settings.Credentials()
	if !creds.Complete() {
		return nil, nil
	}
	return &creds, nil
}

// SaveCredentials stores Kindle credentials. Both values are required; their
// contents are opaque.
func (s *SettingsService) SaveCredentials(ctx context.Context, creds domain.KindleCredentials) error {
	creds.Cookies = strings.TrimSpace(creds.Cookies)
	creds.DeviceToken = strings.TrimSpace(creds.DeviceToken)
	if !creds.Complete() {
		return domainerrors.ValidationWithDetails("kindle credentials incomplete", map[string]string{
			"cookies":      "is required",
			"device_token": "is required",
		})
	}

	_, err := s.update(ctx, func(us *domain.UserSettings) {
		us.KindleCookies = creds.Cookies
		us.KindleDeviceToken = creds.DeviceToken
	})
	if err == nil {
		s.logger.Info("kindle credentials saved")
	}
	return err
}

// ClearCredentials removes the credentials and the last sync time.
func (s *SettingsService) ClearCredentials(ctx context.Context) error {
	_, err := s.update(ctx, func(us *domain.UserSettings) {
		us.KindleCookies = ""
		us.KindleDeviceToken = ""
		us.LastKindleSync = nil
	})
	if err == nil {
		s.logger.Info("kindle credentials cleared")
	}
	return err
}

// GetTLSClientAPIURL returns the custom proxy URL, or "" when unset.
func (s *SettingsService) GetTLSClientAPIURL(ctx context.Context) (string, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	return settings.TLSClientAPIURL, nil
}

// SaveTLSClientAPIURL stores a custom proxy URL. An empty url clears it.
func (s *SettingsService) SaveTLSClientAPIURL(ctx context.Context, url string) error {
	_, err := s.update(ctx, func(us *domain.UserSettings) {
		us.TLSClientAPIURL = strings.TrimSpace(url)
	})
	return err
}

// LastKindleSync returns when the last successful sync finished, or nil.
func (s *SettingsService) LastKindleSync(ctx context.Context) (*time.Time, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return settings.LastKindleSync, nil
}

// MarkKindleSynced records a successful sync at t.
func (s *SettingsService) MarkKindleSynced(ctx context.Context, t time.Time) error {
	_, err := s.update(ctx, func(us *domain.UserSettings) {
		us.LastKindleSync = &t
	})
	return err
}

// PreferencesUpdate holds the display preferences that may change.
type PreferencesUpdate struct {
	Theme       *domain.Theme
	DefaultView *domain.DefaultView
}

// UpdatePreferences changes display preferences.
func (s *SettingsService) UpdatePreferences(ctx context.Context, update PreferencesUpdate) (*domain.UserSettings, error) {
	if update.Theme != nil && !update.Theme.Valid() {
		return nil, domainerrors.Validationf("unknown theme %q", *update.Theme)
	}
	if update.DefaultView != nil && !update.DefaultView.Valid() {
		return nil, domainerrors.Validationf("unknown default view %q", *update.DefaultView)
	}

	return s.update(ctx, func(us *domain.UserSettings) {
		if update.Theme != nil {
			us.Theme = *update.Theme
		}
		if update.DefaultView != nil {
			us.DefaultView = *update.DefaultView
		}
	})
}
