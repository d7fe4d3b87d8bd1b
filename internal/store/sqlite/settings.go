package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/store"
)

// GetSettings returns the settings record.
func (s *Store) GetSettings(ctx context.Context) (*domain.UserSettings, error) {
	var (
		us                               domain.UserSettings
		cookies, token, tlsURL, lastSync sql.NullString
		theme, view                      sql.NullString
		createdAt, updatedAt             string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, visitor_id, kindle_cookies, kindle_device_token, tls_client_api_url,
			last_kindle_sync, theme, default_view, created_at, updated_at
		FROM user_settings WHERE id = ?`, domain.SettingsID,
	).Scan(&us.ID, &us.VisitorID, &cookies, &token, &tlsURL, &lastSync, &theme, &view, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	us.KindleCookies = cookies.String
	us.KindleDeviceToken = token.String
	us.TLSClientAPIURL = tlsURL.String
	us.Theme = domain.Theme(theme.String)
	us.DefaultView = domain.DefaultView(view.String)

	if us.LastKindleSync, err = parseNullableTime(lastSync); err != nil {
		return nil, err
	}
	if us.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if us.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &us, nil
}

// SaveSettings creates or replaces the settings record. The ID is forced to SettingsID.
func (s *Store) SaveSettings(ctx context.Context, settings *domain.UserSettings) error {
	settings.ID = domain.SettingsID
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (id, visitor_id, kindle_cookies, kindle_device_token, tls_client_api_url,
			last_kindle_sync, theme, default_view, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			visitor_id = excluded.visitor_id,
			kindle_cookies = excluded.kindle_cookies,
			kindle_device_token = excluded.kindle_device_token,
			tls_client_api_url = excluded.tls_client_api_url,
			last_kindle_sync = excluded.last_kindle_sync,
			theme = excluded.theme,
			default_view = excluded.default_view,
			updated_at = excluded.updated_at`,
		settings.ID, settings.VisitorID,
		nullString(settings.KindleCookies), nullString(settings.KindleDeviceToken), nullString(settings.TLSClientAPIURL),
		nullTimeString(settings.LastKindleSync),
		nullString(string(settings.Theme)), nullString(string(settings.DefaultView)),
		formatTime(settings.CreatedAt), formatTime(settings.UpdatedAt),
	)
	return err
}
