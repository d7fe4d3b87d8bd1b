package domain

import "time"

// SettingsID is the key of the single settings record.
const SettingsID = "1"

// Theme preference.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// DefaultView is the screen the client opens on.
type DefaultView string

// Default views.
const (
	ViewDashboard DefaultView = "dashboard"
	ViewBooks     DefaultView = "books"
	ViewJournal   DefaultView = "journal"
)

// UserSettings is the process-wide settings record. There is exactly one,
// stored under SettingsID.
type UserSettings struct {
	Record
	VisitorID         string      `json:"visitor_id"`
	KindleCookies     string      `json:"kindle_cookies,omitempty"`
	KindleDeviceToken string      `json:"kindle_device_token,omitempty"`
	TLSClientAPIURL   string      `json:"tls_client_api_url,omitempty"`
	LastKindleSync    *time.Time  `json:"last_kindle_sync,omitempty"`
	Theme             Theme       `json:"theme,omitempty"`
	DefaultView       DefaultView `json:"default_view,omitempty"`
}

// Credentials returns the stored Kindle credentials.
func (s *UserSettings) Credentials() KindleCredentials {
	return KindleCredentials{Cookies: s.KindleCookies, DeviceToken: s.KindleDeviceToken}
}

// Valid returns true if the theme is a recognized value.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// Valid returns true if the view is a recognized value.
func (v DefaultView) Valid() bool {
	return v == ViewDashboard || v == ViewBooks || v == ViewJournal
}
