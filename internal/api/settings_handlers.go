package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns preferences and Kindle configuration state; credentials are never returned",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/settings",
		Summary:     "Update preferences",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveKindleCredentials",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/kindle/credentials",
		Summary:     "Save Kindle credentials",
		Description: "Stores the cookie string and device token used by the proxy",
		Tags:        []string{"Settings"},
	}, s.handleSaveKindleCredentials)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearKindleCredentials",
		Method:      http.MethodDelete,
		Path:        "/api/v1/settings/kindle/credentials",
		Summary:     "Clear Kindle credentials",
		Description: "Removes the credentials and the last sync time",
		Tags:        []string{"Settings"},
	}, s.handleClearKindleCredentials)

	huma.Register(s.api, huma.Operation{
		OperationID: "getKindleProxyURL",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/kindle/proxy-url",
		Summary:     "Get Kindle proxy URL",
		Tags:        []string{"Settings"},
	}, s.handleGetKindleProxyURL)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveKindleProxyURL",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/kindle/proxy-url",
		Summary:     "Save Kindle proxy URL",
		Description: "Overrides the configured proxy; an empty URL reverts to it",
		Tags:        []string{"Settings"},
	}, s.handleSaveKindleProxyURL)
}

// === DTOs ===

// SettingsResponse is the public view of the settings record.
type SettingsResponse struct {
	VisitorID        string             `json:"visitor_id"`
	Theme            domain.Theme       `json:"theme"`
	DefaultView      domain.DefaultView `json:"default_view"`
	KindleConfigured bool               `json:"kindle_configured" doc:"Whether cookies and device token are both stored"`
	TLSClientAPIURL  string             `json:"tls_client_api_url,omitempty"`
	LastKindleSync   *time.Time         `json:"last_kindle_sync,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// SettingsOutput wraps settings for Huma.
type SettingsOutput struct {
	Body SettingsResponse
}

// UpdateSettingsRequest is the request body for changing preferences.
type UpdateSettingsRequest struct {
	Theme       *domain.Theme       `json:"theme,omitempty" enum:"light,dark,auto"`
	DefaultView *domain.DefaultView `json:"default_view,omitempty" enum:"dashboard,books,journal"`
}

// UpdateSettingsInput wraps the preferences request for Huma.
type UpdateSettingsInput struct {
	Body UpdateSettingsRequest
}

// KindleCredentialsRequest is the request body for saving credentials.
type KindleCredentialsRequest struct {
	Cookies     string `json:"cookies" minLength:"1" doc:"Amazon cookie header value"`
	DeviceToken string `json:"device_token" minLength:"1" doc:"Kindle web reader device token"`
}

// KindleCredentialsInput wraps the credentials request for Huma.
type KindleCredentialsInput struct {
	Body KindleCredentialsRequest
}

// ProxyURLBody carries the proxy URL.
type ProxyURLBody struct {
	URL string `json:"url" doc:"Proxy base URL; empty uses the configured default"`
}

// ProxyURLInput wraps the proxy URL request for Huma.
type ProxyURLInput struct {
	Body ProxyURLBody
}

// ProxyURLOutput wraps the proxy URL for Huma.
type ProxyURLOutput struct {
	Body ProxyURLBody
}

// === Handlers ===

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settingsResponse(settings)}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.UpdatePreferences(ctx, service.PreferencesUpdate{
		Theme:       input.Body.Theme,
		DefaultView: input.Body.DefaultView,
	})
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settingsResponse(settings)}, nil
}

func (s *Server) handleSaveKindleCredentials(ctx context.Context, input *KindleCredentialsInput) (*SettingsOutput, error) {
	err := s.services.Settings.SaveCredentials(ctx, domain.KindleCredentials{
		Cookies:     input.Body.Cookies,
		DeviceToken: input.Body.DeviceToken,
	})
	if err != nil {
		return nil, err
	}
	return s.handleGetSettings(ctx, nil)
}

func (s *Server) handleClearKindleCredentials(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	if err := s.services.Settings.ClearCredentials(ctx); err != nil {
		return nil, err
	}
	return s.handleGetSettings(ctx, nil)
}

func (s *Server) handleGetKindleProxyURL(ctx context.Context, _ *struct{}) (*ProxyURLOutput, error) {
	url, err := s.services.Settings.GetTLSClientAPIURL(ctx)
	if err != nil {
		return nil, err
	}
	return &ProxyURLOutput{Body: ProxyURLBody{URL: url}}, nil
}

func (s *Server) handleSaveKindleProxyURL(ctx context.Context, input *ProxyURLInput) (*ProxyURLOutput, error) {
	if err := s.services.Settings.SaveTLSClientAPIURL(ctx, input.Body.URL); err != nil {
		return nil, err
	}
	return s.handleGetKindleProxyURL(ctx, nil)
}

func settingsResponse(us *domain.UserSettings) SettingsResponse {
	return SettingsResponse{
		VisitorID:        us.VisitorID,
		Theme:            us.Theme,
		DefaultView:      us.DefaultView,
		KindleConfigured: us.Credentials().Complete(),
		TLSClientAPIURL:  us.TLSClientAPIURL,
		LastKindleSync:   us.LastKindleSync,
		UpdatedAt:        us.UpdatedAt,
	}
}
