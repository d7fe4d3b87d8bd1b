// Package kindle fetches the Kindle library through a TLS-fingerprinting proxy.
package kindle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/ratelimit"
)

const (
	// One library fetch every two seconds per proxy host, burst of 2.
	defaultRPS   = 0.5
	defaultBurst = 2

	libraryPath = "/api/kindle/library"

	// maxErrorBody bounds how much of a failed response lands in the error.
	maxErrorBody = 512
)

// Client is a rate-limited client for the Kindle proxy.
type Client struct {
	http       *http.Client
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
	defaultURL string
	apiKey     string
}

// New creates a client. defaultURL is used when credentials carry no proxy URL.
// The caller bounds each fetch with its context; the HTTP client has no timeout of its own.
func New(defaultURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		http:       &http.Client{},
		limiter:    ratelimit.New(defaultRPS, defaultBurst),
		logger:     logger,
		defaultURL: defaultURL,
		apiKey:     apiKey,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// FetchLibrary returns the account's whole library.
//
// Errors wrap ErrAuthFailed when the proxy rejects the credentials,
// ErrTimeout when ctx expires, and ErrTransport for anything else.
func (c *Client) FetchLibrary(ctx context.Context, creds Credentials) ([]domain.KindleBook, error) {
	proxy := strings.TrimRight(creds.ProxyURL, "/")
	if proxy == "" {
		proxy = strings.TrimRight(c.defaultURL, "/")
	}

	books, err := c.fetchLibrary(ctx, proxy, creds)
	if err != nil {
		return nil, wrapError("fetchLibrary", proxy, err)
	}
	return books, nil
}

func (c *Client) fetchLibrary(ctx context.Context, proxy string, creds Credentials) ([]domain.KindleBook, error) {
	u, err := url.Parse(proxy + libraryPath)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid proxy URL %q", ErrTransport, proxy)
	}

	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, classify(ctx, fmt.Errorf("rate limit wait: %w", err))
	}

	payload, err := json.Marshal(libraryRequest{Cookies: creds.Cookies, DeviceToken: creds.DeviceToken})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ReadTrack/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	c.logger.Debug("kindle library request", "host", u.Host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: proxy status %d", ErrTimeout, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrTransport, resp.StatusCode, truncate(body))
	}

	var parsed libraryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}

	books := make([]domain.KindleBook, 0, len(parsed.Books))
	for _, raw := range parsed.Books {
		if strings.TrimSpace(raw.ASIN) == "" {
			continue
		}
		book, dropped := raw.toDomain()
		if len(dropped) > 0 {
			c.logger.Warn("kindle item details ignored", "asin", book.ASIN, "fields", dropped)
		}
		books = append(books, book)
	}

	c.logger.Debug("kindle library fetched", "host", u.Host, "books", len(books))
	return books, nil
}

// classify maps a low-level failure to ErrTimeout or ErrTransport.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
