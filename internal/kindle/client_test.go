package kindle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrack/readtrack-server/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(server.URL, "test-key", logger.Discard())
	t.Cleanup(client.Close)
	client.http = server.Client()

	return client, server
}

func TestClient_FetchLibrary(t *testing.T) {
	var gotReq libraryRequest
	var gotKey, gotPath string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"books": [
			{"asin": "B001", "title": "Dune", "authors": [{"firstName": "Frank", "lastName": "Herbert"}],
			 "imageUrl": "https://img/dune.jpg", "percentageRead": 42.6, "syncDate": "2025-03-10T21:15:00Z"},
			{"asin": "B002", "title": "Good Omens", "authors": [
				{"firstName": "Terry", "lastName": "Pratchett"}, {"firstName": "Neil", "lastName": "Gaiman"}]},
			{"asin": "B003", "title": "  Anonymous Work ", "authors": []},
			{"asin": "B004", "title": "Mononym", "authors": [{"lastName": "Homer"}, {}]},
			{"asin": "", "title": "No ASIN"}
		]}`))
	})

	books, err := client.FetchLibrary(context.Background(), Credentials{Cookies: "session=abc", DeviceToken: "tok"})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, libraryPath, gotPath)
	assert.Equal(t, libraryRequest{Cookies: "session=abc", DeviceToken: "tok"}, gotReq)

	require.Len(t, books, 4)

	dune := books[0]
	assert.Equal(t, "B001", dune.ASIN)
	assert.Equal(t, "Frank Herbert", dune.Author)
	assert.Equal(t, "https://img/dune.jpg", dune.CoverURL)
	require.NotNil(t, dune.PercentComplete)
	assert.Equal(t, 43, *dune.PercentComplete)
	require.NotNil(t, dune.LastOpenedAt)
	assert.True(t, time.Date(2025, 3, 10, 21, 15, 0, 0, time.UTC).Equal(*dune.LastOpenedAt))

	assert.Equal(t, "Terry Pratchett, Neil Gaiman", books[1].Author)
	assert.Nil(t, books[1].PercentComplete)
	assert.Nil(t, books[1].LastOpenedAt)

	assert.Equal(t, "Anonymous Work", books[2].Title)
	assert.Equal(t, "Unknown", books[2].Author)

	assert.Equal(t, "Homer, Unknown", books[3].Author)
}

func TestClient_FetchLibrary_ProxyOverride(t *testing.T) {
	hit := false
	override := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		_, _ = w.Write([]byte(`{"books": []}`))
	}))
	t.Cleanup(override.Close)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("default proxy should not be called")
	})

	books, err := client.FetchLibrary(context.Background(), Credentials{
		Cookies: "c", DeviceToken: "d", ProxyURL: override.URL + "/",
	})
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.True(t, hit)
}

func TestClient_FetchLibrary_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"expired"}`, ErrAuthFailed},
		{"forbidden", http.StatusForbidden, ``, ErrAuthFailed},
		{"gateway timeout", http.StatusGatewayTimeout, ``, ErrTimeout},
		{"server error", http.StatusInternalServerError, `boom`, ErrTransport},
		{"malformed body", http.StatusOK, `{"books": [`, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchLibrary(context.Background(), Credentials{Cookies: "c", DeviceToken: "d"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var kerr *Error
			require.ErrorAs(t, err, &kerr)
			assert.Equal(t, "fetchLibrary", kerr.Op)
		})
	}
}

func TestClient_FetchLibrary_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchLibrary(ctx, Credentials{Cookies: "c", DeviceToken: "d"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_FetchLibrary_Unreachable(t *testing.T) {
	client := New("http://127.0.0.1:1", "", logger.Discard())
	defer client.Close()

	_, err := client.FetchLibrary(context.Background(), Credentials{Cookies: "c", DeviceToken: "d"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestFormatAuthors(t *testing.T) {
	assert.Equal(t, "Unknown", formatAuthors(nil))
	assert.Equal(t, "Ursula K. Le Guin", formatAuthors([]rawAuthor{{FirstName: "Ursula K.", LastName: "Le Guin"}}))
}

func TestClient_FetchLibrary_MalformedDetailsDropOnlyThatField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"books": [
			{"asin": "B001", "title": "Dune", "percentageRead": 55, "syncDate": "last tuesday"},
			{"asin": "B002", "title": "Emma", "percentageRead": {"value": 10}, "syncDate": 1710000000000},
			{"asin": "B003", "title": "Ulysses", "percentageRead": "12.4", "syncDate": null}
		]}`))
	})

	books, err := client.FetchLibrary(context.Background(), Credentials{Cookies: "c", DeviceToken: "d"})
	require.NoError(t, err)
	require.Len(t, books, 3)

	require.NotNil(t, books[0].PercentComplete)
	assert.Equal(t, 55, *books[0].PercentComplete)
	assert.Nil(t, books[0].LastOpenedAt)

	assert.Nil(t, books[1].PercentComplete)
	require.NotNil(t, books[1].LastOpenedAt)
	assert.True(t, time.UnixMilli(1710000000000).Equal(*books[1].LastOpenedAt))

	require.NotNil(t, books[2].PercentComplete)
	assert.Equal(t, 12, *books[2].PercentComplete)
	assert.Nil(t, books[2].LastOpenedAt)
}
