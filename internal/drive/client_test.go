package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticToken is a TokenSource returning a fixed token.
type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

// failingToken is a TokenSource that always errors.
type failingToken struct{}

func (failingToken) Token() (string, error) { return "", errors.New("no token") }

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewClient(baseURL, baseURL, nil, staticToken("test-token"), logger)
}

func TestDo_SetsAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	resp, err := client.Do(context.Background(), http.MethodGet, "/files", nil)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestDo_TokenFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient("http://127.0.0.1:1", "http://127.0.0.1:1", nil, failingToken{}, logger)

	_, err := client.Do(context.Background(), http.MethodGet, "/files", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "obtaining token")
}

func TestDo_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"throttled", http.StatusTooManyRequests, ErrThrottled},
		{"server error", http.StatusInternalServerError, ErrServerError},
		{"bad gateway", http.StatusBadGateway, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error": "boom"}`)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)

			_, err := client.Do(context.Background(), http.MethodGet, "/files", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, apiErr.Message, "boom")
		})
	}
}

func TestDo_SingleAttempt(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++

		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Do(context.Background(), http.MethodGet, "/files", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a failed call must not be retried")
}
