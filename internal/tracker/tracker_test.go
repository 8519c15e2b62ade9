package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewClient(baseURL, "secret-key", nil, logger)
}

func TestBugExists_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/bug/12345", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get(apiKeyHeader))

		fmt.Fprint(w, `{"bugs": [{"id": 12345}]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	exists, err := client.BugExists(context.Background(), "12345")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBugExists_NonSuccessMeansNotFound(t *testing.T) {
	// Any non-success status maps to "does not exist" — including statuses
	// that really mean an outage. The distinction is logged, not returned.
	for _, status := range []int{http.StatusNotFound, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)

			exists, err := client.BugExists(context.Background(), "99999")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestBugExists_TransportError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.BugExists(context.Background(), "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bug lookup failed")
}

func TestPostComment_Created(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/bug/12345/comment", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get(apiKeyHeader))

		var req postCommentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "A log has been successfully uploaded to the team's storage", req.Comment)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 777}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	posted := client.PostComment(context.Background(), "12345", "A log has been successfully uploaded to the team's storage")
	assert.True(t, posted)
}

func TestPostComment_RequiresExactCreatedStatus(t *testing.T) {
	// 200 is not the expected 201 — treated as failure even though the
	// request technically succeeded.
	for _, status := range []int{http.StatusOK, http.StatusAccepted, http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)

			assert.False(t, client.PostComment(context.Background(), "12345", "text"))
		})
	}
}

func TestPostComment_TransportError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	assert.False(t, client.PostComment(context.Background(), "12345", "text"))
}
