// Package tracker provides a minimal Bugzilla REST client covering the two
// operations the uploader needs: a bug existence probe and a comment post.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const userAgent = "ticketdrop/0.1"

// apiKeyHeader carries the static API key on every request.
const apiKeyHeader = "X-BUGZILLA-API-KEY"

// Client is an HTTP client for a Bugzilla-like REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a tracker client. baseURL is the Bugzilla instance
// root, e.g. "https://bugzilla.example.com".
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// BugExists probes the bug-detail endpoint for the given id. Any
// non-success status is interpreted as "does not exist" — auth and server
// failures are not re-distinguished here, but the real status is logged at
// Warn so an outage masquerading as not-found is visible in the logs.
// A transport error is returned as an error rather than folded into false.
func (c *Client) BugExists(ctx context.Context, bugID string) (bool, error) {
	reqURL := fmt.Sprintf("%s/rest/bug/%s", c.baseURL, url.PathEscape(bugID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("tracker: creating bug request: %w", err)
	}

	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("tracker: bug lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return false, fmt.Errorf("tracker: draining bug response body: %w", drainErr)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("bug lookup returned non-success, treating as not found",
			slog.String("bug_id", bugID),
			slog.Int("status", resp.StatusCode),
		)

		return false, nil
	}

	c.logger.Debug("bug exists",
		slog.String("bug_id", bugID),
	)

	return true, nil
}

type postCommentRequest struct {
	Comment string `json:"comment"`
}

// PostComment posts a comment on the given bug. It returns true only when
// the tracker answers with exactly 201 Created. Any other outcome,
// including transport failure, is logged and returns false — the upload
// this comment confirms has already succeeded, so the caller treats a
// failed comment as a soft condition rather than a hard error.
func (c *Client) PostComment(ctx context.Context, bugID, text string) bool {
	reqURL := fmt.Sprintf("%s/rest/bug/%s/comment", c.baseURL, url.PathEscape(bugID))

	bodyBytes, err := json.Marshal(postCommentRequest{Comment: text})
	if err != nil {
		c.logger.Error("marshaling comment request",
			slog.String("bug_id", bugID),
			slog.String("error", err.Error()),
		)

		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(bodyBytes))
	if err != nil {
		c.logger.Error("creating comment request",
			slog.String("bug_id", bugID),
			slog.String("error", err.Error()),
		)

		return false
	}

	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("comment post failed",
			slog.String("bug_id", bugID),
			slog.String("error", err.Error()),
		)

		return false
	}
	defer resp.Body.Close()

	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		c.logger.Error("draining comment response body",
			slog.String("bug_id", bugID),
			slog.String("error", drainErr.Error()),
		)

		return false
	}

	if resp.StatusCode != http.StatusCreated {
		c.logger.Error("comment post returned unexpected status",
			slog.String("bug_id", bugID),
			slog.Int("status", resp.StatusCode),
		)

		return false
	}

	c.logger.Info("comment posted",
		slog.String("bug_id", bugID),
	)

	return true
}
