package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const userAgent = "ticketdrop/0.1"

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// (drive package) per Go convention "accept interfaces, return structs".
// The creds package provides the real implementation.
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the Drive API. It handles request
// construction, authentication, and error classification. Each call is a
// single attempt — a failed upload abandons its session rather than
// resuming, so retrying at this layer would only mask partial state.
type Client struct {
	baseURL       string
	uploadBaseURL string
	httpClient    *http.Client
	token         TokenSource
	logger        *slog.Logger
}

// NewClient creates a Drive API client. baseURL is typically
// "https://www.googleapis.com/drive/v3" and uploadBaseURL
// "https://www.googleapis.com/upload/drive/v3".
func NewClient(baseURL, uploadBaseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:       baseURL,
		uploadBaseURL: uploadBaseURL,
		httpClient:    httpClient,
		token:         token,
		logger:        logger,
	}
}

// Do executes a single HTTP request against the Drive API. The path is
// appended to the client's base URL. For non-nil bodies, Content-Type is
// set to application/json. The caller is responsible for closing the
// response body on success. Non-2xx responses are returned as *APIError
// with the body captured for debugging.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	resp, err := c.doOnce(ctx, method, c.baseURL+path, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("drive: request canceled: %w", ctx.Err())
		}

		return nil, fmt.Errorf("drive: %s %s: %w", method, path, err)
	}

	// 2xx — success.
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Error("request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// doOnce executes a single HTTP request.
func (c *Client) doOnce(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}
