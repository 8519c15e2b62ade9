package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// ErrNoSessionURL is returned when session negotiation succeeds but the
// response carries no Location header to continue the upload against.
var ErrNoSessionURL = errors.New("drive: upload session response missing Location header")

// ErrNoFileID is returned when a completed upload's file descriptor lacks
// a store-assigned id.
var ErrNoFileID = errors.New("drive: upload response missing file id")

type createSessionRequest struct {
	Name    string   `json:"name"`
	Parents []string `json:"parents"`
}

// CreateUploadSession negotiates a resumable upload session for a file of
// known name, size, and type under the given parent folder. The returned
// session URL is the sole coordinate for the data phase and must not be
// reused across files. Any non-2xx response is fatal; the caller starts a
// fresh session if it retries at all.
func (c *Client) CreateUploadSession(ctx context.Context, parentID, name, mimeType string, size int64) (string, error) {
	c.logger.Info("creating upload session",
		slog.String("parent_id", parentID),
		slog.String("name", name),
		slog.Int64("size", size),
	)

	reqBody := createSessionRequest{
		Name:    name,
		Parents: []string{parentID},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("drive: marshaling session request: %w", err)
	}

	url := c.uploadBaseURL + "/files?uploadType=resumable&supportsAllDrives=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("drive: creating session request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return "", fmt.Errorf("drive: obtaining token for session: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Upload-Content-Type", mimeType)
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("drive: session request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	// Drain body to reuse connection; the session URL is in the header.
	if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
		return "", fmt.Errorf("drive: draining session response body: %w", drainErr)
	}

	sessionURL := resp.Header.Get("Location")
	if sessionURL == "" {
		return "", ErrNoSessionURL
	}

	c.logger.Debug("upload session created")

	return sessionURL, nil
}

// StreamUpload sends the entire payload to a previously negotiated session
// URL in one PUT with the exact byte length declared up front. The source
// is copied through a bounded buffer of chunkSize bytes, so memory use is
// independent of file size and the write side never issues a single
// unbounded write. On a non-2xx response the session is abandoned; a
// retry must negotiate a new session from scratch.
// The session URL is pre-authenticated, so no Authorization header is sent.
func (c *Client) StreamUpload(ctx context.Context, sessionURL string, size int64, mimeType string, source io.Reader, chunkSize int64) (*File, error) {
	c.logger.Info("streaming upload",
		slog.Int64("size", size),
		slog.String("mime_type", mimeType),
	)

	// A zero-length body must be http.NoBody so the transport declares
	// Content-Length: 0 instead of falling back to chunked encoding.
	var (
		body      io.Reader    = http.NoBody
		copyErrCh <-chan error = nilErrCh()
	)

	if size > 0 {
		body, copyErrCh = boundedBody(source, chunkSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, body)
	if err != nil {
		return nil, fmt.Errorf("drive: creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("User-Agent", userAgent)
	req.ContentLength = size

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upload request failed",
			slog.String("error", err.Error()),
		)

		// Prefer the producer-side error when the copy broke the request.
		// A closed pipe means the transport gave up first, not the source.
		if copyErr := <-copyErrCh; copyErr != nil && !errors.Is(copyErr, io.ErrClosedPipe) {
			return nil, fmt.Errorf("drive: reading upload source: %w", copyErr)
		}

		return nil, fmt.Errorf("drive: upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Do not wait on the producer here: an early error response can
		// arrive before the body was consumed, and the producer only
		// unblocks when the transport tears the request body down.
		errBody, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message
		c.logger.Error("upload failed",
			slog.Int("status", resp.StatusCode),
		)

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	// A clean 2xx means the declared length was fully consumed, so the
	// producer has terminated and its error slot is ready.
	if copyErr := <-copyErrCh; copyErr != nil && !errors.Is(copyErr, io.ErrClosedPipe) {
		return nil, fmt.Errorf("drive: reading upload source: %w", copyErr)
	}

	var fr fileResource
	if decErr := json.NewDecoder(resp.Body).Decode(&fr); decErr != nil {
		return nil, fmt.Errorf("drive: decoding upload response: %w", decErr)
	}

	if fr.ID == "" {
		return nil, ErrNoFileID
	}

	fileSize, _ := strconv.ParseInt(fr.Size, 10, 64) //nolint:errcheck // size is informational

	file := &File{
		ID:       fr.ID,
		Name:     fr.Name,
		MimeType: fr.MimeType,
		Size:     fileSize,
	}

	c.logger.Info("upload complete",
		slog.String("file_id", file.ID),
		slog.String("name", file.Name),
	)

	return file, nil
}

// boundedBody connects source to the returned request body through a pipe.
// A producer goroutine copies through a chunkSize buffer, so each write to
// the transport is at most chunkSize bytes and the producer blocks until
// the HTTP client has consumed the previous chunk. The channel yields the
// producer's terminal error (nil on success) exactly once.
func boundedBody(source io.Reader, chunkSize int64) (io.Reader, <-chan error) {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}

	pr, pw := io.Pipe()
	errCh := make(chan error, 1)

	go func() {
		buf := make([]byte, chunkSize)
		_, err := io.CopyBuffer(pw, source, buf)
		pw.CloseWithError(err)
		errCh <- err
	}()

	return pr, errCh
}

// nilErrCh returns a channel that yields nil immediately, for upload paths
// with no producer goroutine.
func nilErrCh() <-chan error {
	ch := make(chan error, 1)
	ch <- nil

	return ch
}
