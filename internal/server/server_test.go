package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketdrop/ticketdrop/internal/history"
	"github.com/ticketdrop/ticketdrop/internal/uploader"
)

// fakeUploader is a scriptable Uploader that captures the request it got.
type fakeUploader struct {
	outcome *uploader.Outcome
	err     error

	got     *uploader.Request
	gotBody []byte
}

func (f *fakeUploader) Upload(_ context.Context, req uploader.Request) (*uploader.Outcome, error) {
	f.got = &req

	if req.Body != nil {
		f.gotBody, _ = io.ReadAll(req.Body) //nolint:errcheck // test capture
	}

	if f.err != nil {
		return nil, f.err
	}

	return f.outcome, nil
}

// fakeHistory serves a fixed entry list.
type fakeHistory struct {
	entries []history.Entry
	err     error
}

func (f *fakeHistory) Recent(_ context.Context, _ int) ([]history.Entry, error) {
	return f.entries, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// multipartBody builds a multipart request body with optional bugid and
// file fields.
func multipartBody(t *testing.T, bugID string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if bugID != "" {
		require.NoError(t, w.WriteField("bugid", bugID))
	}

	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)

		_, err = part.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, s *Server, bugID, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, bugID, fileName, content)

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	return rec
}

func TestHandleUpload_Success(t *testing.T) {
	up := &fakeUploader{outcome: &uploader.Outcome{FileID: "file-1", CommentPosted: true}}
	s := New(up, nil, 0, testLogger())

	content := bytes.Repeat([]byte("x"), 1024)
	rec := doUpload(t, s, "12345", "report.log", content)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "File uploaded successfully.\n<br>Added comment to bugzilla", rec.Body.String())

	require.NotNil(t, up.got)
	assert.Equal(t, "12345", up.got.BugID)
	assert.Equal(t, "report.log", up.got.FileName)
	assert.Equal(t, int64(1024), up.got.Size)
	assert.Equal(t, content, up.gotBody)
}

func TestHandleUpload_CommentFailureIsStillSuccess(t *testing.T) {
	up := &fakeUploader{outcome: &uploader.Outcome{FileID: "file-1", CommentPosted: false}}
	s := New(up, nil, 0, testLogger())

	rec := doUpload(t, s, "12345", "report.log", []byte("data"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "File uploaded successfully.\n<br>Failed to add comment to bugzilla", rec.Body.String())
}

func TestHandleUpload_EmptyFileAccepted(t *testing.T) {
	up := &fakeUploader{outcome: &uploader.Outcome{FileID: "file-1", CommentPosted: true}}
	s := New(up, nil, 0, testLogger())

	rec := doUpload(t, s, "12345", "empty.log", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, up.got)
	assert.Zero(t, up.got.Size)
}

func TestHandleUpload_NoFile(t *testing.T) {
	up := &fakeUploader{}
	s := New(up, nil, 0, testLogger())

	rec := doUpload(t, s, "12345", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoFile, rec.Body.String())
	assert.Nil(t, up.got, "no upload attempt without a file")
}

func TestHandleUpload_NoBugID(t *testing.T) {
	up := &fakeUploader{}
	s := New(up, nil, 0, testLogger())

	rec := doUpload(t, s, "", "report.log", []byte("data"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgNoBugID, rec.Body.String())
	assert.Nil(t, up.got)
}

func TestHandleUpload_NotMultipart(t *testing.T) {
	up := &fakeUploader{}
	s := New(up, nil, 0, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader([]byte("plain body")))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpload_TicketNotFound(t *testing.T) {
	up := &fakeUploader{err: uploader.ErrTicketNotFound}
	s := New(up, nil, 0, testLogger())

	rec := doUpload(t, s, "99999", "report.log", []byte("data"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgTicketNotFound, rec.Body.String())
}

func TestHandleUpload_StageFailuresAre500(t *testing.T) {
	for _, stageErr := range []error{
		uploader.ErrStoreUnavailable,
		uploader.ErrSessionCreation,
		uploader.ErrUploadFailed,
	} {
		t.Run(stageErr.Error(), func(t *testing.T) {
			up := &fakeUploader{err: stageErr}
			s := New(up, nil, 0, testLogger())

			rec := doUpload(t, s, "12345", "report.log", []byte("data"))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, msgUploadFailed, rec.Body.String())
		})
	}
}

func TestHandleForm(t *testing.T) {
	s := New(&fakeUploader{}, nil, 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="bugid"`)
	assert.Contains(t, rec.Body.String(), `name="file"`)
}

func TestHandleHealth(t *testing.T) {
	s := New(&fakeUploader{}, nil, 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHistory(t *testing.T) {
	hist := &fakeHistory{entries: []history.Entry{
		{ID: "a", BugID: "12345", FileName: "report.log", SizeBytes: 1024, State: "succeeded", CommentPosted: true, CreatedAt: time.Now().UTC()},
	}}
	s := New(&fakeUploader{}, hist, 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/uploads", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "12345", entries[0].BugID)
}

func TestHandleHistory_DisabledWithoutStore(t *testing.T) {
	s := New(&fakeUploader{}, nil, 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/uploads", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
