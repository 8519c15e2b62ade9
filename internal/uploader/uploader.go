// Package uploader sequences one user-facing upload: ticket check, folder
// resolution, session negotiation, byte streaming, and the confirmation
// comment. The chain is strictly sequential with no retries; every stage
// failure is fatal to that single request.
package uploader

import (
	"context"
	"errors"
	"io"

	"github.com/ticketdrop/ticketdrop/internal/drive"
)

// Stage failure sentinels. The HTTP layer maps these to status codes with
// errors.Is; everything except ErrTicketNotFound is a 500-class failure.
var (
	ErrTicketNotFound   = errors.New("uploader: ticket not found in tracker")
	ErrStoreUnavailable = errors.New("uploader: storage unavailable")
	ErrSessionCreation  = errors.New("uploader: upload session creation failed")
	ErrUploadFailed     = errors.New("uploader: byte transfer failed")
)

// State is the terminal state of one upload request.
type State string

const (
	StateSucceeded           State = "succeeded"
	StateFailedAtTicketCheck State = "failed_at_ticket_check"
	StateFailedAtStore       State = "failed_at_store"
	StateFailedAtUpload      State = "failed_at_upload"
)

// Store is the storage API surface the orchestrator consumes.
// drive.Client is the real implementation.
type Store interface {
	ListChildFolders(ctx context.Context, parentID string) ([]drive.Folder, error)
	CreateFolder(ctx context.Context, parentID, name string) (*drive.Folder, error)
	CreateUploadSession(ctx context.Context, parentID, name, mimeType string, size int64) (string, error)
	StreamUpload(ctx context.Context, sessionURL string, size int64, mimeType string, source io.Reader, chunkSize int64) (*drive.File, error)
}

// Tracker is the issue-tracker surface the orchestrator consumes.
// tracker.Client is the real implementation.
type Tracker interface {
	BugExists(ctx context.Context, bugID string) (bool, error)
	PostComment(ctx context.Context, bugID, text string) bool
}

// Request describes one file to upload on behalf of one ticket.
type Request struct {
	BugID    string
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

// Outcome describes a successfully stored file. CommentPosted is false
// when the confirmation comment could not be posted — a soft condition
// that does not fail the upload.
type Outcome struct {
	FileID        string
	FolderID      string
	CommentPosted bool
}
