package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CommentText is the confirmation comment posted to the ticket after a
// successful upload.
const CommentText = "A log has been successfully uploaded to the team's storage"

// Recorder receives the audit record of each terminal upload. Recording is
// best-effort: a Recorder failure never changes the request outcome.
// history.Store is the real implementation.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Record is the audit row written for each terminal upload state.
type Record struct {
	BugID         string
	FileName      string
	Size          int64
	FileID        string
	State         State
	CommentPosted bool
}

// Orchestrator runs the per-request upload chain. Each stage's output is
// required input to the next; there is no internal parallelism and no
// branching back. Folders created by a request whose later stages fail are
// not rolled back — an orphan empty folder is accepted.
type Orchestrator struct {
	store       Store
	tracker     Tracker
	resolver    *Resolver
	recorder    Recorder // nil disables audit recording
	chunkSize   int64
	callTimeout time.Duration
	logger      *slog.Logger
}

// New creates an Orchestrator. callTimeout bounds each metadata network
// call (ticket check, folder list/create, session negotiation, comment);
// the byte-streaming stage runs under the caller's context only, since its
// duration scales with file size.
func New(store Store, tracker Tracker, recorder Recorder, rootID string, chunkSize int64, callTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:       store,
		tracker:     tracker,
		resolver:    NewResolver(store, rootID, logger),
		recorder:    recorder,
		chunkSize:   chunkSize,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Upload runs the full chain for one request. On success the returned
// Outcome is non-nil and err is nil even when the confirmation comment
// failed. On failure err wraps one of the stage sentinels.
func (o *Orchestrator) Upload(ctx context.Context, req Request) (*Outcome, error) {
	logger := o.logger.With(
		slog.String("bug_id", req.BugID),
		slog.String("file_name", req.FileName),
		slog.Int64("size", req.Size),
	)

	// Stage 1: ticket existence. A missing ticket terminates the request
	// before any storage-side effect.
	exists, err := withTimeout(ctx, o.callTimeout, func(ctx context.Context) (bool, error) {
		return o.tracker.BugExists(ctx, req.BugID)
	})
	if err != nil {
		o.record(ctx, req, "", StateFailedAtTicketCheck, false)

		return nil, fmt.Errorf("%w: checking bug %s: %v", ErrTicketNotFound, req.BugID, err)
	}

	if !exists {
		logger.Info("rejecting upload for unknown ticket")
		o.record(ctx, req, "", StateFailedAtTicketCheck, false)

		return nil, fmt.Errorf("%w: bug %s", ErrTicketNotFound, req.BugID)
	}

	// Stage 2: per-ticket folder.
	folderID, err := withTimeout(ctx, o.callTimeout, func(ctx context.Context) (string, error) {
		return o.resolver.ResolveFolder(ctx, req.BugID)
	})
	if err != nil {
		o.record(ctx, req, "", StateFailedAtStore, false)

		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Stage 3: session negotiation. The folder from stage 2 stays behind
	// if this fails.
	sessionURL, err := withTimeout(ctx, o.callTimeout, func(ctx context.Context) (string, error) {
		return o.store.CreateUploadSession(ctx, folderID, req.FileName, req.MimeType, req.Size)
	})
	if err != nil {
		o.record(ctx, req, "", StateFailedAtStore, false)

		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	// Stage 4: byte transfer. No resume on failure — the session is
	// abandoned and a retry starts over from stage 3.
	file, err := o.store.StreamUpload(ctx, sessionURL, req.Size, req.MimeType, req.Body, o.chunkSize)
	if err != nil {
		o.record(ctx, req, "", StateFailedAtUpload, false)

		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	// Stage 5: confirmation comment. Failure here is soft — the bytes are
	// already stored.
	commentCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	posted := o.tracker.PostComment(commentCtx, req.BugID, CommentText)
	cancel()

	if !posted {
		logger.Warn("upload stored but comment post failed",
			slog.String("file_id", file.ID),
		)
	}

	o.record(ctx, req, file.ID, StateSucceeded, posted)

	logger.Info("upload complete",
		slog.String("file_id", file.ID),
		slog.String("folder_id", folderID),
		slog.Bool("comment_posted", posted),
	)

	return &Outcome{
		FileID:        file.ID,
		FolderID:      folderID,
		CommentPosted: posted,
	}, nil
}

// withTimeout runs fn under the per-call timeout.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	return fn(callCtx)
}

// record writes the audit row for a terminal state. Best-effort only.
func (o *Orchestrator) record(ctx context.Context, req Request, fileID string, state State, posted bool) {
	if o.recorder == nil {
		return
	}

	rec := Record{
		BugID:         req.BugID,
		FileName:      req.FileName,
		Size:          req.Size,
		FileID:        fileID,
		State:         state,
		CommentPosted: posted,
	}

	if err := o.recorder.Record(ctx, rec); err != nil {
		o.logger.Error("recording upload history failed",
			slog.String("bug_id", req.BugID),
			slog.String("error", err.Error()),
		)
	}
}
