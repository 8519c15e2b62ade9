package history

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketdrop/ticketdrop/internal/uploader"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := NewStore(":memory:", logger)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, uploader.Record{
		BugID:         "12345",
		FileName:      "report.log",
		Size:          1024,
		FileID:        "file-1",
		State:         uploader.StateSucceeded,
		CommentPosted: true,
	}))

	require.NoError(t, s.Record(ctx, uploader.Record{
		BugID:    "99999",
		FileName: "crash.dmp",
		Size:     2048,
		State:    uploader.StateFailedAtUpload,
	}))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byBug := map[string]Entry{}
	for _, e := range entries {
		byBug[e.BugID] = e

		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}

	ok := byBug["12345"]
	assert.Equal(t, "report.log", ok.FileName)
	assert.Equal(t, int64(1024), ok.SizeBytes)
	assert.Equal(t, "file-1", ok.FileID)
	assert.Equal(t, "succeeded", ok.State)
	assert.True(t, ok.CommentPosted)

	failed := byBug["99999"]
	assert.Equal(t, "failed_at_upload", failed.State)
	assert.Empty(t, failed.FileID)
	assert.False(t, failed.CommentPosted)
}

func TestRecent_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, uploader.Record{
			BugID:    "12345",
			FileName: "report.log",
			State:    uploader.StateSucceeded,
		}))
	}

	entries, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecent_Empty(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
