package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/creator-studio/internal/jobs"
	"github.com/clipforge/creator-studio/internal/youtube"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "studio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_JobsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	job := &jobs.ShortsJob{
		ID:        "job-1",
		Source:    "upload",
		DedupeKey: "sha256:abc",
		Payload: jobs.JobPayload{
			UploadPath:  "/data/uploads/a.mp4",
			ContentType: "video/mp4",
			NotifyEmail: "creator@example.com",
		},
		Status:    jobs.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, job.ID, all[0].ID)
	assert.Equal(t, job.Status, all[0].Status)
	assert.Equal(t, job.Payload.UploadPath, all[0].Payload.UploadPath)
	assert.Equal(t, job.Payload.NotifyEmail, all[0].Payload.NotifyEmail)
	assert.Nil(t, all[0].Result)
}

func TestSQLiteStore_JobResultAndProgressPersist(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	job := &jobs.ShortsJob{
		ID:        "job-2",
		Status:    jobs.StatusRunning,
		Stage:     "generating_clip",
		Percent:   72,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	job.Status = jobs.StatusSuccess
	job.Percent = 100
	job.Result = &jobs.JobResult{
		Outcome: "done",
		ClipURL: "https://cdn.example/clip.mp4",
	}
	require.NoError(t, store.UpsertJob(ctx, job))

	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, jobs.StatusSuccess, all[0].Status)
	assert.Equal(t, 100, all[0].Percent)
	require.NotNil(t, all[0].Result)
	assert.Equal(t, "https://cdn.example/clip.mp4", all[0].Result.ClipURL)
}

func TestSQLiteStore_DeleteJobData(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	uploadPath := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, os.WriteFile(uploadPath, []byte("video"), 0o644))

	now := time.Now().UTC()
	require.NoError(t, store.UpsertJob(ctx, &jobs.ShortsJob{
		ID:        "job-3",
		Status:    jobs.StatusSuccess,
		Payload:   jobs.JobPayload{UploadPath: uploadPath},
		CreatedAt: now,
		UpdatedAt: now,
	}))

	require.NoError(t, store.DeleteJobData(ctx, "job-3"))
	_, err := os.Stat(uploadPath)
	assert.True(t, os.IsNotExist(err))

	// Idempotent for missing files and unknown jobs.
	require.NoError(t, store.DeleteJobData(ctx, "job-3"))
	require.NoError(t, store.DeleteJobData(ctx, "no-such-job"))

	require.NoError(t, store.DeleteJob(ctx, "job-3"))
	all, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStore_SavedIdeas(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	video := youtube.Video{
		ID:           "abc",
		Title:        "Top Video",
		ChannelTitle: "Channel",
		ViewCount:    "12345",
		ThumbnailURL: "https://i.ytimg.com/abc/hq.jpg",
		PublishedAt:  "2026-08-01T00:00:00Z",
	}

	created, err := store.SaveIdea(ctx, video)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.SaveIdea(ctx, video)
	require.NoError(t, err)
	assert.False(t, created, "saving the same video again is a no-op")

	saved, err := store.HasIdea(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, saved)

	ideas, err := store.ListIdeas(ctx)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, video, ideas[0].Video)
	assert.False(t, ideas[0].SavedAt.IsZero())

	require.NoError(t, store.RemoveIdea(ctx, "abc"))
	require.NoError(t, store.RemoveIdea(ctx, "abc"), "removing twice is a no-op")

	ideas, err = store.ListIdeas(ctx)
	require.NoError(t, err)
	assert.Empty(t, ideas)

	saved, err = store.HasIdea(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestSQLiteStore_SaveIdeaRequiresID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.SaveIdea(context.Background(), youtube.Video{})
	assert.Error(t, err)
}

func TestSQLiteStore_MigrationsApplyOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "studio.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same file must not re-run applied migrations.
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
