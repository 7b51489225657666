package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	jobs map[string]*ShortsJob
}

func newMemoryStore() *memoryStore {
	return &memoryStore{jobs: make(map[string]*ShortsJob)}
}

func (m *memoryStore) LoadJobs(_ context.Context) ([]*ShortsJob, error) {
	ret := make([]*ShortsJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		ret = append(ret, cloneJob(j))
	}
	return ret, nil
}

func (m *memoryStore) UpsertJob(_ context.Context, job *ShortsJob) error {
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *memoryStore) DeleteJob(_ context.Context, jobID string) error {
	delete(m.jobs, jobID)
	return nil
}

func (m *memoryStore) DeleteJobData(_ context.Context, _ string) error {
	return nil
}

func TestQueue_RecoversPendingAndRunningJobsFromStore(t *testing.T) {
	store := newMemoryStore()
	now := time.Now()
	store.jobs["job-1"] = &ShortsJob{
		ID:        "job-1",
		Source:    "upload",
		DedupeKey: "sha256:one",
		Status:    StatusPending,
		Payload: JobPayload{
			UploadPath: "/data/uploads/one.mp4",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	store.jobs["job-2"] = &ShortsJob{
		ID:        "job-2",
		Source:    "upload",
		DedupeKey: "sha256:two",
		Status:    StatusRunning,
		Stage:     "generating_clip",
		Percent:   70,
		Payload: JobPayload{
			UploadPath: "/data/uploads/two.mp4",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	q := NewQueue(1, store)

	jobs := q.List()
	require.Len(t, jobs, 2)
	byID := map[string]*ShortsJob{}
	for _, j := range jobs {
		byID[j.ID] = j
	}
	require.Contains(t, byID, "job-2")
	assert.Equal(t, StatusPending, byID["job-2"].Status, "interrupted job restarts from scratch")
	assert.Empty(t, byID["job-2"].Stage)
	assert.Zero(t, byID["job-2"].Percent)

	q.Start(func(_ context.Context, _ *ShortsJob) (*JobResult, error) {
		return &JobResult{Outcome: "done"}, nil
	})
	defer q.Stop()

	for _, id := range []string{"job-1", "job-2"} {
		require.Eventually(t, func() bool {
			got, ok := q.Get(id)
			return ok && got.Status == StatusSuccess
		}, time.Second, 10*time.Millisecond)
	}
}

func TestQueue_NewIDsContinueAfterRecovery(t *testing.T) {
	store := newMemoryStore()
	store.jobs["job-7"] = &ShortsJob{
		ID:     "job-7",
		Status: StatusSuccess,
	}

	q := NewQueue(1, store)
	job, created := q.Enqueue(EnqueueRequest{Source: "upload", DedupeKey: "next"})
	require.True(t, created)
	assert.Equal(t, "job-8", job.ID)
}
