package jobs

import "context"

// Store persists job states for queue restart recovery.
type Store interface {
	LoadJobs(ctx context.Context) ([]*ShortsJob, error)
	UpsertJob(ctx context.Context, job *ShortsJob) error
	DeleteJob(ctx context.Context, jobID string) error
	// DeleteJobData removes all auxiliary data (uploaded source files) for a job.
	DeleteJobData(ctx context.Context, jobID string) error
}
