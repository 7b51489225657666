package jobs

import (
	"context"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/internal/shorts"
)

// Runner is the subset of the shorts pipeline the executor needs.
type Runner interface {
	Run(ctx context.Context, req shorts.Request, onProgress shorts.ProgressFunc) shorts.Result
}

// NewPipelineExecutor adapts the shorts pipeline to the queue. Stage
// and percent updates flow back into the queue so readers can watch a
// running job.
func NewPipelineExecutor(q *Queue, runner Runner) Executor {
	return func(ctx context.Context, job *ShortsJob) (*JobResult, error) {
		result := runner.Run(ctx, shorts.Request{
			Path:        job.Payload.UploadPath,
			ContentType: job.Payload.ContentType,
			NotifyEmail: job.Payload.NotifyEmail,
		}, func(stage shorts.Stage, percent int) {
			q.SetProgress(job.ID, string(stage), percent)
		})

		jobResult := &JobResult{
			Outcome:    string(result.Outcome),
			ClipURL:    result.ClipURL,
			Transcript: result.Transcript,
			Language:   result.Language,
			EmailSent:  result.EmailSent,
			Message:    result.Message(),
		}
		if result.Outcome == shorts.OutcomeFailed {
			err := result.Err
			if err == nil {
				err = apierr.New(apierr.ErrUnknown, "pipeline failed without detail")
			}
			return jobResult, err
		}
		return jobResult, nil
	}
}
