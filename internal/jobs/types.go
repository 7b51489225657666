package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type EnqueueRequest struct {
	Source    string
	DedupeKey string
	Payload   JobPayload
}

type JobPayload struct {
	UploadPath  string `json:"upload_path"`
	ContentType string `json:"content_type"`
	NotifyEmail string `json:"notify_email,omitempty"`
}

// JobResult is the terminal outcome of a finished job.
type JobResult struct {
	Outcome    string `json:"outcome"`
	ClipURL    string `json:"clip_url,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Language   string `json:"language,omitempty"`
	EmailSent  bool   `json:"email_sent,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ShortsJob tracks one video through the shorts pipeline. Stage and
// Percent are live progress snapshots updated while the job runs.
type ShortsJob struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	DedupeKey string     `json:"dedupe_key"`
	Payload   JobPayload `json:"payload"`
	Status    Status     `json:"status"`
	Stage     string     `json:"stage,omitempty"`
	Percent   int        `json:"percent"`
	Result    *JobResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
