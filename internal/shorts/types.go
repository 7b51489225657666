package shorts

import (
	"context"

	"github.com/clipforge/creator-studio/internal/assemblyai"
	"github.com/clipforge/creator-studio/internal/email"
	"github.com/clipforge/creator-studio/internal/highlights"
	"github.com/clipforge/creator-studio/pkg/progress"
)

// Stage identifies where a pipeline run currently is.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageUploading   Stage = "uploading"
	StageAnalyzing   Stage = "analyzing"
	StageExtracting  Stage = "extracting_highlights"
	StageGenerating  Stage = "generating_clip"
	StageDone        Stage = "done"
	StageNoSpeech    Stage = "no_speech_detected"
	StageFailed      Stage = "failed"
)

// Label returns the user-facing description of a stage.
func (s Stage) Label() string {
	switch s {
	case StageUploading:
		return "Uploading video..."
	case StageAnalyzing:
		return "Analyzing video content..."
	case StageExtracting:
		return "Identifying highlights..."
	case StageGenerating:
		return "Generating short video..."
	case StageDone:
		return "Done!"
	case StageNoSpeech:
		return "No speech detected"
	case StageFailed:
		return "Failed"
	default:
		return ""
	}
}

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageNoSpeech || s == StageFailed
}

// Outcome is the terminal classification of a run.
type Outcome string

const (
	// OutcomeDone means a clip URL was produced.
	OutcomeDone Outcome = "done"
	// OutcomeNoSpeech means the transcript yielded zero usable
	// highlights. This is a normal reported-to-user outcome, not an
	// error.
	OutcomeNoSpeech Outcome = "no_speech_detected"
	OutcomeFailed   Outcome = "failed"
)

// Request describes one upload-to-clip cycle.
type Request struct {
	// Path is the local media file to process.
	Path string
	// ContentType is the declared media type; detected from the file
	// extension when empty.
	ContentType string
	// NotifyEmail, when set, receives a notification once the clip is
	// ready.
	NotifyEmail string
}

// Result is the terminal state of one run. Transcript and Language are
// informational and populated whenever the provider returned any text,
// including on the no-speech outcome.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	ClipURL    string  `json:"clip_url,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
	Language   string  `json:"language,omitempty"`
	EmailSent  bool    `json:"email_sent,omitempty"`
	Err        error   `json:"-"`
}

// Message renders the single human-readable summary surfaced to the
// caller.
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeDone:
		return "Short video generated successfully!"
	case OutcomeNoSpeech:
		return "No speech detected in the video. Please upload a video with clear spoken audio."
	default:
		if r.Err != nil {
			return "Failed to process video: " + r.Err.Error()
		}
		return "Failed to process video. Please try again."
	}
}

// ProgressFunc receives stage transitions and overall percentages.
// Within one run the percentage is non-decreasing.
type ProgressFunc func(stage Stage, percent int)

// Transcriber uploads media and drives transcription to a terminal
// payload.
type Transcriber interface {
	UploadFile(ctx context.Context, path, contentType string, onProgress progress.Func) (string, error)
	Transcribe(ctx context.Context, audioURL string, onProgress progress.Func) (*assemblyai.Transcript, error)
}

// ClipGenerator turns a chosen highlight of an uploaded asset into a
// playable clip URL.
type ClipGenerator interface {
	GenerateClip(ctx context.Context, videoURL string, hls []highlights.Highlight, onProgress progress.Func) (string, error)
}

// Notifier delivers the completion email.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, params email.Params) (bool, error)
}
