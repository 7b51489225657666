// Package shorts sequences the upload, analysis, highlight extraction,
// and clip generation stages of one shorts run, mapping each stage onto
// a band of a single monotonic 0-100 progress scale.
package shorts

import (
	"context"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/clipforge/creator-studio/internal/email"
	"github.com/clipforge/creator-studio/internal/highlights"
	"github.com/clipforge/creator-studio/pkg/log"
	"github.com/clipforge/creator-studio/pkg/progress"
)

// Progress bands per stage. Upload owns 0-10, analysis 10-40 with a
// fixed checkpoint at 40 when the payload lands, generation 50-100.
const (
	uploadBandStart   = 0
	uploadBandWidth   = 10
	analyzeBandStart  = 10
	analyzeBandWidth  = 30
	extractCheckpoint = 40
	generateBandStart = 50
	generateBandWidth = 50
)

// Pipeline owns the forward flow of a run. Data moves strictly forward:
// file, asset reference, transcript, highlights, clip URL. No component
// reaches back into an earlier one.
type Pipeline struct {
	transcriber Transcriber
	generator   ClipGenerator
	notifier    Notifier
}

func NewPipeline(transcriber Transcriber, generator ClipGenerator, notifier Notifier) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		generator:   generator,
		notifier:    notifier,
	}
}

// Run executes one upload-to-clip cycle. All run state lives in this
// call frame; a new run starts from a fresh tracker, so a previous
// run's progress never leaks forward.
func (p *Pipeline) Run(ctx context.Context, req Request, onProgress ProgressFunc) Result {
	stage := StageIdle
	tracker := progress.NewTracker(func(percent int) {
		if onProgress != nil {
			onProgress(stage, percent)
		}
	})

	// Upload
	stage = StageUploading
	tracker.Report(0)
	asset, err := p.transcriber.UploadFile(ctx, req.Path, req.ContentType,
		tracker.Band(uploadBandStart, uploadBandWidth))
	if err != nil {
		return p.fail(stage, err, onProgress, tracker)
	}
	log.Info("Upload complete, asset %s", asset)

	// Analyze
	stage = StageAnalyzing
	tracker.Report(analyzeBandStart)
	transcript, err := p.transcriber.Transcribe(ctx, asset,
		tracker.Band(analyzeBandStart, analyzeBandWidth))
	if err != nil {
		return p.fail(stage, err, onProgress, tracker)
	}

	// Extract highlights
	stage = StageExtracting
	tracker.Report(extractCheckpoint)

	text := highlights.Text(transcript)
	language := detectLanguage(text)
	hls := highlights.Extract(transcript)
	log.Info("Extracted %d highlights via %s shape", len(hls), highlights.Classify(transcript))

	if len(hls) == 0 {
		stage = StageNoSpeech
		if onProgress != nil {
			onProgress(stage, tracker.Current())
		}
		return Result{
			Outcome:    OutcomeNoSpeech,
			Transcript: text,
			Language:   language,
		}
	}

	// Generate
	stage = StageGenerating
	tracker.Report(generateBandStart)
	clipURL, err := p.generator.GenerateClip(ctx, asset, hls,
		tracker.Band(generateBandStart, generateBandWidth))
	if err != nil {
		return p.fail(stage, err, onProgress, tracker)
	}

	stage = StageDone
	tracker.Report(100)

	result := Result{
		Outcome:    OutcomeDone,
		ClipURL:    clipURL,
		Transcript: text,
		Language:   language,
	}
	result.EmailSent = p.notify(ctx, req.NotifyEmail, clipURL)
	return result
}

// notify dispatches the completion email. Failures are reported in the
// log and through the returned flag but never affect the run's terminal
// result.
func (p *Pipeline) notify(ctx context.Context, to, clipURL string) bool {
	if to == "" || p.notifier == nil || !p.notifier.Enabled() {
		return false
	}
	ok, err := p.notifier.Send(ctx, email.Params{
		ToEmail:    to,
		Subject:    "Your Short Video is Ready!",
		Message:    "Your video has been successfully processed and the short is ready to download.",
		Type:       email.ContentShort,
		ContentURL: clipURL,
	})
	if !ok {
		log.Warn("Email notification to %s not sent: %v", to, err)
	}
	return ok
}

func (p *Pipeline) fail(stage Stage, err error, onProgress ProgressFunc, tracker *progress.Tracker) Result {
	log.Error("Pipeline failed during %s: %v", stage, err)
	if onProgress != nil {
		onProgress(StageFailed, tracker.Current())
	}
	return Result{Outcome: OutcomeFailed, Err: err}
}

// detectLanguage returns the ISO 639-1 code of the transcript text, or
// empty when there is nothing to classify. Advisory only.
func detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return whatlanggo.DetectLang(text).Iso6391()
}
