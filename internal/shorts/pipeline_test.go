package shorts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/internal/assemblyai"
	"github.com/clipforge/creator-studio/internal/email"
	"github.com/clipforge/creator-studio/internal/highlights"
	"github.com/clipforge/creator-studio/pkg/progress"
)

type fakeTranscriber struct {
	asset      string
	uploadErr  error
	transcript *assemblyai.Transcript
	analyzeErr error

	uploadedPath string
	analyzedURL  string
}

func (f *fakeTranscriber) UploadFile(_ context.Context, path, _ string, onProgress progress.Func) (string, error) {
	f.uploadedPath = path
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}
	return f.asset, nil
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioURL string, onProgress progress.Func) (*assemblyai.Transcript, error) {
	f.analyzedURL = audioURL
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}
	return f.transcript, nil
}

type fakeGenerator struct {
	clipURL string
	err     error

	videoURL   string
	highlights []highlights.Highlight
	called     bool
}

func (f *fakeGenerator) GenerateClip(_ context.Context, videoURL string, hls []highlights.Highlight, onProgress progress.Func) (string, error) {
	f.called = true
	f.videoURL = videoURL
	f.highlights = hls
	if f.err != nil {
		return "", f.err
	}
	if onProgress != nil {
		onProgress(25)
		onProgress(50)
	}
	return f.clipURL, nil
}

type fakeNotifier struct {
	enabled bool
	ok      bool
	err     error
	sent    []email.Params
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) Send(_ context.Context, params email.Params) (bool, error) {
	f.sent = append(f.sent, params)
	return f.ok, f.err
}

func utterancePayload() *assemblyai.Transcript {
	return &assemblyai.Transcript{
		Status: assemblyai.StatusCompleted,
		Utterances: []assemblyai.Span{
			{Start: 0, End: 3000, Text: "welcome back to the channel everyone"},
			{Start: 3000, End: 9000, Text: "today we are looking at the most surprising moment of the week"},
		},
	}
}

func TestRun_HappyPath(t *testing.T) {
	transcriber := &fakeTranscriber{asset: "https://cdn.example/a1", transcript: utterancePayload()}
	generator := &fakeGenerator{clipURL: "https://cdn.example/clip.mp4"}
	notifier := &fakeNotifier{enabled: true, ok: true}
	p := NewPipeline(transcriber, generator, notifier)

	type update struct {
		stage   Stage
		percent int
	}
	var updates []update

	result := p.Run(context.Background(), Request{
		Path:        "/in/video.mp4",
		NotifyEmail: "creator@example.com",
	}, func(stage Stage, percent int) {
		updates = append(updates, update{stage, percent})
	})

	assert.Equal(t, OutcomeDone, result.Outcome)
	assert.Equal(t, "https://cdn.example/clip.mp4", result.ClipURL)
	assert.Equal(t, "welcome back to the channel everyone today we are looking at the most surprising moment of the week", result.Transcript)
	assert.Equal(t, "en", result.Language)
	assert.True(t, result.EmailSent)
	assert.NoError(t, result.Err)

	// Asset flows forward untouched.
	assert.Equal(t, "/in/video.mp4", transcriber.uploadedPath)
	assert.Equal(t, "https://cdn.example/a1", transcriber.analyzedURL)
	assert.Equal(t, "https://cdn.example/a1", generator.videoURL)
	require.Len(t, generator.highlights, 2)
	assert.Equal(t, 3.0, generator.highlights[1].Start)

	// Progress is monotonic and ends at 100.
	require.NotEmpty(t, updates)
	for i := 1; i < len(updates); i++ {
		assert.GreaterOrEqual(t, updates[i].percent, updates[i-1].percent,
			"progress regressed at %d: %+v", i, updates)
	}
	last := updates[len(updates)-1]
	assert.Equal(t, StageDone, last.stage)
	assert.Equal(t, 100, last.percent)

	// Stage order holds.
	var stages []Stage
	for _, u := range updates {
		if len(stages) == 0 || stages[len(stages)-1] != u.stage {
			stages = append(stages, u.stage)
		}
	}
	assert.Equal(t, []Stage{StageUploading, StageAnalyzing, StageExtracting, StageGenerating, StageDone}, stages)

	// Email carries the clip URL.
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "creator@example.com", notifier.sent[0].ToEmail)
	assert.Equal(t, email.ContentShort, notifier.sent[0].Type)
	assert.Equal(t, "https://cdn.example/clip.mp4", notifier.sent[0].ContentURL)
}

func TestRun_NoSpeechDetected(t *testing.T) {
	transcriber := &fakeTranscriber{
		asset:      "https://cdn.example/a2",
		transcript: &assemblyai.Transcript{Status: assemblyai.StatusCompleted, Text: "hello world"},
	}
	generator := &fakeGenerator{}
	p := NewPipeline(transcriber, generator, &fakeNotifier{})

	var lastStage Stage
	result := p.Run(context.Background(), Request{Path: "/in/video.mp4"},
		func(stage Stage, _ int) { lastStage = stage })

	assert.Equal(t, OutcomeNoSpeech, result.Outcome)
	assert.Equal(t, "hello world", result.Transcript)
	assert.Equal(t, StageNoSpeech, lastStage)
	assert.False(t, generator.called, "no generation call on the no-speech outcome")
	assert.Contains(t, result.Message(), "No speech detected")
}

func TestRun_EmptyPayloadIsNoSpeech(t *testing.T) {
	transcriber := &fakeTranscriber{
		asset:      "https://cdn.example/a3",
		transcript: &assemblyai.Transcript{Status: assemblyai.StatusCompleted},
	}
	p := NewPipeline(transcriber, &fakeGenerator{}, &fakeNotifier{})

	result := p.Run(context.Background(), Request{Path: "/in/video.mp4"}, nil)

	assert.Equal(t, OutcomeNoSpeech, result.Outcome)
	assert.Empty(t, result.Transcript)
}

func TestRun_AnalysisFailureShortCircuits(t *testing.T) {
	transcriber := &fakeTranscriber{
		asset:      "https://cdn.example/a4",
		analyzeErr: apierr.New(apierr.ErrUpstream, "corrupt audio"),
	}
	generator := &fakeGenerator{}
	p := NewPipeline(transcriber, generator, &fakeNotifier{})

	result := p.Run(context.Background(), Request{Path: "/in/video.mp4"}, nil)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "corrupt audio")
	assert.False(t, generator.called, "no generation call after analysis failure")
	assert.Contains(t, result.Message(), "corrupt audio")
}

func TestRun_UploadFailure(t *testing.T) {
	transcriber := &fakeTranscriber{
		uploadErr: apierr.New(apierr.ErrValidation, "unsupported video format"),
	}
	p := NewPipeline(transcriber, &fakeGenerator{}, &fakeNotifier{})

	var lastStage Stage
	result := p.Run(context.Background(), Request{Path: "/in/video.xyz"},
		func(stage Stage, _ int) { lastStage = stage })

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.True(t, apierr.IsType(result.Err, apierr.ErrValidation))
	assert.Equal(t, StageFailed, lastStage)
	assert.Empty(t, transcriber.analyzedURL)
}

func TestRun_GenerationTimeoutClassification(t *testing.T) {
	transcriber := &fakeTranscriber{asset: "https://cdn.example/a5", transcript: utterancePayload()}
	generator := &fakeGenerator{err: apierr.New(apierr.ErrTimeout, "video generation timed out")}
	p := NewPipeline(transcriber, generator, &fakeNotifier{})

	result := p.Run(context.Background(), Request{Path: "/in/video.mp4"}, nil)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.True(t, apierr.IsType(result.Err, apierr.ErrTimeout))
}

func TestRun_EmailFailureDoesNotFlipResult(t *testing.T) {
	transcriber := &fakeTranscriber{asset: "https://cdn.example/a6", transcript: utterancePayload()}
	generator := &fakeGenerator{clipURL: "https://cdn.example/clip.mp4"}
	notifier := &fakeNotifier{enabled: true, ok: false, err: apierr.New(apierr.ErrTransient, "smtp down")}
	p := NewPipeline(transcriber, generator, notifier)

	result := p.Run(context.Background(), Request{
		Path:        "/in/video.mp4",
		NotifyEmail: "creator@example.com",
	}, nil)

	assert.Equal(t, OutcomeDone, result.Outcome)
	assert.False(t, result.EmailSent)
	require.Len(t, notifier.sent, 1)
}

func TestRun_NoEmailRequested(t *testing.T) {
	transcriber := &fakeTranscriber{asset: "https://cdn.example/a7", transcript: utterancePayload()}
	notifier := &fakeNotifier{enabled: true, ok: true}
	p := NewPipeline(transcriber, &fakeGenerator{clipURL: "https://cdn.example/clip.mp4"}, notifier)

	result := p.Run(context.Background(), Request{Path: "/in/video.mp4"}, nil)

	assert.Equal(t, OutcomeDone, result.Outcome)
	assert.False(t, result.EmailSent)
	assert.Empty(t, notifier.sent)
}
