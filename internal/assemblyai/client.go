// Package assemblyai talks to the transcription provider: it uploads
// media for ingestion and drives transcription jobs to a terminal state.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/pkg/log"
	"github.com/clipforge/creator-studio/pkg/progress"
)

const (
	// MaxUploadSize is the ceiling for a single media upload.
	MaxUploadSize = 100 << 20 // 100 MiB

	handshakeTimeout = 10 * time.Second
	uploadTimeout    = 60 * time.Second

	defaultPollInterval    = 10 * time.Second
	defaultMaxPollAttempts = 30
)

// supportedFormats is the accepted set of declared media types.
var supportedFormats = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/webm":      true,
}

// SupportedFormat reports whether a declared media type is accepted
// for upload.
func SupportedFormat(contentType string) bool {
	return supportedFormats[contentType]
}

// Client is an AssemblyAI API client.
// The handshake and polling calls share a short request timeout; the
// raw byte transfer carries its own longer budget.
type Client struct {
	apiKey  string
	baseURL string

	httpClient   *http.Client
	uploadClient *http.Client

	pollInterval    time.Duration
	maxPollAttempts int
}

// Option adjusts client behavior, mainly for tests.
type Option func(*Client)

// WithPollPolicy overrides the polling interval and attempt ceiling.
func WithPollPolicy(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPollAttempts = maxAttempts
	}
}

// NewClient creates a new AssemblyAI client.
//
// apiKey: provider credential sent in the Authorization header
// baseURL: API root, e.g. https://api.assemblyai.com/v2
func NewClient(apiKey, baseURL string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, apierr.New(apierr.ErrValidation, "assemblyai api key is required")
	}
	if baseURL == "" {
		return nil, apierr.New(apierr.ErrValidation, "assemblyai api url is required")
	}

	c := &Client{
		apiKey:          apiKey,
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: handshakeTimeout},
		uploadClient:    &http.Client{Timeout: uploadTimeout},
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Media describes the byte stream to upload. ContentType is the
// declared media type and is validated against the accepted set before
// any network call.
type Media struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Upload validates the media, obtains a write target from the provider,
// and streams the bytes to it. onProgress receives integer percentages
// computed from transferred/total bytes.
//
// Returns the asset reference understood by the transcription API.
func (c *Client) Upload(ctx context.Context, media Media, onProgress progress.Func) (string, error) {
	if !supportedFormats[media.ContentType] {
		return "", apierr.Newf(apierr.ErrValidation,
			"unsupported video format %q, expected MP4, MOV, AVI, or WebM", media.ContentType)
	}
	if media.Size > MaxUploadSize {
		return "", apierr.Newf(apierr.ErrValidation,
			"file size %d exceeds the %d byte limit", media.Size, int64(MaxUploadSize))
	}

	uploadURL, err := c.requestUploadURL(ctx)
	if err != nil {
		return "", err
	}

	body := io.Reader(media.Reader)
	if onProgress != nil && media.Size > 0 {
		body = &progressReader{r: media.Reader, total: media.Size, report: onProgress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return "", apierr.Wrap(err, apierr.ErrValidation, "invalid upload target")
	}
	req.ContentLength = media.Size
	req.Header.Set("Content-Type", media.ContentType)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", translateTransportErr(err, "upload transfer")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", apierr.FromStatus(resp.StatusCode, "assemblyai upload", string(respBody))
	}
	return uploadURL, nil
}

// UploadFile streams a local file. The declared content type falls back
// to a lookup by file extension when empty.
func (c *Client) UploadFile(ctx context.Context, path, contentType string, onProgress progress.Func) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apierr.Wrap(err, apierr.ErrValidation, "cannot open media file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", apierr.Wrap(err, apierr.ErrValidation, "cannot stat media file")
	}
	if contentType == "" {
		contentType = DetectContentType(path)
	}

	return c.Upload(ctx, Media{Reader: f, Size: info.Size(), ContentType: contentType}, onProgress)
}

func (c *Client) requestUploadURL(ctx context.Context) (string, error) {
	var out uploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/upload", struct{}{}, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", apierr.New(apierr.ErrUpstream, "assemblyai returned no upload URL")
	}
	return out.UploadURL, nil
}

// SubmitTranscript creates a transcription job for an uploaded asset.
// Sentiment, entity, and summary annotations are requested as advisory
// extras; downstream logic does not depend on them.
func (c *Client) SubmitTranscript(ctx context.Context, audioURL string) (string, error) {
	if audioURL == "" {
		return "", apierr.New(apierr.ErrValidation, "audio URL is required")
	}

	var out Transcript
	body := transcriptRequest{
		AudioURL:          audioURL,
		SentimentAnalysis: true,
		EntityDetection:   true,
		Summarization:     true,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/transcript", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", apierr.New(apierr.ErrUpstream, "assemblyai did not return a transcript id")
	}
	return out.ID, nil
}

// GetTranscript fetches the current state of a transcription job.
func (c *Client) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	var out Transcript
	if err := c.doJSON(ctx, http.MethodGet, "/transcript/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transcribe submits an asset for analysis and polls until the job
// reaches a terminal state. Provider-reported completion percentages are
// forwarded through onProgress on every non-terminal poll.
func (c *Client) Transcribe(ctx context.Context, audioURL string, onProgress progress.Func) (*Transcript, error) {
	id, err := c.SubmitTranscript(ctx, audioURL)
	if err != nil {
		return nil, err
	}
	log.Debug("Transcription %s submitted for %s", id, audioURL)

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		transcript, err := c.GetTranscript(ctx, id)
		if err != nil {
			return nil, err
		}

		switch transcript.Status {
		case StatusCompleted:
			return transcript, nil
		case StatusError:
			msg := transcript.Error
			if msg == "" {
				msg = "transcription failed"
			}
			return nil, apierr.New(apierr.ErrUpstream, msg).WithContext("transcript_id", id)
		default:
			if onProgress != nil && transcript.PercentComplete > 0 {
				onProgress(transcript.PercentComplete)
			}
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return nil, err
			}
		}
	}

	return nil, apierr.New(apierr.ErrTimeout,
		"analysis timed out, try again with a shorter video").WithContext("transcript_id", id)
}

// doJSON issues one JSON request against the API root and decodes the
// response, translating HTTP statuses into the shared error taxonomy.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return apierr.Wrap(err, apierr.ErrValidation, "failed to marshal request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apierr.Wrap(err, apierr.ErrValidation, "failed to create request")
	}
	req.Header.Set("Authorization", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return translateTransportErr(err, "assemblyai request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Wrap(err, apierr.ErrTransient, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromStatus(resp.StatusCode, "assemblyai", string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apierr.Wrap(err, apierr.ErrUpstream, "failed to parse response")
		}
	}
	return nil
}

// translateTransportErr maps network-level failures onto the taxonomy.
// Timeouts and cancellations stay distinguishable from other transport
// errors through the wrapped cause.
func translateTransportErr(err error, op string) error {
	if errors.Is(err, context.Canceled) {
		return apierr.Wrap(err, apierr.ErrTransient, op+" canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return apierr.Wrap(err, apierr.ErrTransient, op+" timed out")
	}
	return apierr.Wrap(err, apierr.ErrTransient, op+" failed")
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return apierr.Wrap(ctx.Err(), apierr.ErrTransient, "polling interrupted")
	case <-timer.C:
		return nil
	}
}

// progressReader reports transfer percentages at chunk boundaries.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report progress.Func
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		percent := int(math.Round(float64(p.read) / float64(p.total) * 100))
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}

// DetectContentType maps a file extension to a declared media type.
// Unknown extensions return an empty string, which Upload rejects.
func DetectContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".webm":
		return "video/webm"
	default:
		return ""
	}
}
