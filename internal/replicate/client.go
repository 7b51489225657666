// Package replicate drives short-clip generation jobs on the Replicate
// predictions API. The client can talk to the API directly with a token
// or through the same-origin proxy, which attaches the credential
// server-side.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/internal/highlights"
	"github.com/clipforge/creator-studio/pkg/log"
	"github.com/clipforge/creator-studio/pkg/progress"
)

const (
	// MaxClipSeconds caps the requested clip duration.
	MaxClipSeconds = 15

	requestTimeout = 10 * time.Second

	defaultPollInterval    = 10 * time.Second
	defaultMaxPollAttempts = 30
)

// PredictionStatus is the provider-reported lifecycle state of a
// generation job.
type PredictionStatus string

const (
	StatusStarting   PredictionStatus = "starting"
	StatusProcessing PredictionStatus = "processing"
	StatusSucceeded  PredictionStatus = "succeeded"
	StatusFailed     PredictionStatus = "failed"
)

func (s PredictionStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Prediction is the generation job record returned by the API.
type Prediction struct {
	ID     string           `json:"id"`
	Status PredictionStatus `json:"status"`
	Output string           `json:"output,omitempty"`
	Error  string           `json:"error,omitempty"`
}

type PredictionInput struct {
	VideoURL  string  `json:"video_url"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	Prompt    string  `json:"prompt"`
}

type PredictionRequest struct {
	Version string          `json:"version"`
	Input   PredictionInput `json:"input"`
}

// Client is a Replicate predictions client.
type Client struct {
	token        string
	baseURL      string
	modelVersion string
	httpClient   *http.Client

	pollInterval    time.Duration
	maxPollAttempts int
}

type Option func(*Client)

// WithPollPolicy overrides the polling interval and attempt ceiling.
func WithPollPolicy(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPollAttempts = maxAttempts
	}
}

// WithoutToken configures the client for proxied use: requests carry no
// Authorization header and the proxy adds the credential.
func WithoutToken() Option {
	return func(c *Client) {
		c.token = ""
	}
}

// NewClient creates a new Replicate client. modelVersion selects the
// short-clip generation model.
func NewClient(token, baseURL, modelVersion string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, apierr.New(apierr.ErrValidation, "replicate api url is required")
	}
	if modelVersion == "" {
		return nil, apierr.New(apierr.ErrValidation, "replicate model version is required")
	}

	c := &Client{
		token:           token,
		baseURL:         baseURL,
		modelVersion:    modelVersion,
		httpClient:      &http.Client{Timeout: requestTimeout},
		pollInterval:    defaultPollInterval,
		maxPollAttempts: defaultMaxPollAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateClip submits a generation job for the first highlight and
// polls until the job reaches a terminal state, returning the playable
// clip URL.
//
// The provider exposes no granular percentages for this stage, so
// onProgress receives a coarse two-level signal: 25 while the job is
// queued, 50 while it is actively processing.
func (c *Client) GenerateClip(ctx context.Context, videoURL string, hls []highlights.Highlight, onProgress progress.Func) (string, error) {
	if len(hls) == 0 {
		return "", apierr.New(apierr.ErrValidation, "no highlights found in the video")
	}

	// Earliest segment wins. Callers pre-sort if a desirability
	// ranking is ever introduced.
	best := hls[0]
	duration := best.Duration()
	if duration > MaxClipSeconds {
		duration = MaxClipSeconds
	}

	pred, err := c.CreatePrediction(ctx, PredictionRequest{
		Version: c.modelVersion,
		Input: PredictionInput{
			VideoURL:  videoURL,
			StartTime: best.Start,
			Duration:  duration,
			Prompt:    best.Text,
		},
	})
	if err != nil {
		return "", err
	}
	if pred.ID == "" {
		return "", apierr.New(apierr.ErrUpstream, "replicate did not return a prediction id")
	}
	log.Debug("Prediction %s submitted, clip start=%.2fs duration=%.2fs", pred.ID, best.Start, duration)

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		current, err := c.GetPrediction(ctx, pred.ID)
		if err != nil {
			return "", err
		}

		switch current.Status {
		case StatusSucceeded:
			if current.Output == "" {
				return "", apierr.New(apierr.ErrUpstream,
					"no output received from video generation").WithContext("prediction_id", pred.ID)
			}
			return current.Output, nil
		case StatusFailed:
			msg := current.Error
			if msg == "" {
				msg = "short generation failed"
			}
			return "", apierr.New(apierr.ErrUpstream, msg).WithContext("prediction_id", pred.ID)
		default:
			if onProgress != nil {
				if current.Status == StatusProcessing {
					onProgress(50)
				} else {
					onProgress(25)
				}
			}
			if err := sleepCtx(ctx, c.pollInterval); err != nil {
				return "", err
			}
		}
	}

	return "", apierr.New(apierr.ErrTimeout,
		"video generation timed out, please try again").WithContext("prediction_id", pred.ID)
}

// Forward posts a raw prediction payload with the server-held
// credential and hands back the upstream status and body untouched.
// This backs the same-origin proxy endpoint that keeps the token out of
// the browser bundle.
func (c *Client) Forward(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, apierr.Wrap(err, apierr.ErrValidation, "failed to create request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, apierr.Wrap(err, apierr.ErrTransient, "replicate request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apierr.Wrap(err, apierr.ErrTransient, "failed to read response body")
	}
	return resp.StatusCode, respBody, nil
}

// CreatePrediction submits a prediction request.
func (c *Client) CreatePrediction(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	var out Prediction
	if err := c.doJSON(ctx, http.MethodPost, "/predictions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPrediction fetches the current state of a generation job.
func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	var out Prediction
	if err := c.doJSON(ctx, http.MethodGet, "/predictions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

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
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return apierr.Wrap(err, apierr.ErrTransient, "replicate request canceled")
		}
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return apierr.Wrap(err, apierr.ErrTransient, "replicate request timed out")
		}
		return apierr.Wrap(err, apierr.ErrTransient, "replicate request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Wrap(err, apierr.ErrTransient, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierr.FromStatus(resp.StatusCode, "replicate", string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apierr.Wrap(err, apierr.ErrUpstream, "failed to parse response")
		}
	}
	return nil
}

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
