// Package thumbnail generates thumbnail images through the Hugging Face
// inference API using the Stable Diffusion XL base model.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/pkg/log"
)

const (
	defaultAPIURL = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"

	// The inference endpoint answers 503 while the model is cold. Each
	// retry doubles the previous delay.
	maxRetries        = 3
	initialRetryDelay = time.Second

	requestTimeout = 30 * time.Second

	negativePrompt = "blurry, low quality, distorted, text, watermark"
	inferenceSteps = 30
	guidanceScale  = 7.5
	imageWidth     = 1280
	imageHeight    = 720
)

type generateRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters generateParams   `json:"parameters"`
	Options    inferenceOptions `json:"options"`
}

type generateParams struct {
	NegativePrompt    string  `json:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// Client talks to the Hugging Face model inference endpoint.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client

	maxRetries int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy overrides the cold-model retry schedule.
func WithRetryPolicy(maxRetries int, initialDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = initialDelay
	}
}

// New creates a Client. apiURL may be empty to use the default SDXL
// endpoint.
func New(apiURL, apiKey string, opts ...Option) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	c := &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		maxRetries: maxRetries,
		retryDelay: initialRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate renders one 1280x720 image for the prompt and returns it as
// a data URL ready for inline display.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apierr.New(apierr.ErrValidation, "prompt must not be empty")
	}

	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParams{
			NegativePrompt:    negativePrompt,
			NumInferenceSteps: inferenceSteps,
			GuidanceScale:     guidanceScale,
			Width:             imageWidth,
			Height:            imageHeight,
		},
		Options: inferenceOptions{
			WaitForModel: true,
			UseCache:     true,
		},
	})
	if err != nil {
		return "", apierr.Wrap(err, apierr.ErrUnknown, "encode generation request")
	}

	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		image, retryable, err := c.generateOnce(ctx, body)
		if err == nil {
			return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image), nil
		}
		if !retryable || attempt >= c.maxRetries {
			return "", err
		}
		log.Warn("Thumbnail model warming up, retry %d/%d in %s", attempt+1, c.maxRetries, delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (image []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, apierr.Wrap(err, apierr.ErrUnknown, "build generation request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, apierr.Wrap(err, apierr.ErrTransient, "thumbnail request interrupted")
		}
		return nil, false, apierr.Wrap(err, apierr.ErrTransient, "thumbnail request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, apierr.Wrap(err, apierr.ErrTransient, "read thumbnail response")
	}
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, true, apierr.New(apierr.ErrTransient,
			"model is currently unavailable, please try again in a few moments")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, apierr.FromStatus(resp.StatusCode, "huggingface", string(data))
	}
	return data, false, nil
}

// DecodeDataURL splits a data URL into its media type and raw bytes.
func DecodeDataURL(dataURL string) (mediaType string, data []byte, err error) {
	head, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(head, "data:") {
		return "", nil, apierr.New(apierr.ErrValidation, "malformed data URL")
	}
	mediaType = strings.TrimPrefix(head, "data:")
	mediaType = strings.TrimSuffix(mediaType, ";base64")
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, apierr.Wrap(err, apierr.ErrValidation, "decode data URL payload")
	}
	return mediaType, data, nil
}

// SaveDataURL writes the image carried by a data URL to path.
func SaveDataURL(dataURL, path string) error {
	_, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write thumbnail %s: %w", path, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return apierr.Wrap(ctx.Err(), apierr.ErrTransient, "thumbnail generation cancelled")
	case <-timer.C:
		return nil
	}
}
