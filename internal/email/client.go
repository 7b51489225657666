// Package email sends outbound notifications through the EmailJS REST
// API. Delivery is best-effort: callers treat a failed send as a
// reportable condition, never as a fatal one.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/clipforge/creator-studio/internal/apierr"
)

const requestTimeout = 10 * time.Second

// ContentType tags what kind of artifact the notification is about.
type ContentType string

const (
	ContentThumbnail ContentType = "thumbnail"
	ContentShort     ContentType = "short"
)

// Params describes one notification.
type Params struct {
	ToEmail    string
	Subject    string
	Message    string
	Type       ContentType
	ContentURL string
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	ToEmail     string `json:"to_email"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
}

// Client is an EmailJS sender. A client with empty identifiers is
// disabled: Send reports false without a network call.
type Client struct {
	serviceID  string
	templateID string
	userID     string
	apiURL     string
	httpClient *http.Client
}

func NewClient(serviceID, templateID, userID, apiURL string) *Client {
	return &Client{
		serviceID:  serviceID,
		templateID: templateID,
		userID:     userID,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether the client has the identifiers required to
// send.
func (c *Client) Enabled() bool {
	return c != nil && c.serviceID != "" && c.templateID != "" && c.userID != ""
}

// Send delivers one notification and returns a success flag alongside
// the error detail.
func (c *Client) Send(ctx context.Context, params Params) (bool, error) {
	if !c.Enabled() {
		return false, apierr.New(apierr.ErrValidation, "email sending is not configured")
	}
	if params.ToEmail == "" {
		return false, apierr.New(apierr.ErrValidation, "recipient email is required")
	}

	contentType := "Thumbnail"
	if params.Type == ContentShort {
		contentType = "Short Video"
	}
	contentURL := params.ContentURL
	if contentURL == "" {
		contentURL = "Not available"
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:  c.serviceID,
		TemplateID: c.templateID,
		UserID:     c.userID,
		TemplateParams: templateParams{
			ToEmail:     params.ToEmail,
			Subject:     params.Subject,
			Message:     params.Message,
			ContentType: contentType,
			ContentURL:  contentURL,
		},
	})
	if err != nil {
		return false, apierr.Wrap(err, apierr.ErrValidation, "failed to marshal email request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return false, apierr.Wrap(err, apierr.ErrValidation, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, apierr.Wrap(err, apierr.ErrTransient, "email request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return false, apierr.FromStatus(resp.StatusCode, "emailjs", string(respBody))
	}
	return true, nil
}
