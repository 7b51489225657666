package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_BuildsTemplateParams(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("svc-1", "tpl-1", "user-1", srv.URL)
	ok, err := c.Send(context.Background(), Params{
		ToEmail:    "creator@example.com",
		Subject:    "Your Short Video is Ready!",
		Message:    "Your video has been processed.",
		Type:       ContentShort,
		ContentURL: "https://cdn.example/clip.mp4",
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "svc-1", got.ServiceID)
	assert.Equal(t, "tpl-1", got.TemplateID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "creator@example.com", got.TemplateParams.ToEmail)
	assert.Equal(t, "Short Video", got.TemplateParams.ContentType)
	assert.Equal(t, "https://cdn.example/clip.mp4", got.TemplateParams.ContentURL)
}

func TestSend_ThumbnailTypeAndMissingURL(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("svc-1", "tpl-1", "user-1", srv.URL)
	ok, err := c.Send(context.Background(), Params{
		ToEmail: "creator@example.com",
		Subject: "Thumbnail ready",
		Type:    ContentThumbnail,
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Thumbnail", got.TemplateParams.ContentType)
	assert.Equal(t, "Not available", got.TemplateParams.ContentURL)
}

func TestSend_FailureReturnsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad template", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("svc-1", "tpl-1", "user-1", srv.URL)
	ok, err := c.Send(context.Background(), Params{ToEmail: "creator@example.com"})

	assert.False(t, ok)
	assert.Error(t, err)
}

func TestSend_DisabledWithoutIdentifiers(t *testing.T) {
	c := NewClient("", "", "", "http://unused")

	assert.False(t, c.Enabled())
	ok, err := c.Send(context.Background(), Params{ToEmail: "creator@example.com"})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestSend_RequiresRecipient(t *testing.T) {
	c := NewClient("svc-1", "tpl-1", "user-1", "http://unused")

	ok, err := c.Send(context.Background(), Params{})
	assert.False(t, ok)
	assert.Error(t, err)
}
