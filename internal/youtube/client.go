// Package youtube wraps the YouTube Data API v3 endpoints the studio
// uses: trending charts, category listings and keyword search.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/clipforge/creator-studio/internal/apierr"
)

const (
	defaultAPIURL = "https://www.googleapis.com/youtube/v3"

	requestTimeout = 10 * time.Second

	// The videos endpoint caps page size at 50.
	minResults     = 1
	maxResults     = 50
	defaultResults = 20
)

// supportedRegions is the set of region charts the UI exposes. A code
// must both parse as an ISO 3166-1 region and appear here.
var supportedRegions = map[string]struct{}{
	"US": {}, "GB": {}, "DE": {}, "FR": {}, "CA": {},
	"JP": {}, "IN": {}, "BR": {}, "RU": {}, "MX": {}, "AU": {},
}

// Video is the flattened projection of one YouTube item.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ViewCount    string `json:"view_count"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublishedAt  string `json:"published_at"`
}

// Category is one assignable video category for a region.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type apiItem struct {
	ID      json.RawMessage `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
		Thumbnails   struct {
			Default thumbnail `json:"default"`
			High    thumbnail `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

type apiResponse struct {
	Items []apiItem `json:"items"`
}

// Client calls the YouTube Data API.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client. apiURL may be empty to use the public API.
func New(apiURL, apiKey string, opts ...Option) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	c := &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateRegion reports whether code names a region chart the client
// can serve.
func ValidateRegion(code string) error {
	if _, err := language.ParseRegion(code); err != nil {
		return apierr.Newf(apierr.ErrValidation, "invalid region code: %s", code)
	}
	if _, ok := supportedRegions[strings.ToUpper(code)]; !ok {
		return apierr.Newf(apierr.ErrValidation, "unsupported region code: %s", code)
	}
	return nil
}

// Regions returns the supported region codes in no particular order.
func Regions() []string {
	out := make([]string, 0, len(supportedRegions))
	for code := range supportedRegions {
		out = append(out, code)
	}
	return out
}

func clampResults(n int) int {
	if n < minResults || n > maxResults {
		return defaultResults
	}
	return n
}

// Trending fetches the most popular chart for a region, optionally
// narrowed to a category ID.
func (c *Client) Trending(ctx context.Context, region, categoryID string, limit int) ([]Video, error) {
	if region == "" {
		region = "US"
	}
	if err := ValidateRegion(region); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("chart", "mostPopular")
	params.Set("regionCode", region)
	params.Set("maxResults", strconv.Itoa(clampResults(limit)))
	if categoryID != "" {
		params.Set("videoCategoryId", categoryID)
	}

	var payload apiResponse
	if err := c.get(ctx, "/videos", params, &payload); err != nil {
		return nil, err
	}
	return toVideos(payload.Items), nil
}

// Categories lists the video categories available in a region.
func (c *Client) Categories(ctx context.Context, region string) ([]Category, error) {
	if region == "" {
		region = "US"
	}
	if err := ValidateRegion(region); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("regionCode", region)

	var payload apiResponse
	if err := c.get(ctx, "/videoCategories", params, &payload); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(payload.Items))
	for _, item := range payload.Items {
		var id string
		if err := json.Unmarshal(item.ID, &id); err != nil {
			continue
		}
		categories = append(categories, Category{ID: id, Title: item.Snippet.Title})
	}
	return categories, nil
}

// Search finds videos matching the query. The search endpoint only
// returns snippets, so a second call loads the statistics.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apierr.New(apierr.ErrValidation, "search query must not be empty")
	}
	if limit < minResults || limit > maxResults {
		limit = 10
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))

	var found apiResponse
	if err := c.get(ctx, "/search", params, &found); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(found.Items))
	for _, item := range found.Items {
		var id struct {
			VideoID string `json:"videoId"`
		}
		if err := json.Unmarshal(item.ID, &id); err != nil || id.VideoID == "" {
			continue
		}
		ids = append(ids, id.VideoID)
	}
	if len(ids) == 0 {
		return []Video{}, nil
	}

	params = url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(ids, ","))

	var detailed apiResponse
	if err := c.get(ctx, "/videos", params, &detailed); err != nil {
		return nil, err
	}
	return toVideos(detailed.Items), nil
}

func toVideos(items []apiItem) []Video {
	videos := make([]Video, 0, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item.ID, &id); err != nil {
			continue
		}
		thumbURL := item.Snippet.Thumbnails.High.URL
		if thumbURL == "" {
			thumbURL = item.Snippet.Thumbnails.Default.URL
		}
		videos = append(videos, Video{
			ID:           id,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			ViewCount:    item.Statistics.ViewCount,
			ThumbnailURL: thumbURL,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return videos
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return apierr.Wrap(err, apierr.ErrUnknown, "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apierr.Wrap(err, apierr.ErrTransient, "youtube request interrupted")
		}
		return apierr.Wrap(err, apierr.ErrTransient, "youtube request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Wrap(err, apierr.ErrTransient, "read youtube response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return apierr.New(apierr.ErrInvalidRequest, "invalid request parameters or API key")
	case http.StatusForbidden:
		return apierr.New(apierr.ErrQuota, "YouTube API quota exceeded or invalid API key")
	case http.StatusTooManyRequests:
		return apierr.New(apierr.ErrQuota, "too many requests, please try again later")
	default:
		return apierr.FromStatus(resp.StatusCode, "youtube", string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apierr.Wrap(err, apierr.ErrUpstream, "invalid response format from YouTube API")
	}
	return nil
}
