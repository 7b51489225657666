// Package httpapi serves the studio's JSON API and the built SPA
// assets.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/internal/jobs"
	"github.com/clipforge/creator-studio/internal/persistence"
	"github.com/clipforge/creator-studio/internal/trends"
	"github.com/clipforge/creator-studio/internal/youtube"
)

type trendsProvider interface {
	Get(ctx context.Context, region string) (trends.Snapshot, error)
	Status() (trends.Status, error)
}

type videoSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]youtube.Video, error)
	Categories(ctx context.Context, region string) ([]youtube.Category, error)
}

type ideaStore interface {
	SaveIdea(ctx context.Context, video youtube.Video) (bool, error)
	ListIdeas(ctx context.Context) ([]persistence.SavedIdea, error)
	HasIdea(ctx context.Context, videoID string) (bool, error)
	RemoveIdea(ctx context.Context, videoID string) error
}

type thumbnailGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generationProxy interface {
	Forward(ctx context.Context, payload []byte) (int, []byte, error)
}

type Server struct {
	trends     trendsProvider
	search     videoSearcher
	ideas      ideaStore
	thumbnails thumbnailGenerator
	proxy      generationProxy
	queue      *jobs.Queue

	uploadDir string

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithTrends(provider trendsProvider) Option {
	return func(s *Server) { s.trends = provider }
}

func WithSearch(searcher videoSearcher) Option {
	return func(s *Server) { s.search = searcher }
}

func WithIdeas(store ideaStore) Option {
	return func(s *Server) { s.ideas = store }
}

func WithThumbnails(generator thumbnailGenerator) Option {
	return func(s *Server) { s.thumbnails = generator }
}

func WithGenerationProxy(proxy generationProxy) Option {
	return func(s *Server) { s.proxy = proxy }
}

func NewServer(queue *jobs.Queue, uploadDir string, opts ...Option) *Server {
	s := &Server{
		queue:     queue,
		uploadDir: uploadDir,
		uiEnabled: false,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/trends", s.handleTrends)
	s.mux.HandleFunc("/api/trends/status", s.handleTrendsStatus)
	s.mux.HandleFunc("/api/trends/categories", s.handleCategories)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/ideas", s.handleIdeas)
	s.mux.HandleFunc("/api/ideas/", s.handleIdeaByID)
	s.mux.HandleFunc("/api/thumbnails", s.handleThumbnails)
	s.mux.HandleFunc("/api/shorts", s.handleShorts)
	s.mux.HandleFunc("/api/shorts/stream", s.handleShortsStream)
	s.mux.HandleFunc("/api/shorts/", s.handleShortByID)
	s.mux.HandleFunc("/api/replicate", s.handleGenerationProxy)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}

// statusFromError maps the error taxonomy to HTTP status codes.
func statusFromError(err error) int {
	switch apierr.TypeOf(err) {
	case apierr.ErrValidation:
		return http.StatusBadRequest
	case apierr.ErrAuth:
		return http.StatusUnauthorized
	case apierr.ErrQuota:
		return http.StatusTooManyRequests
	case apierr.ErrInvalidRequest:
		return http.StatusUnprocessableEntity
	case apierr.ErrTimeout:
		return http.StatusGatewayTimeout
	case apierr.ErrTransient, apierr.ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
