package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clipforge/creator-studio/internal/youtube"
)

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.trends == nil {
		writeError(w, http.StatusNotImplemented, "trends cache is not configured")
		return
	}

	region := r.URL.Query().Get("region")
	if region == "" {
		region = "US"
	}
	snapshot, err := s.trends.Get(r.Context(), region)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleTrendsStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.trends == nil {
		writeError(w, http.StatusNotImplemented, "trends cache is not configured")
		return
	}
	status, err := s.trends.Status()
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.search == nil {
		writeError(w, http.StatusNotImplemented, "youtube client is not configured")
		return
	}

	categories, err := s.search.Categories(r.Context(), r.URL.Query().Get("region"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.search == nil {
		writeError(w, http.StatusNotImplemented, "youtube client is not configured")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	videos, err := s.search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	if s.ideas == nil {
		writeError(w, http.StatusNotImplemented, "idea store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ideas, err := s.ideas.ListIdeas(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ideas)
	case http.MethodPost:
		var video youtube.Video
		if err := json.NewDecoder(r.Body).Decode(&video); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if video.ID == "" {
			writeError(w, http.StatusBadRequest, "video id is required")
			return
		}
		created, err := s.ideas.SaveIdea(r.Context(), video)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		code := http.StatusCreated
		if !created {
			code = http.StatusOK
		}
		writeJSON(w, code, map[string]any{
			"created":  created,
			"video_id": video.ID,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleIdeaByID(w http.ResponseWriter, r *http.Request) {
	if s.ideas == nil {
		writeError(w, http.StatusNotImplemented, "idea store is not configured")
		return
	}

	videoID := strings.TrimPrefix(r.URL.Path, "/api/ideas/")
	videoID = strings.TrimSuffix(videoID, "/")
	if decoded, err := url.PathUnescape(videoID); err == nil {
		videoID = decoded
	}
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "missing video id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		saved, err := s.ideas.HasIdea(r.Context(), videoID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"video_id": videoID,
			"saved":    saved,
		})
	case http.MethodDelete:
		if err := s.ideas.RemoveIdea(r.Context(), videoID); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"removed": videoID,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type thumbnailRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.thumbnails == nil {
		writeError(w, http.StatusNotImplemented, "thumbnail client is not configured")
		return
	}

	var req thumbnailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	imageURL, err := s.thumbnails.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"image_url": imageURL,
	})
}

// handleGenerationProxy forwards the raw request body to the generation
// provider with the server-held credential, so the browser never sees
// the API key.
func (s *Server) handleGenerationProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.proxy == nil {
		writeError(w, http.StatusNotImplemented, "generation proxy is not configured")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	status, body, err := s.proxy.Forward(r.Context(), payload)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
