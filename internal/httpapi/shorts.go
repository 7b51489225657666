package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipforge/creator-studio/internal/assemblyai"
	"github.com/clipforge/creator-studio/internal/jobs"
	"github.com/clipforge/creator-studio/pkg/log"
)

// multipartOverhead leaves room for the form framing around the video
// part.
const multipartOverhead = 1 << 20

func (s *Server) handleShorts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.queue.List())
	case http.MethodPost:
		s.handleShortsSubmit(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleShortsSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, assemblyai.MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer file.Close()

	contentType := assemblyai.DetectContentType(header.Filename)
	if contentType == "" {
		contentType = header.Header.Get("Content-Type")
	}
	if !assemblyai.SupportedFormat(contentType) {
		writeError(w, http.StatusBadRequest, "unsupported video format: "+contentType)
		return
	}
	if header.Size > assemblyai.MaxUploadSize {
		writeError(w, http.StatusBadRequest, "video exceeds the 100 MiB upload limit")
		return
	}

	uploadPath, dedupeKey, err := s.storeUpload(file, header.Filename)
	if err != nil {
		log.Error("Failed to store upload %s: %v", header.Filename, err)
		writeError(w, http.StatusInternalServerError, "store uploaded file")
		return
	}

	job, created := s.queue.Enqueue(jobs.EnqueueRequest{
		Source:    "upload",
		DedupeKey: dedupeKey,
		Payload: jobs.JobPayload{
			UploadPath:  uploadPath,
			ContentType: contentType,
			NotifyEmail: r.FormValue("email"),
		},
	})
	if !created && uploadPath != job.Payload.UploadPath {
		// Same bytes are already queued or running under a different
		// staged name, drop the duplicate copy. When the paths match the
		// rename above already replaced the file with identical bytes,
		// and removing it would starve the pending job.
		_ = os.Remove(uploadPath)
	}

	code := http.StatusCreated
	if !created {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"created": created,
		"job":     job,
	})
}

// storeUpload copies the uploaded stream into the upload directory and
// returns the stored path plus a content-hash dedupe key.
func (s *Server) storeUpload(src io.Reader, originalName string) (string, string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", "", err
	}

	tmp, err := os.CreateTemp(s.uploadDir, "upload-*")
	if err != nil {
		return "", "", err
	}
	defer tmp.Close()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), src); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", err
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	finalPath := filepath.Join(s.uploadDir, sum+strings.ToLower(filepath.Ext(originalName)))
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", err
	}
	return finalPath, "sha256:" + sum, nil
}

func (s *Server) handleShortByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/shorts/")
	jobID = strings.TrimSuffix(jobID, "/")
	if decoded, err := url.PathUnescape(jobID); err == nil {
		jobID = decoded
	}
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	job, ok := s.queue.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}
