// Package persistence stores jobs and saved ideas in a local SQLite
// database so both survive restarts.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clipforge/creator-studio/internal/jobs"
	"github.com/clipforge/creator-studio/internal/youtube"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.ShortsJob, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, source, dedupe_key, upload_path, content_type, notify_email, status, stage, percent, result_json, error, created_at, updated_at
		 FROM jobs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.ShortsJob, 0)
	for rows.Next() {
		var item jobs.ShortsJob
		var status string
		var resultJSON string
		if err := rows.Scan(
			&item.ID,
			&item.Source,
			&item.DedupeKey,
			&item.Payload.UploadPath,
			&item.Payload.ContentType,
			&item.Payload.NotifyEmail,
			&status,
			&item.Stage,
			&item.Percent,
			&resultJSON,
			&item.Error,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.Status = jobs.Status(status)
		if resultJSON != "" {
			var result jobs.JobResult
			if err := json.Unmarshal([]byte(resultJSON), &result); err == nil {
				item.Result = &result
			}
		}
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.ShortsJob) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	resultJSON := ""
	if job.Result != nil {
		payload, err := json.Marshal(job.Result)
		if err != nil {
			return err
		}
		resultJSON = string(payload)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, source, dedupe_key, upload_path, content_type, notify_email, status, stage, percent, result_json, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source=excluded.source,
			dedupe_key=excluded.dedupe_key,
			upload_path=excluded.upload_path,
			content_type=excluded.content_type,
			notify_email=excluded.notify_email,
			status=excluded.status,
			stage=excluded.stage,
			percent=excluded.percent,
			result_json=excluded.result_json,
			error=excluded.error,
			updated_at=excluded.updated_at`,
		job.ID,
		job.Source,
		job.DedupeKey,
		job.Payload.UploadPath,
		job.Payload.ContentType,
		job.Payload.NotifyEmail,
		string(job.Status),
		job.Stage,
		job.Percent,
		resultJSON,
		job.Error,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}

// DeleteJobData removes the uploaded source file of a job from disk.
func (s *SQLiteStore) DeleteJobData(ctx context.Context, jobID string) error {
	row := s.db.QueryRowContext(ctx, `SELECT upload_path FROM jobs WHERE id = ?`, jobID)
	var uploadPath string
	if err := row.Scan(&uploadPath); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	if uploadPath == "" {
		return nil
	}
	if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload %s: %w", uploadPath, err)
	}
	return nil
}

// SaveIdea bookmarks a video. Saving the same video twice is a no-op;
// the returned flag reports whether a new row was created.
func (s *SQLiteStore) SaveIdea(ctx context.Context, video youtube.Video) (bool, error) {
	if strings.TrimSpace(video.ID) == "" {
		return false, fmt.Errorf("video id is required")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO saved_ideas (video_id, title, channel_title, view_count, thumbnail_url, published_at, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(video_id) DO NOTHING`,
		video.ID,
		video.Title,
		video.ChannelTitle,
		video.ViewCount,
		video.ThumbnailURL,
		video.PublishedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListIdeas returns bookmarks in the order they were saved.
func (s *SQLiteStore) ListIdeas(ctx context.Context) ([]SavedIdea, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT video_id, title, channel_title, view_count, thumbnail_url, published_at, saved_at
		 FROM saved_ideas
		 ORDER BY saved_at ASC, video_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]SavedIdea, 0)
	for rows.Next() {
		var idea SavedIdea
		if err := rows.Scan(
			&idea.Video.ID,
			&idea.Video.Title,
			&idea.Video.ChannelTitle,
			&idea.Video.ViewCount,
			&idea.Video.ThumbnailURL,
			&idea.Video.PublishedAt,
			&idea.SavedAt,
		); err != nil {
			return nil, err
		}
		ret = append(ret, idea)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// HasIdea reports whether a video is already bookmarked.
func (s *SQLiteStore) HasIdea(ctx context.Context, videoID string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saved_ideas WHERE video_id = ?`, videoID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// RemoveIdea deletes a bookmark. Removing an absent bookmark is a
// no-op.
func (s *SQLiteStore) RemoveIdea(ctx context.Context, videoID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_ideas WHERE video_id = ?`, videoID)
	return err
}
