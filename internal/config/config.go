package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// AssemblyAI Configuration:
// - ASSEMBLYAI_API_KEY: API key for AssemblyAI (required)
// - ASSEMBLYAI_API_URL: API endpoint URL (default: https://api.assemblyai.com/v2)
//
// Replicate Configuration:
// - REPLICATE_API_KEY: API token for Replicate (required)
// - REPLICATE_API_URL: API endpoint URL (default: https://api.replicate.com/v1)
// - REPLICATE_MODEL_VERSION: model version hash used for clip generation
//
// Thumbnail Configuration:
// - HUGGINGFACE_API_KEY: API key for the inference endpoint (optional; thumbnails disabled without it)
// - HUGGINGFACE_API_URL: inference endpoint URL
//
// YouTube Configuration:
// - YOUTUBE_API_KEY: YouTube Data API key (optional; trends disabled without it)
// - YOUTUBE_API_URL: API endpoint URL (default: https://www.googleapis.com/youtube/v3)
//
// Email Configuration:
// - EMAILJS_SERVICE_ID / EMAILJS_TEMPLATE_ID / EMAILJS_USER_ID: EmailJS identifiers
// - EMAILJS_API_URL: EmailJS REST endpoint
//
// Server Configuration:
// - HTTP_ADDR: listen address (default: :8080)
// - UI_STATIC_DIR: directory with the built SPA bundle (optional)
// - DATA_DIR: directory for the local store (default: ./data)
// - LOG_LEVEL: debug|info|warn|error (default: info)
//
// Trends Configuration:
// - TRENDS_CRON_EXPR: refresh schedule (default: @every 30m)
// - TRENDS_REGIONS: comma-separated region codes to cache (default: US)
// - TRENDS_MAX_RESULTS: videos per region (default: 20)

type Config struct {
	AssemblyAI AssemblyAIConfig `json:"assemblyai"`
	Replicate  ReplicateConfig  `json:"replicate"`
	Thumbnail  ThumbnailConfig  `json:"thumbnail"`
	YouTube    YouTubeConfig    `json:"youtube"`
	Email      EmailConfig      `json:"email"`
	Server     ServerConfig     `json:"server"`
	Trends     TrendsConfig     `json:"trends"`
}

// AssemblyAIConfig holds credentials for the transcription provider.
type AssemblyAIConfig struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url"`
}

// ReplicateConfig holds credentials for the clip generation provider.
// ModelVersion selects the short-clip model on the predictions API.
type ReplicateConfig struct {
	APIKey       string `json:"api_key"`
	APIURL       string `json:"api_url"`
	ModelVersion string `json:"model_version"`
}

type ThumbnailConfig struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url"`
}

type YouTubeConfig struct {
	APIKey string `json:"api_key"`
	APIURL string `json:"api_url"`
}

type EmailConfig struct {
	ServiceID  string `json:"service_id"`
	TemplateID string `json:"template_id"`
	UserID     string `json:"user_id"`
	APIURL     string `json:"api_url"`
}

type ServerConfig struct {
	Addr        string `json:"addr"`
	UIStaticDir string `json:"ui_static_dir"`
	DataDir     string `json:"data_dir"`
	LogLevel    string `json:"log_level"`
}

type TrendsConfig struct {
	CronExpr   string   `json:"cron_expr"`
	Regions    []string `json:"regions"`
	MaxResults int      `json:"max_results"`
}

// DBPath returns the location of the local SQLite store.
func (c ServerConfig) DBPath() string {
	return filepath.Join(c.DataDir, "creator-studio.db")
}

// UploadDir returns the directory where submitted videos are staged.
func (c ServerConfig) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		AssemblyAI: AssemblyAIConfig{
			APIKey: getEnvString("ASSEMBLYAI_API_KEY", ""),
			APIURL: getEnvString("ASSEMBLYAI_API_URL", "https://api.assemblyai.com/v2"),
		},
		Replicate: ReplicateConfig{
			APIKey:       getEnvString("REPLICATE_API_KEY", ""),
			APIURL:       getEnvString("REPLICATE_API_URL", "https://api.replicate.com/v1"),
			ModelVersion: getEnvString("REPLICATE_MODEL_VERSION", "fe63569d6fe76ebd5eae2ff1ae7d8815dabcc9de2f7b30c2acce5c0f62061ed0"),
		},
		Thumbnail: ThumbnailConfig{
			APIKey: getEnvString("HUGGINGFACE_API_KEY", ""),
			APIURL: getEnvString("HUGGINGFACE_API_URL", "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"),
		},
		YouTube: YouTubeConfig{
			APIKey: getEnvString("YOUTUBE_API_KEY", ""),
			APIURL: getEnvString("YOUTUBE_API_URL", "https://www.googleapis.com/youtube/v3"),
		},
		Email: EmailConfig{
			ServiceID:  getEnvString("EMAILJS_SERVICE_ID", ""),
			TemplateID: getEnvString("EMAILJS_TEMPLATE_ID", ""),
			UserID:     getEnvString("EMAILJS_USER_ID", ""),
			APIURL:     getEnvString("EMAILJS_API_URL", "https://api.emailjs.com/api/v1.0/email/send"),
		},
		Server: ServerConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8080"),
			UIStaticDir: getEnvString("UI_STATIC_DIR", ""),
			DataDir:     getEnvString("DATA_DIR", "./data"),
			LogLevel:    getEnvString("LOG_LEVEL", "info"),
		},
		Trends: TrendsConfig{
			CronExpr:   getEnvString("TRENDS_CRON_EXPR", "@every 30m"),
			Regions:    getEnvList("TRENDS_REGIONS", []string{"US"}),
			MaxResults: getEnvInt("TRENDS_MAX_RESULTS", 20),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.AssemblyAI.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	if c.Replicate.APIKey == "" {
		return fmt.Errorf("REPLICATE_API_KEY is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated list from environment variables with default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ret = append(ret, trimmed)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
