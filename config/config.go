// Package config holds the whole application configuration in one place.
// Values come from environment variables; a .env file is loaded first when
// present so local development does not need exported variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every configuration section.
// Each section is its own struct so packages only receive what they use.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Remote    RemoteConfig
	Upload    UploadConfig
	Feed      FeedConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
}

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	Host      string
	Port      int
	PublicURL string // used to build share links (ex: http://localhost:9090)
}

// DatabaseConfig points at the device-local SQLite store.
type DatabaseConfig struct {
	Path string // ex: ./data/blogme.db
}

// JWTConfig configures session tokens issued to the browser.
type JWTConfig struct {
	Secret             string // signing key, keep it secret
	AccessTokenExpiry  int    // minutes (default: 60)
	RefreshTokenExpiry int    // days (default: 30)
}

// RemoteConfig describes the remote BlogMe backend and the per-operation
// timeouts used by the gateway. Reads are the shortest, uploads the longest.
type RemoteConfig struct {
	BaseURL string // ex: http://localhost:4000

	ListTimeout      time.Duration
	CreateTimeout    time.Duration
	MultipartTimeout time.Duration
	UpdateTimeout    time.Duration
	DeleteTimeout    time.Duration
	ReactTimeout     time.Duration
	UploadTimeout    time.Duration
	ReportTimeout    time.Duration
	AuthTimeout      time.Duration
}

// UploadConfig limits images attached to posts and avatars.
type UploadConfig struct {
	MaxSize int64 // bytes (default: 5MB)
}

// FeedConfig configures the feed pager.
type FeedConfig struct {
	PageSize  int
	CursorTTL time.Duration // idle viewer cursors are dropped after this
}

// MailConfig is optional. With an empty APIKey report notices are not sent.
type MailConfig struct {
	ResendAPIKey   string
	FromEmail      string
	ModeratorEmail string
}

// RateLimitConfig groups the request limiters.
type RateLimitConfig struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration
	ReportsPerMinute float64
	ReportBurst      int
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	// Missing .env is fine, production uses real variables.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	maxSize, err := strconv.ParseInt(getEnv("UPLOAD_MAX_SIZE", "5242880"), 10, 64) // 5MB
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_SIZE: %w", err)
	}

	pageSize, err := strconv.Atoi(getEnv("FEED_PAGE_SIZE", "8"))
	if err != nil || pageSize <= 0 {
		return nil, fmt.Errorf("invalid FEED_PAGE_SIZE: %q", getEnv("FEED_PAGE_SIZE", "8"))
	}

	cursorTTL, err := getDuration("FEED_CURSOR_TTL", "30m")
	if err != nil {
		return nil, err
	}

	loginAttempts, err := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}
	loginWindow, err := getDuration("LOGIN_WINDOW", "5m")
	if err != nil {
		return nil, err
	}

	reportsPerMinute, err := strconv.ParseFloat(getEnv("REPORTS_PER_MINUTE", "3"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORTS_PER_MINUTE: %w", err)
	}
	reportBurst, err := strconv.Atoi(getEnv("REPORT_BURST", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_BURST: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	remote, err := loadRemote()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "127.0.0.1"),
			Port:      port,
			PublicURL: getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/blogme.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Remote: remote,
		Upload: UploadConfig{
			MaxSize: maxSize,
		},
		Feed: FeedConfig{
			PageSize:  pageSize,
			CursorTTL: cursorTTL,
		},
		Mail: MailConfig{
			ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
			FromEmail:      getEnv("RESEND_FROM", "BlogMe <noreply@blogme.local>"),
			ModeratorEmail: getEnv("MODERATOR_EMAIL", ""),
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts: loginAttempts,
			LoginWindow:      loginWindow,
			ReportsPerMinute: reportsPerMinute,
			ReportBurst:      reportBurst,
		},
	}

	return cfg, nil
}

// DefaultRemote returns the gateway timeouts the web client always used.
func DefaultRemote(baseURL string) RemoteConfig {
	return RemoteConfig{
		BaseURL:          baseURL,
		ListTimeout:      7 * time.Second,
		CreateTimeout:    9 * time.Second,
		MultipartTimeout: 15 * time.Second,
		UpdateTimeout:    8 * time.Second,
		DeleteTimeout:    7 * time.Second,
		ReactTimeout:     7 * time.Second,
		UploadTimeout:    15 * time.Second,
		ReportTimeout:    7 * time.Second,
		AuthTimeout:      8 * time.Second,
	}
}

func loadRemote() (RemoteConfig, error) {
	rc := DefaultRemote(getEnv("BLOGME_API_BASE", "http://localhost:4000"))

	overrides := []struct {
		key string
		dst *time.Duration
	}{
		{"REMOTE_LIST_TIMEOUT", &rc.ListTimeout},
		{"REMOTE_CREATE_TIMEOUT", &rc.CreateTimeout},
		{"REMOTE_MULTIPART_TIMEOUT", &rc.MultipartTimeout},
		{"REMOTE_UPDATE_TIMEOUT", &rc.UpdateTimeout},
		{"REMOTE_DELETE_TIMEOUT", &rc.DeleteTimeout},
		{"REMOTE_REACT_TIMEOUT", &rc.ReactTimeout},
		{"REMOTE_UPLOAD_TIMEOUT", &rc.UploadTimeout},
		{"REMOTE_REPORT_TIMEOUT", &rc.ReportTimeout},
		{"REMOTE_AUTH_TIMEOUT", &rc.AuthTimeout},
	}
	for _, o := range overrides {
		val, ok := os.LookupEnv(o.key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return RemoteConfig{}, fmt.Errorf("invalid %s: %w", o.key, err)
		}
		*o.dst = d
	}

	return rc, nil
}

// Addr returns the listen address (ex: "127.0.0.1:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MailEnabled reports whether moderator notices can be sent.
func (c *MailConfig) MailEnabled() bool {
	return c.ResendAPIKey != "" && c.ModeratorEmail != ""
}

// getEnv reads an environment variable, falling back when it is unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
