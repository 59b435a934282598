package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9191", cfg.Server.Addr())
	assert.Equal(t, "http://localhost:9191", cfg.Server.PublicURL)
	assert.Equal(t, 8, cfg.Feed.PageSize)
	assert.Equal(t, 30*time.Minute, cfg.Feed.CursorTTL)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxSize)
	assert.Equal(t, 7*time.Second, cfg.Remote.ListTimeout)
	assert.Equal(t, 15*time.Second, cfg.Remote.MultipartTimeout)
	assert.False(t, cfg.Mail.MailEnabled())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRemoteOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BLOGME_API_BASE", "https://api.blogme.test")
	t.Setenv("REMOTE_REACT_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.blogme.test", cfg.Remote.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Remote.ReactTimeout)
	assert.Equal(t, 9*time.Second, cfg.Remote.CreateTimeout)

	t.Setenv("REMOTE_REACT_TIMEOUT", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "REMOTE_REACT_TIMEOUT")
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	t.Setenv("FEED_PAGE_SIZE", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "FEED_PAGE_SIZE")

	t.Setenv("FEED_PAGE_SIZE", "8")
	t.Setenv("SERVER_PORT", "http")
	_, err = Load()
	assert.ErrorContains(t, err, "SERVER_PORT")
}

func TestMailEnabledNeedsKeyAndModerator(t *testing.T) {
	m := MailConfig{ResendAPIKey: "re_123"}
	assert.False(t, m.MailEnabled())

	m.ModeratorEmail = "mod@blogme.test"
	assert.True(t, m.MailEnabled())
}
