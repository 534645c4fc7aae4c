package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{
		Environment: "development",
	}
	assert.True(t, cfg.IsDevelopment())

	cfg = &Config{
		Environment: "production",
	}
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestLoadWithOptions(t *testing.T) {
	// Set environment variables for the test
	os.Setenv("META_ACCESS_TOKEN", "test-token")
	os.Setenv("DB_HOST", "testhost")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_USER", "testuser")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("DB_NAME", "test_waplane")
	os.Setenv("REDIS_ADDR", "redis:6380")
	os.Setenv("SENDER_MESSAGES_PER_SECOND", "40")
	os.Setenv("SENDER_FETCH_TIMEOUT", "2s")
	os.Setenv("ENVIRONMENT", "development")

	// Clean up after the test
	defer func() {
		os.Unsetenv("META_ACCESS_TOKEN")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("DB_USER")
		os.Unsetenv("DB_PASSWORD")
		os.Unsetenv("DB_NAME")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("SENDER_MESSAGES_PER_SECOND")
		os.Unsetenv("SENDER_FETCH_TIMEOUT")
		os.Unsetenv("ENVIRONMENT")
	}()

	cfg, err := LoadWithOptions(LoadOptions{EnvFile: ""})
	require.NoError(t, err)

	assert.Equal(t, "testhost", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "test_waplane", cfg.Database.DBName)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "waplane-workers", cfg.Redis.ConsumerGroup)
	assert.Equal(t, "test-token", cfg.Meta.AccessToken)
	assert.Equal(t, "v21.0", cfg.Meta.APIVersion)
	assert.Equal(t, 40, cfg.Sender.MessagesPerSecond)
	assert.Equal(t, 2*time.Second, cfg.Sender.FetchTimeout)
	assert.Equal(t, time.Minute, cfg.Sender.SweepInterval)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadWithOptions_MissingAccessToken(t *testing.T) {
	os.Unsetenv("META_ACCESS_TOKEN")

	_, err := LoadWithOptions(LoadOptions{EnvFile: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "META_ACCESS_TOKEN")
}

func TestLoadWithOptions_InvalidDuration(t *testing.T) {
	os.Setenv("META_ACCESS_TOKEN", "test-token")
	os.Setenv("SENDER_FETCH_TIMEOUT", "not-a-duration")
	defer func() {
		os.Unsetenv("META_ACCESS_TOKEN")
		os.Unsetenv("SENDER_FETCH_TIMEOUT")
	}()

	_, err := LoadWithOptions(LoadOptions{EnvFile: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SENDER_FETCH_TIMEOUT")
}
