package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 5001, cfg.ServerPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "voicescript_sid", cfg.Session.CookieName)
	assert.Equal(t, 24, cfg.Session.TTLHours)
	assert.Equal(t, "http://localhost:5000", cfg.Transcriber.BaseURL)
	assert.Equal(t, 30, cfg.Transcriber.AnalyzeTimeoutSeconds)
	assert.Equal(t, 300, cfg.Transcriber.TranscribeTimeoutSeconds)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Archive.Backend)
	assert.Empty(t, cfg.Events.Backend)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("PYTHON_SERVICE_URL", "http://transcriber:5000")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("ARCHIVE_BACKEND", "minio")

	cfg := LoadConfig()

	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "http://transcriber:5000", cfg.Transcriber.BaseURL)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, "minio", cfg.Archive.Backend)
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "YES", want: true},
		{value: "false", want: false},
		{value: "0", want: false},
		{value: "off", want: false},
		{value: "garbage", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getEnvBool("TEST_BOOL", false))
		})
	}
}
