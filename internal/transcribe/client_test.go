package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF????WAVE"), 0o644))
	return path
}

func TestTranscribeSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, transcribePath, r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile(audioField)
		require.NoError(t, err)
		assert.Equal(t, "recording.wav", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"text":"hello world","language":"en","language_name":"English"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second)
	result, err := client.Transcribe(context.Background(), writeTempAudio(t), "recording.wav")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, "en", result.Language)
}

func TestTranscribeUnsuccessfulResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"error":"No speech detected"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second)
	result, err := client.Transcribe(context.Background(), writeTempAudio(t), "recording.wav")
	require.NoError(t, err)

	// A 2xx with success false is a valid response, not a transport error.
	assert.False(t, result.Success)
	assert.Equal(t, "No speech detected", result.ErrorMessage)
}

func TestTranscribeUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unsupported format"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second)
	_, err := client.Transcribe(context.Background(), writeTempAudio(t), "recording.wav")
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.StatusCode)
	assert.Contains(t, string(upstream.Body), "unsupported format")
}

func TestTranscribeConnectionRefused(t *testing.T) {
	t.Parallel()

	// A server that is immediately closed leaves a port nothing listens on.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, time.Second)
	_, err := client.Transcribe(context.Background(), writeTempAudio(t), "recording.wav")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTranscribeTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 20*time.Millisecond)
	_, err := client.Transcribe(context.Background(), writeTempAudio(t), "recording.wav")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, analyzePath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"needsConversion":true,"fileExtension":".webm","fileSizeMB":1.5,"estimatedTotalTime":12}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, time.Second)
	analysis, err := client.Analyze(context.Background(), writeTempAudio(t), "recording.webm")
	require.NoError(t, err)

	assert.True(t, analysis.NeedsConversion)
	assert.Equal(t, ".webm", analysis.FileExtension)
	assert.InDelta(t, 12.0, analysis.EstimatedTotalTime, 0.001)
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	client := NewClient("http://localhost:5000/", time.Second, time.Second)
	assert.Equal(t, "http://localhost:5000", client.BaseURL())
}
