// Package transcribe is the HTTP client for the external Python
// transcription service. The service is an opaque dependency with two
// multipart endpoints: /api/analyze-file (fast metadata inspection)
// and /api/transcribe-file (the actual speech-to-text call).
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"
)

const (
	analyzePath    = "/api/analyze-file"
	transcribePath = "/api/transcribe-file"
	// audioField is the multipart field name both endpoints expect.
	audioField = "audio"
)

// ErrUnavailable reports that the service could not be reached at all
// (connection refused). Handlers map it to 503.
var ErrUnavailable = errors.New("transcription service unavailable")

// ErrTimeout reports that a call exceeded its deadline. Handlers map
// it to 504.
var ErrTimeout = errors.New("transcription service timed out")

// UpstreamError carries a non-2xx response from the service so the
// handler can surface its status and body to the caller.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("transcription service returned %d", e.StatusCode)
}

// Result is the transcription outcome. Success false with a 2xx status
// means the audio yielded no usable transcript, which the handler
// treats as client-correctable input.
type Result struct {
	Success      bool            `json:"success"`
	Text         string          `json:"text"`
	Language     string          `json:"language"`
	LanguageName string          `json:"language_name"`
	Metadata     json.RawMessage `json:"metadata"`
	ErrorMessage string          `json:"error"`
}

// Analysis is the optional pre-flight metadata for an upload.
type Analysis struct {
	NeedsConversion            bool    `json:"needsConversion"`
	FileExtension              string  `json:"fileExtension"`
	FileSizeMB                 float64 `json:"fileSizeMB"`
	EstimatedConversionTime    float64 `json:"estimatedConversionTime"`
	EstimatedTranscriptionTime float64 `json:"estimatedTranscriptionTime"`
	EstimatedTotalTime         float64 `json:"estimatedTotalTime"`
}

// Client talks to the transcription service with fixed per-call
// timeouts. Calls are never retried; a timeout surfaces as ErrTimeout.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	analyzeTimeout    time.Duration
	transcribeTimeout time.Duration
}

func NewClient(baseURL string, analyzeTimeout, transcribeTimeout time.Duration) *Client {
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		httpClient:        &http.Client{},
		analyzeTimeout:    analyzeTimeout,
		transcribeTimeout: transcribeTimeout,
	}
}

// BaseURL returns the configured service root, used in remediation
// messages when the service is unreachable.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze asks the service for conversion/duration estimates for the
// file. Best-effort: callers swallow and log any error.
func (c *Client) Analyze(ctx context.Context, filePath, filename string) (Analysis, error) {
	body, err := c.postAudio(ctx, analyzePath, filePath, filename, c.analyzeTimeout)
	if err != nil {
		return Analysis{}, err
	}
	var analysis Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis response: %w", err)
	}
	return analysis, nil
}

// Transcribe sends the file for speech-to-text conversion.
func (c *Client) Transcribe(ctx context.Context, filePath, filename string) (Result, error) {
	body, err := c.postAudio(ctx, transcribePath, filePath, filename, c.transcribeTimeout)
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, fmt.Errorf("decode transcription response: %w", err)
	}
	return result, nil
}

func (c *Client) postAudio(ctx context.Context, path, filePath, filename string, timeout time.Duration) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(audioField, filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// classify maps transport failures onto the client's sentinel errors.
func classify(err error) error {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
