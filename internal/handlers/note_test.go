package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/transcribe"
	"github.com/voicescript/apiserver/types"
)

type fakeTranscriber struct {
	result        transcribe.Result
	transcribeErr error
	analysis      transcribe.Analysis
	analyzeErr    error
	baseURL       string
}

func (f *fakeTranscriber) Analyze(ctx context.Context, filePath, filename string) (transcribe.Analysis, error) {
	return f.analysis, f.analyzeErr
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filePath, filename string) (transcribe.Result, error) {
	return f.result, f.transcribeErr
}

func (f *fakeTranscriber) BaseURL() string {
	if f.baseURL == "" {
		return "http://localhost:5000"
	}
	return f.baseURL
}

type noteEnv struct {
	handler *NoteHandler
	notes   *fakeNoteStore
	dir     string
}

func newNoteEnv(t *testing.T, transcriber Transcriber) noteEnv {
	t.Helper()
	notes := newFakeNoteStore()
	dir := t.TempDir()
	return noteEnv{
		handler: NewNoteHandler(services.NewNoteService(notes, nil, nil), transcriber, nil, dir, nil),
		notes:   notes,
		dir:     dir,
	}
}

func (e noteEnv) noteCount() int {
	e.notes.mu.Lock()
	defer e.notes.mu.Unlock()
	return len(e.notes.notes)
}

func (e noteEnv) tempFileCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.dir)
	require.NoError(t, err)
	return len(entries)
}

// uploadRequest builds a multipart upload with the given part MIME
// type, the way a browser posts a recording.
func uploadRequest(t *testing.T, filename, mimeType string, userID int) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake audio bytes"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("userId", strconv.Itoa(userID)))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadAndTranscribe(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{
		result: transcribe.Result{Success: true, Text: "hello from the recording", Language: "en"},
	})

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, uploadRequest(t, "standup-notes.wav", "audio/wav", 1))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Audio transcribed successfully", body["message"])

	note := body["note"].(map[string]any)
	assert.Equal(t, "standup-notes", note["title"])
	assert.Equal(t, "hello from the recording", note["content"])

	assert.Equal(t, 1, env.noteCount())
	// The spooled temp file is removed once the request finishes.
	assert.Zero(t, env.tempFileCount(t))
}

func TestUploadRejectsNonAudio(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{})

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, uploadRequest(t, "notes.pdf", "application/pdf", 1))

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "Invalid file type. Only audio files are allowed.", decodeBody(t, rec)["message"])
	assert.Zero(t, env.noteCount())
	assert.Zero(t, env.tempFileCount(t))
}

func TestUploadUnsuccessfulTranscription(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{
		result: transcribe.Result{Success: false, ErrorMessage: "No speech detected"},
	})

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, uploadRequest(t, "silence.wav", "audio/wav", 1))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "clear speech")
	assert.Zero(t, env.noteCount())
	assert.Zero(t, env.tempFileCount(t))
}

func TestUploadServiceUnavailable(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{
		transcribeErr: transcribe.ErrUnavailable,
		baseURL:       "http://localhost:5000",
	})

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, uploadRequest(t, "memo.wav", "audio/wav", 1))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "http://localhost:5000")
	assert.Zero(t, env.noteCount())
}

func TestUploadServiceTimeout(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{transcribeErr: transcribe.ErrTimeout})

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, uploadRequest(t, "memo.wav", "audio/wav", 1))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Zero(t, env.noteCount())
}

func TestUploadUpstreamErrorSurfaced(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{
		transcribeErr: &transcribe.UpstreamError{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       []byte(`{"error":"unsupported sample rate"}`),
		},
	})

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, uploadRequest(t, "memo.wav", "audio/wav", 1))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "unsupported sample rate", decodeBody(t, rec)["message"])
}

func TestUploadMissingUserID(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, &fakeTranscriber{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	env.handler.UploadAndTranscribe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoteCreateHandler(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, nil)

	req := requestWithParams(t, http.MethodPost, "/", map[string]any{
		"userId": 1,
		"title":  "Shopping",
	}, types.User{ID: 1}, nil)
	rec := httptest.NewRecorder()
	env.handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var note types.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.Equal(t, "Shopping", note.Title)
	assert.Equal(t, types.DefaultNoteColor, note.Color)
}

func TestNoteCreateHandlerMissingTitle(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, nil)

	req := requestWithParams(t, http.MethodPost, "/", map[string]any{"userId": 1},
		types.User{ID: 1}, nil)
	rec := httptest.NewRecorder()
	env.handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoteDuplicateHandlerNotOwned(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, nil)
	id, err := env.notes.Create(context.Background(), types.Note{UserID: 2, Title: "Private"})
	require.NoError(t, err)

	req := requestWithParams(t, http.MethodPost, "/"+strconv.Itoa(id)+"/duplicate",
		map[string]any{"userId": 1}, types.User{ID: 1}, map[string]string{"noteID": strconv.Itoa(id)})
	rec := httptest.NewRecorder()
	env.handler.Duplicate(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found or unauthorized", decodeBody(t, rec)["message"])
}

func TestNoteUpdateHandlerMissing(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, nil)

	req := requestWithParams(t, http.MethodPut, "/42", map[string]any{"title": "New"},
		types.User{ID: 1}, map[string]string{"noteID": "42"})
	rec := httptest.NewRecorder()
	env.handler.Update(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoteUpdateClearsCategory(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, nil)
	categoryID := 4
	id, err := env.notes.Create(context.Background(), types.Note{
		UserID: 1, Title: "Filed", CategoryID: &categoryID,
	})
	require.NoError(t, err)

	// An explicit null uncategorizes the note; it is not "field absent".
	req := requestWithParams(t, http.MethodPut, "/"+strconv.Itoa(id),
		json.RawMessage(`{"category_id":null}`),
		types.User{ID: 1}, map[string]string{"noteID": strconv.Itoa(id)})
	rec := httptest.NewRecorder()
	env.handler.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	note, err := env.notes.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, note.CategoryID)
}

func TestNoteDeleteHandler(t *testing.T) {
	t.Parallel()

	env := newNoteEnv(t, nil)
	id, err := env.notes.Create(context.Background(), types.Note{UserID: 1, Title: "Gone"})
	require.NoError(t, err)

	req := requestWithParams(t, http.MethodDelete, "/"+strconv.Itoa(id), nil,
		types.User{ID: 1}, map[string]string{"noteID": strconv.Itoa(id)})
	rec := httptest.NewRecorder()
	env.handler.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.noteCount())
}
