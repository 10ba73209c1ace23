package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/storage"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/internal/transcribe"
	"github.com/voicescript/apiserver/types"
)

const (
	// maxUploadBytes caps audio uploads at 16MB, matching the limit
	// the transcription service enforces.
	maxUploadBytes     = 16 << 20
	maxMultipartMemory = 32 << 20
	formFieldAudio     = "audio"
	formFieldUserID    = "userId"
)

// allowedAudioMimes is the upload whitelist. Anything else is rejected
// before the file reaches the transcription path.
var allowedAudioMimes = map[string]struct{}{
	"audio/wav":   {},
	"audio/mpeg":  {},
	"audio/mp3":   {},
	"audio/mp4":   {},
	"audio/webm":  {},
	"audio/ogg":   {},
	"audio/flac":  {},
	"audio/m4a":   {},
	"audio/x-m4a": {},
}

// Transcriber is the outbound contract of the Python transcription
// service client.
type Transcriber interface {
	Analyze(ctx context.Context, filePath, filename string) (transcribe.Analysis, error)
	Transcribe(ctx context.Context, filePath, filename string) (transcribe.Result, error)
	BaseURL() string
}

// NoteHandler provides HTTP handlers for notes, including the
// upload-and-transcribe proxy.
type NoteHandler struct {
	noteService *services.NoteService
	transcriber Transcriber
	archive     *storage.Archive
	uploadDir   string
	logger      *slog.Logger
}

// NewNoteHandler constructs a handler. transcriber and archive may be
// nil when the corresponding feature is disabled.
func NewNoteHandler(noteService *services.NoteService, transcriber Transcriber, archive *storage.Archive, uploadDir string, logger *slog.Logger) *NoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteHandler{
		noteService: noteService,
		transcriber: transcriber,
		archive:     archive,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// NoteRouter registers note routes on the given router. The search and
// upload routes are registered before the parameterized ones so they
// are never shadowed.
func NoteRouter(r chi.Router, handler *NoteHandler) {
	r.Get("/search/{userID}", handler.Search)
	r.Post("/upload", handler.UploadAndTranscribe)
	r.Get("/{userID}", handler.List)
	r.Post("/", handler.Create)
	r.Put("/{noteID}", handler.Update)
	r.Delete("/{noteID}", handler.Delete)
	r.Post("/{noteID}/duplicate", handler.Duplicate)
}

// List returns the user's notes, optionally filtered by ?categoryId=.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	categoryID, err := parseOptionalQueryInt(r, "categoryId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := h.noteService.List(r.Context(), userID, categoryID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Search matches ?q= as a substring of title or content. A blank query
// means "return all notes".
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	term := strings.TrimSpace(r.URL.Query().Get("q"))
	var notes []types.Note
	if term == "" {
		notes, err = h.noteService.List(r.Context(), userID, nil)
	} else {
		notes, err = h.noteService.Search(r.Context(), userID, term)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

type CreateNoteRequest struct {
	UserID     int    `json:"userId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Color      string `json:"color"`
	CategoryID *int   `json:"categoryId"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 || req.Title == "" {
		writeError(w, http.StatusBadRequest, "User ID and title are required")
		return
	}

	note, err := h.noteService.Create(r.Context(), types.Note{
		UserID:     req.UserID,
		Title:      req.Title,
		Content:    req.Content,
		Color:      req.Color,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update types.NoteUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	note, err := h.noteService.Update(r.Context(), noteID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.noteService.Delete(r.Context(), noteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Note deleted successfully"})
}

type DuplicateNoteRequest struct {
	UserID int `json:"userId"`
}

func (h *NoteHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req DuplicateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	note, err := h.noteService.Duplicate(r.Context(), noteID, req.UserID)
	if err != nil {
		// A missing note and someone else's note get the same answer
		// so the endpoint reveals nothing about other users' notes.
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrNotOwned) {
			writeError(w, http.StatusNotFound, "Note not found or unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UploadAndTranscribe accepts a multipart audio upload, forwards it to
// the transcription service, and persists the transcript as a note.
// The spooled temp file is removed on every exit path by a single
// deferred cleanup.
func (h *NoteHandler) UploadAndTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "Transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	userID, err := strconv.Atoi(strings.TrimSpace(r.FormValue(formFieldUserID)))
	if err != nil || userID < 1 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	files := r.MultipartForm.File[formFieldAudio]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "Audio file is required")
		return
	}
	fileHeader := files[0]

	if _, ok := allowedAudioMimes[fileHeader.Header.Get("Content-Type")]; !ok {
		writeError(w, http.StatusUnsupportedMediaType, "Invalid file type. Only audio files are allowed.")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		writeError(w, http.StatusBadRequest, "Audio file exceeds the 16MB limit")
		return
	}

	tempPath, err := h.spoolUpload(fileHeader)
	if err != nil {
		h.logger.Error("failed to spool upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			h.logger.Error("failed to remove temp upload", "path", tempPath, "error", err)
		}
	}()

	// Best-effort metadata analysis; a failing or slow analysis call
	// never blocks transcription.
	var metadata json.RawMessage
	analysis, err := h.transcriber.Analyze(r.Context(), tempPath, fileHeader.Filename)
	if err != nil {
		h.logger.Warn("audio analysis failed", "file", fileHeader.Filename, "error", err)
	} else if encoded, marshalErr := json.Marshal(analysis); marshalErr == nil {
		metadata = encoded
	}

	result, err := h.transcriber.Transcribe(r.Context(), tempPath, fileHeader.Filename)
	if err != nil {
		h.writeTranscribeError(w, err)
		return
	}
	if !result.Success || strings.TrimSpace(result.Text) == "" {
		writeError(w, http.StatusBadRequest, "Could not understand the audio. Please ensure the recording contains clear speech and try again.")
		return
	}
	if len(result.Metadata) > 0 {
		metadata = result.Metadata
	}

	title := services.TitleFromFilename(fileHeader.Filename)
	note, err := h.noteService.CreateFromTranscript(r.Context(), userID, title, result.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.archiveRecording(r.Context(), note.ID, fileHeader.Filename, tempPath)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Audio transcribed successfully",
		"note":     note,
		"language": result.Language,
		"metadata": metadata,
	})
}

// writeTranscribeError maps transport failures onto the HTTP contract:
// refused connections mean the service is down (503), deadlines mean it
// is too slow (504), and upstream HTTP errors are surfaced verbatim.
func (h *NoteHandler) writeTranscribeError(w http.ResponseWriter, err error) {
	var upstream *transcribe.UpstreamError
	switch {
	case errors.Is(err, transcribe.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable,
			fmt.Sprintf("Transcription service is unavailable. Make sure the Python service is running at %s", h.transcriber.BaseURL()))
	case errors.Is(err, transcribe.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "Transcription timed out. Please try a shorter recording.")
	case errors.As(err, &upstream):
		message := "Transcription failed"
		var body struct {
			Error string `json:"error"`
		}
		if jsonErr := json.Unmarshal(upstream.Body, &body); jsonErr == nil && body.Error != "" {
			message = body.Error
		}
		writeErrorDetail(w, upstream.StatusCode, message, string(upstream.Body))
	default:
		h.logger.Error("transcription request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error during transcription")
	}
}

// spoolUpload writes the multipart file to the upload directory under
// a unique name and returns its path.
func (h *NoteHandler) spoolUpload(fileHeader *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := filepath.Ext(fileHeader.Filename)
	dst, err := os.CreateTemp(h.uploadDir, "audio-*"+ext)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// archiveRecording retains the original audio in object storage when
// archival is configured. Best-effort: failures are logged only.
func (h *NoteHandler) archiveRecording(ctx context.Context, noteID int, filename, tempPath string) {
	if h.archive == nil {
		return
	}
	file, err := os.Open(tempPath)
	if err != nil {
		h.logger.Error("failed to open recording for archival", "note_id", noteID, "error", err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		h.logger.Error("failed to stat recording for archival", "note_id", noteID, "error", err)
		return
	}
	if err := h.archive.SaveRecording(ctx, noteID, filename, file, info.Size(), mimeFromExt(filename)); err != nil {
		h.logger.Error("failed to archive recording", "note_id", noteID, "error", err)
	}
}

func mimeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4", ".m4a":
		return "audio/mp4"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
