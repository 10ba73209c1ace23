package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

const (
	defaultFeedbackLimit  = 50
	defaultFeedbackOffset = 0
)

// FeedbackHandler provides HTTP handlers for transcription feedback
// and its aggregate statistics.
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	noteService     *services.NoteService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService, noteService *services.NoteService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, noteService: noteService}
}

// FeedbackRouter registers feedback routes. The caller mounts it
// behind the auth gate; requireAdmin additionally guards the admin
// aggregates.
func FeedbackRouter(r chi.Router, handler *FeedbackHandler, requireAdmin func(http.Handler) http.Handler) {
	r.Post("/notes/{noteID}", handler.Create)
	r.Get("/notes/{noteID}", handler.ListByNote)
	r.Get("/user", handler.ListByUser)
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/admin/all", handler.ListAll)
		r.Get("/admin/statistics", handler.Statistics)
	})
}

type CreateFeedbackRequest struct {
	TotalWords   int     `json:"totalWords"`
	ErrorCount   int     `json:"errorCount"`
	ErrorWords   *string `json:"errorWords"`
	FeedbackType string  `json:"feedbackType"`
}

// Create records feedback for a note the caller owns. Invariants are
// checked before anything touches the data layer.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FeedbackType == "" {
		writeError(w, http.StatusBadRequest, "Feedback type is required")
		return
	}
	if req.TotalWords < 0 || req.ErrorCount < 0 {
		writeError(w, http.StatusBadRequest, "Word counts cannot be negative")
		return
	}
	if req.ErrorCount > req.TotalWords {
		writeError(w, http.StatusBadRequest, "Error count cannot exceed total words")
		return
	}
	if types.NormalizeFeedbackType(req.FeedbackType) == types.FeedbackPositive && req.ErrorCount > 0 {
		writeError(w, http.StatusBadRequest, "Positive feedback cannot have errors")
		return
	}

	note, err := h.noteService.Get(r.Context(), noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if note.UserID != user.ID {
		writeError(w, http.StatusForbidden, "You can only submit feedback for your own notes")
		return
	}

	feedback, err := h.feedbackService.Create(r.Context(), types.Feedback{
		NoteID:       noteID,
		UserID:       user.ID,
		TotalWords:   req.TotalWords,
		ErrorCount:   req.ErrorCount,
		ErrorWords:   req.ErrorWords,
		FeedbackType: req.FeedbackType,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Feedback submitted successfully",
		"feedbackId": feedback.ID,
		"feedback":   feedback,
	})
}

// ListByNote returns a note's feedback to its owner only, mirroring
// the ownership gate on Create.
func (h *FeedbackHandler) ListByNote(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	noteID, err := parseIDParam(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.noteService.Get(r.Context(), noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Note not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if note.UserID != user.ID {
		writeError(w, http.StatusForbidden, "You can only view feedback for your own notes")
		return
	}

	feedback, err := h.feedbackService.ListByNote(r.Context(), noteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

// ListByUser returns the caller's own feedback history.
func (h *FeedbackHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	feedback, err := h.feedbackService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

// ListAll pages through every feedback row, newest first. Admin only.
func (h *FeedbackHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryIntDefault(r, "limit", defaultFeedbackLimit)
	offset := parseQueryIntDefault(r, "offset", defaultFeedbackOffset)

	feedback, err := h.feedbackService.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

// StatisticsResponse pairs the live feedback aggregate with the
// persisted transcription_stats singleton.
type StatisticsResponse struct {
	Feedback      types.FeedbackStatistics `json:"feedback"`
	Transcription types.TranscriptionStats `json:"transcription"`
}

func (h *FeedbackHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.feedbackService.GetStatistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	transcription, err := h.feedbackService.GetTranscriptionStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, StatisticsResponse{
		Feedback:      stats,
		Transcription: transcription,
	})
}
