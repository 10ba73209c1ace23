package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides HTTP handlers for the user profile surface.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func UserRouter(r chi.Router, handler *UserHandler) {
	r.Get("/{userID}", handler.Get)
	r.Put("/{userID}", handler.Update)
}

// Get returns a user's profile. The password hash is excluded from
// serialization at the type level.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Update applies a partial profile update. A new password is hashed
// before it reaches the store.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := store.UserUpdate{Username: req.Username, Email: req.Email}
	if req.Password != nil {
		if *req.Password == "" {
			writeError(w, http.StatusBadRequest, "Password cannot be empty")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		hashed := string(hash)
		update.PasswordHash = &hashed
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.userService.Update(r.Context(), userID, update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
