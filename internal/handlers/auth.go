package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/session"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// AuthHandler provides session-based authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	sessions    session.Store
	cookies     session.Cookies
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, sessions session.Store, cookies session.Cookies) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		cookies:     cookies,
	}
}

// AuthRouter registers the session lifecycle routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Get("/api/me", handler.Me)
	r.Get("/api/is-admin", handler.IsAdmin)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	exists, err := h.userService.ExistsByEmailOrUsername(r.Context(), req.Email, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Username or Email already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	userID, err := h.userService.Create(r.Context(), types.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         req.Role,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"userId":  userID,
	})
}

// Login verifies credentials and establishes a server-side session.
// The same generic message covers both unknown email and wrong
// password so the endpoint leaks nothing about which accounts exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}

	h.userService.RecordLogin(user.ID)

	sessionID := h.sessions.Create(session.Data{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	h.cookies.Set(w, sessionID)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Login successful",
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := h.cookies.Read(r); sessionID != "" {
		h.sessions.Destroy(sessionID)
	}
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// Me returns the current user's profile with the role read fresh from
// the database. A session whose user row vanished is destroyed.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.Read(r)
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	data, ok := h.sessions.Get(sessionID)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), data.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.sessions.Destroy(sessionID)
			h.cookies.Clear(w)
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// IsAdmin reports whether the logged-in user currently has the admin
// role, read from the database rather than the session snapshot.
func (h *AuthHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.Read(r)
	if sessionID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"message": "Not authenticated",
			"isAdmin": false,
			"role":    nil,
		})
		return
	}
	data, ok := h.sessions.Get(sessionID)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"message": "Not authenticated",
			"isAdmin": false,
			"role":    nil,
		})
		return
	}

	user, err := h.userService.GetByID(r.Context(), data.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.sessions.Destroy(sessionID)
			h.cookies.Clear(w)
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"message": "User not found",
				"isAdmin": false,
				"role":    nil,
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Server error",
			"isAdmin": false,
			"role":    nil,
		})
		return
	}

	role := user.Role
	if role == "" {
		role = types.RoleUser
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"isAdmin": user.IsAdmin(),
		"role":    role,
	})
}
