package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voicescript/apiserver/internal/services"
	"github.com/voicescript/apiserver/internal/session"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

// AdminHandler provides the admin reporting and user management
// surface. Everything except Check is admin-gated by middleware;
// Check resolves the session itself so an anonymous caller gets the
// role payload rather than the generic auth error.
type AdminHandler struct {
	adminService *services.AdminService
	userService  *services.UserService
	sessions     session.Store
	cookies      session.Cookies
}

func NewAdminHandler(adminService *services.AdminService, userService *services.UserService, sessions session.Store, cookies session.Cookies) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		userService:  userService,
		sessions:     sessions,
		cookies:      cookies,
	}
}

// AdminRouter registers admin routes. The check endpoint only needs a
// valid session; everything else sits behind the admin gate.
func AdminRouter(r chi.Router, handler *AdminHandler, requireAdmin func(http.Handler) http.Handler) {
	r.Get("/check", handler.Check)
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/dashboard", handler.Dashboard)
		r.Get("/users/statistics", handler.UserStatistics)
		r.Put("/users/{userID}", handler.UpdateUser)
		r.Delete("/users/{userID}", handler.DeleteUser)
	})
}

// Dashboard re-derives every aggregate from current table contents on
// each call. Nothing here is cached.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

type UserStatisticsResponse struct {
	Counts types.UserCounts  `json:"counts"`
	Users  []types.UserStats `json:"users"`
}

func (h *AdminHandler) UserStatistics(w http.ResponseWriter, r *http.Request) {
	users, counts, err := h.adminService.UserStatistics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, UserStatisticsResponse{Counts: counts, Users: users})
}

type AdminUpdateUserRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// UpdateUser changes a user's role and/or active flag.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req AdminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role == nil && req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if req.Role != nil {
		normalized := types.NormalizeRole(*req.Role)
		req.Role = &normalized
	}

	update := store.UserUpdate{Role: req.Role, IsActive: req.IsActive}
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

// DeleteUser removes a user. Notes and feedback follow through the
// database's cascading foreign keys.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

type AdminCheckResponse struct {
	IsAdmin bool    `json:"isAdmin"`
	Role    *string `json:"role"`
}

// Check reports whether the caller holds the admin role, with the role
// read fresh from the database rather than the session snapshot. An
// anonymous or stale session gets 401 with the same shape.
func (h *AdminHandler) Check(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.Read(r)
	if sessionID == "" {
		writeJSON(w, http.StatusUnauthorized, AdminCheckResponse{IsAdmin: false, Role: nil})
		return
	}
	data, ok := h.sessions.Get(sessionID)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, AdminCheckResponse{IsAdmin: false, Role: nil})
		return
	}

	user, err := h.userService.GetByID(r.Context(), data.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.sessions.Destroy(sessionID)
			h.cookies.Clear(w)
			writeJSON(w, http.StatusUnauthorized, AdminCheckResponse{IsAdmin: false, Role: nil})
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	role := user.Role
	if role == "" {
		role = types.RoleUser
	}
	writeJSON(w, http.StatusOK, AdminCheckResponse{IsAdmin: user.IsAdmin(), Role: &role})
}
