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

// CategoryHandler provides HTTP handlers for note categories.
type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func CategoryRouter(r chi.Router, handler *CategoryHandler) {
	r.Get("/{userID}", handler.List)
	r.Post("/", handler.Create)
	r.Put("/{categoryID}", handler.Update)
	r.Delete("/{categoryID}", handler.Delete)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	categories, err := h.categoryService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type CreateCategoryRequest struct {
	UserID int    `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "User ID and name are required")
		return
	}

	category, err := h.categoryService.Create(r.Context(), types.Category{
		UserID: req.UserID,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update types.CategoryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	category, err := h.categoryService.Update(r.Context(), categoryID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// Delete removes a category. Notes keep their rows; the database sets
// their category reference to NULL.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(r, "categoryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categoryService.Delete(r.Context(), categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}
