package services

import (
	"context"

	"github.com/voicescript/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	ListByUser(ctx context.Context, userID int) ([]types.Category, error)
	Get(ctx context.Context, id int) (types.Category, error)
	Create(ctx context.Context, category types.Category) (int, error)
	Update(ctx context.Context, id int, update types.CategoryUpdate) error
	Delete(ctx context.Context, id int) error
}

// CategoryService encapsulates category use-cases.
type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) ListByUser(ctx context.Context, userID int) ([]types.Category, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *CategoryService) Get(ctx context.Context, id int) (types.Category, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a category with the default color applied and returns
// the stored row.
func (s *CategoryService) Create(ctx context.Context, category types.Category) (types.Category, error) {
	if category.Color == "" {
		category.Color = types.DefaultCategoryColor
	}
	id, err := s.repo.Create(ctx, category)
	if err != nil {
		return types.Category{}, err
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial update and returns the refreshed row.
func (s *CategoryService) Update(ctx context.Context, id int, update types.CategoryUpdate) (types.Category, error) {
	if err := s.repo.Update(ctx, id, update); err != nil {
		return types.Category{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes the category. Notes keep their rows and become
// uncategorized through the schema's FK policy.
func (s *CategoryService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
