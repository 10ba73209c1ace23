package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/voicescript/apiserver/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID int) ([]types.Category, error) {
	const query = `
		SELECT id, user_id, name, color
		FROM categories
		WHERE user_id = ?
		ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]types.Category, 0)
	for rows.Next() {
		var category types.Category
		if err := rows.Scan(&category.ID, &category.UserID, &category.Name, &category.Color); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (types.Category, error) {
	const query = `
		SELECT id, user_id, name, color
		FROM categories
		WHERE id = ?`
	var category types.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.UserID, &category.Name, &category.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category types.Category) (int, error) {
	const query = `
		INSERT INTO categories (user_id, name, color)
		VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, category.UserID, category.Name, category.Color)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *CategoryRepository) Update(ctx context.Context, id int, update types.CategoryUpdate) error {
	assignments := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if update.Name != nil {
		assignments = append(assignments, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Color != nil {
		assignments = append(assignments, "color = ?")
		args = append(args, *update.Color)
	}
	if len(assignments) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, id)
	query := "UPDATE categories SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes the category only. Notes that referenced it become
// uncategorized via the schema's ON DELETE SET NULL policy.
func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM categories WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
