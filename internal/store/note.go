package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/voicescript/apiserver/types"
)

// NoteRepository handles persistence for notes.
type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// listOrder keeps pinned notes first, most recently updated first
// within each group. Every listing and search uses it.
const listOrder = ` ORDER BY n.pinned DESC, n.updated_at DESC`

func (r *NoteRepository) scanNotes(rows *sql.Rows, withCategory bool) ([]types.Note, error) {
	defer rows.Close()

	notes := make([]types.Note, 0)
	for rows.Next() {
		var note types.Note
		dest := []any{
			&note.ID,
			&note.UserID,
			&note.Title,
			&note.Content,
			&note.Color,
			&note.CategoryID,
			&note.Pinned,
			&note.CreatedAt,
			&note.UpdatedAt,
		}
		if withCategory {
			dest = append(dest, &note.CategoryName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

// ListByUser returns the user's notes, optionally filtered by category,
// with the category name joined in.
func (r *NoteRepository) ListByUser(ctx context.Context, userID int, categoryID *int) ([]types.Note, error) {
	query := `
		SELECT n.id, n.user_id, n.title, n.content, n.color, n.category_id, n.pinned,
		       n.created_at, n.updated_at, c.name AS category_name
		FROM notes n
		LEFT JOIN categories c ON n.category_id = c.id
		WHERE n.user_id = ?`
	args := []any{userID}
	if categoryID != nil {
		query += " AND n.category_id = ?"
		args = append(args, *categoryID)
	}
	query += listOrder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.scanNotes(rows, true)
}

// Search matches the query as a substring of title or content, scoped
// to the user, same ordering as ListByUser.
func (r *NoteRepository) Search(ctx context.Context, userID int, term string) ([]types.Note, error) {
	const query = `
		SELECT n.id, n.user_id, n.title, n.content, n.color, n.category_id, n.pinned,
		       n.created_at, n.updated_at
		FROM notes n
		WHERE n.user_id = ? AND (n.title LIKE ? OR n.content LIKE ?)` + listOrder

	pattern := "%" + term + "%"
	rows, err := r.db.QueryContext(ctx, query, userID, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return r.scanNotes(rows, false)
}

func (r *NoteRepository) Get(ctx context.Context, id int) (types.Note, error) {
	const query = `
		SELECT id, user_id, title, content, color, category_id, pinned, created_at, updated_at
		FROM notes
		WHERE id = ?`
	var note types.Note
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.Color,
		&note.CategoryID,
		&note.Pinned,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Note{}, ErrNotFound
		}
		return types.Note{}, err
	}
	return note, nil
}

func (r *NoteRepository) Create(ctx context.Context, note types.Note) (int, error) {
	const query = `
		INSERT INTO notes (user_id, title, content, color, category_id)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, note.UserID, note.Title, note.Content, note.Color, note.CategoryID)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *NoteRepository) Update(ctx context.Context, id int, update types.NoteUpdate) error {
	assignments := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if update.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Content != nil {
		assignments = append(assignments, "content = ?")
		args = append(args, *update.Content)
	}
	if update.Color != nil {
		assignments = append(assignments, "color = ?")
		args = append(args, *update.Color)
	}
	if update.Pinned != nil {
		assignments = append(assignments, "pinned = ?")
		args = append(args, *update.Pinned)
	}
	if update.CategoryID.Set {
		if update.CategoryID.Value == nil {
			assignments = append(assignments, "category_id = NULL")
		} else {
			assignments = append(assignments, "category_id = ?")
			args = append(args, *update.CategoryID.Value)
		}
	}
	if len(assignments) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, id)
	query := "UPDATE notes SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *NoteRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM notes WHERE id = ?`
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
