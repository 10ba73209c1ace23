package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/voicescript/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, is_active, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// ExistsByEmailOrUsername backs the single-query duplicate check done
// during registration.
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	const query = `SELECT COUNT(1) FROM users WHERE email = ? OR username = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (int, error) {
	const query = `
		INSERT INTO users (username, email, password_hash, role)
		VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// UserUpdate carries a partial profile update; nil fields are left
// untouched.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Role         *string
	IsActive     *bool
}

// Empty reports whether the update carries no fields at all.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.PasswordHash == nil &&
		u.Role == nil && u.IsActive == nil
}

func (r *UserRepository) Update(ctx context.Context, id int, update UserUpdate) error {
	assignments := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if update.Username != nil {
		assignments = append(assignments, "username = ?")
		args = append(args, *update.Username)
	}
	if update.Email != nil {
		assignments = append(assignments, "email = ?")
		args = append(args, *update.Email)
	}
	if update.PasswordHash != nil {
		assignments = append(assignments, "password_hash = ?")
		args = append(args, *update.PasswordHash)
	}
	if update.Role != nil {
		assignments = append(assignments, "role = ?")
		args = append(args, *update.Role)
	}
	if update.IsActive != nil {
		assignments = append(assignments, "is_active = ?")
		args = append(args, *update.IsActive)
	}
	if len(assignments) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish "missing row" from "same values": MySQL reports
		// zero affected rows for both.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

// TouchLastLogin records a successful login. Dispatched fire-and-forget
// from the login path.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int) error {
	const query = `UPDATE users SET last_login = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = ?`
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
