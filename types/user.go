package types

import (
	"strings"
	"time"
)

// Role values accepted for a user account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address, used for login.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the
	// system ("admin" or "user").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive reports whether the account is enabled. A NULL value
	// in the database is treated as active.
	IsActive *bool `json:"is_active" db:"is_active"`

	// LastLogin is the timestamp of the most recent successful login,
	// or nil if the user has never logged in.
	LastLogin *time.Time `json:"last_login" db:"last_login"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Active resolves the nullable is_active column: only an explicit
// false disables an account.
func (u User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// IsAdmin compares the role read from the database, trimmed and
// case-insensitively.
func (u User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}

// NormalizeRole coerces arbitrary input to one of the accepted roles.
// Anything that is not "admin" becomes "user".
func NormalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}
