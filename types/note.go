package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// Default presentation values applied when a note is created without them.
const (
	DefaultNoteColor     = "#ffffff"
	DefaultCategoryColor = "#007bff"
)

// Note represents a single note owned by a user.
type Note struct {
	// ID is the unique identifier of the note.
	ID int `json:"id" db:"id"`

	// UserID identifies the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// Title is the note's display title.
	Title string `json:"title" db:"title"`

	// Content is the note's body text. Notes created from voice
	// recordings carry the transcript here.
	Content string `json:"content" db:"content"`

	// Color is the hex display color of the note card.
	Color string `json:"color" db:"color"`

	// CategoryID is the optional category the note belongs to.
	// Deleting the category leaves the note uncategorized.
	CategoryID *int `json:"category_id" db:"category_id"`

	// CategoryName is the joined category name, populated only by
	// list queries.
	CategoryName *string `json:"category_name,omitempty" db:"category_name"`

	// Pinned notes sort before unpinned ones in every listing.
	Pinned bool `json:"pinned" db:"pinned"`

	// CreatedAt is the timestamp when the note was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the note.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NoteUpdate carries a partial update: nil fields are left untouched.
type NoteUpdate struct {
	Title      *string     `json:"title"`
	Content    *string     `json:"content"`
	Color      *string     `json:"color"`
	Pinned     *bool       `json:"pinned"`
	CategoryID OptionalInt `json:"category_id,omitzero"`
}

// Empty reports whether the update carries no fields at all.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Color == nil &&
		u.Pinned == nil && !u.CategoryID.Set
}

// OptionalInt distinguishes an absent JSON field from an explicit
// null. An explicit null clears the column; an absent field leaves it
// untouched.
type OptionalInt struct {
	Set   bool
	Value *int
}

// SomeInt returns an OptionalInt carrying the given value.
func SomeInt(value int) OptionalInt {
	return OptionalInt{Set: true, Value: &value}
}

// NullInt returns an OptionalInt carrying an explicit null.
func NullInt() OptionalInt {
	return OptionalInt{Set: true}
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsZero makes omitzero skip the field when it was never supplied.
func (o OptionalInt) IsZero() bool {
	return !o.Set
}

// Category groups a user's notes. Categories are scoped per user.
type Category struct {
	ID     int    `json:"id" db:"id"`
	UserID int    `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Color  string `json:"color" db:"color"`
}

// CategoryUpdate carries a partial category update.
type CategoryUpdate struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// Empty reports whether the update carries no fields at all.
func (u CategoryUpdate) Empty() bool {
	return u.Name == nil && u.Color == nil
}
