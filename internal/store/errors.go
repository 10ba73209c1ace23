package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotOwned is returned when a record exists but belongs to a
// different user.
var ErrNotOwned = errors.New("not owned by user")
