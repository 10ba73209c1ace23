// Package storage retains the original audio of transcribed notes in
// object storage. Archival is optional and best-effort: failures are
// logged by callers, never surfaced to the uploader.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Archive wraps an ObjectStorage backend with the recording key scheme.
type Archive struct {
	backend ObjectStorage
}

// NewArchive constructs an Archive for the provided backend.
func NewArchive(backend ObjectStorage) *Archive {
	return &Archive{backend: backend}
}

// RecordingKey renders the object key for a note's original audio.
func RecordingKey(noteID int, filename string) string {
	return fmt.Sprintf("recordings/%d/%s", noteID, path.Base(filename))
}

// EnsureBucket ensures the configured bucket exists.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}

// SaveRecording uploads a note's original audio.
func (a *Archive) SaveRecording(ctx context.Context, noteID int, filename string, r io.Reader, size int64, contentType string) error {
	return a.backend.Put(ctx, RecordingKey(noteID, filename), r, size, contentType)
}

// OpenRecording opens a reader for a note's archived audio.
func (a *Archive) OpenRecording(ctx context.Context, noteID int, filename string) (io.ReadCloser, error) {
	return a.backend.Get(ctx, RecordingKey(noteID, filename))
}

// DeleteRecording removes a note's archived audio.
func (a *Archive) DeleteRecording(ctx context.Context, noteID int, filename string) error {
	return a.backend.Delete(ctx, RecordingKey(noteID, filename))
}

// Bucket returns the configured bucket name.
func (a *Archive) Bucket() string {
	return a.backend.Bucket()
}
