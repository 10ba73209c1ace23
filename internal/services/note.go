package services

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/voicescript/apiserver/internal/events"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

// UntitledRecording is the fallback title for uploads whose filename
// yields nothing usable.
const UntitledRecording = "Untitled Recording"

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	ListByUser(ctx context.Context, userID int, categoryID *int) ([]types.Note, error)
	Search(ctx context.Context, userID int, term string) ([]types.Note, error)
	Get(ctx context.Context, id int) (types.Note, error)
	Create(ctx context.Context, note types.Note) (int, error)
	Update(ctx context.Context, id int, update types.NoteUpdate) error
	Delete(ctx context.Context, id int) error
}

// NoteService encapsulates note use-cases.
type NoteService struct {
	repo      NoteRepository
	publisher *events.Publisher
	logger    *slog.Logger
}

// NewNoteService constructs a NoteService. publisher may be nil when
// event publishing is disabled.
func NewNoteService(repo NoteRepository, publisher *events.Publisher, logger *slog.Logger) *NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{repo: repo, publisher: publisher, logger: logger}
}

func (s *NoteService) List(ctx context.Context, userID int, categoryID *int) ([]types.Note, error) {
	return s.repo.ListByUser(ctx, userID, categoryID)
}

func (s *NoteService) Search(ctx context.Context, userID int, term string) ([]types.Note, error) {
	return s.repo.Search(ctx, userID, term)
}

func (s *NoteService) Get(ctx context.Context, id int) (types.Note, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a note with presentation defaults applied and returns
// the stored row.
func (s *NoteService) Create(ctx context.Context, note types.Note) (types.Note, error) {
	if note.Color == "" {
		note.Color = types.DefaultNoteColor
	}
	id, err := s.repo.Create(ctx, note)
	if err != nil {
		return types.Note{}, err
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}
	s.publishCreated(created, false)
	return created, nil
}

// CreateFromTranscript stores a transcription result as a new note.
func (s *NoteService) CreateFromTranscript(ctx context.Context, userID int, title, transcript string) (types.Note, error) {
	id, err := s.repo.Create(ctx, types.Note{
		UserID:  userID,
		Title:   title,
		Content: transcript,
		Color:   types.DefaultNoteColor,
	})
	if err != nil {
		return types.Note{}, err
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}
	s.publishCreated(created, true)
	return created, nil
}

// Update applies a partial update and returns the refreshed row.
// A missing row surfaces as store.ErrNotFound.
func (s *NoteService) Update(ctx context.Context, id int, update types.NoteUpdate) (types.Note, error) {
	if err := s.repo.Update(ctx, id, update); err != nil {
		return types.Note{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *NoteService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// Duplicate copies a note the caller owns. The copy keeps content and
// color, drops the category, and is never pinned. The source read and
// the insert are two independent round trips; a concurrent delete of
// the source between them is not guarded against.
func (s *NoteService) Duplicate(ctx context.Context, noteID, userID int) (types.Note, error) {
	source, err := s.repo.Get(ctx, noteID)
	if err != nil {
		return types.Note{}, err
	}
	if source.UserID != userID {
		return types.Note{}, store.ErrNotOwned
	}

	id, err := s.repo.Create(ctx, types.Note{
		UserID:  userID,
		Title:   source.Title + " (Copy)",
		Content: source.Content,
		Color:   source.Color,
	})
	if err != nil {
		return types.Note{}, err
	}
	copied, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Note{}, err
	}
	s.publishCreated(copied, false)
	return copied, nil
}

func (s *NoteService) publishCreated(note types.Note, fromUpload bool) {
	if s.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		_, err := s.publisher.PublishNoteCreated(ctx, events.NoteCreated{
			NoteID:     note.ID,
			UserID:     note.UserID,
			Title:      note.Title,
			FromUpload: fromUpload,
			CreatedAt:  note.CreatedAt,
		})
		if err != nil {
			s.logger.Error("failed to publish note created event", "note_id", note.ID, "error", err)
		}
	}()
}

// TitleFromFilename derives a note title from an uploaded audio
// filename by stripping the extension. Blank results fall back to
// UntitledRecording.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.TrimSpace(title)
	if title == "" || title == "." {
		return UntitledRecording
	}
	return title
}

// IsNotOwned reports whether err means the note exists but belongs to
// someone else.
func IsNotOwned(err error) bool {
	return errors.Is(err, store.ErrNotOwned)
}
