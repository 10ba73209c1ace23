package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

type fakeNoteRepo struct {
	mu     sync.Mutex
	nextID int
	notes  map[int]types.Note
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: map[int]types.Note{}}
}

func (f *fakeNoteRepo) ListByUser(ctx context.Context, userID int, categoryID *int) ([]types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Note
	for _, note := range f.notes {
		if note.UserID != userID {
			continue
		}
		if categoryID != nil && (note.CategoryID == nil || *note.CategoryID != *categoryID) {
			continue
		}
		out = append(out, note)
	}
	return out, nil
}

func (f *fakeNoteRepo) Search(ctx context.Context, userID int, term string) ([]types.Note, error) {
	return f.ListByUser(ctx, userID, nil)
}

func (f *fakeNoteRepo) Get(ctx context.Context, id int) (types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return note, nil
}

func (f *fakeNoteRepo) Create(ctx context.Context, note types.Note) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	note.ID = f.nextID
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	f.notes[note.ID] = note
	return note.ID, nil
}

func (f *fakeNoteRepo) Update(ctx context.Context, id int, update types.NoteUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return store.ErrNotFound
	}
	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	if update.Pinned != nil {
		note.Pinned = *update.Pinned
	}
	if update.CategoryID.Set {
		note.CategoryID = update.CategoryID.Value
	}
	f.notes[id] = note
	return nil
}

func (f *fakeNoteRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func TestTitleFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{name: "plain wav", filename: "meeting-notes.wav", want: "meeting-notes"},
		{name: "nested path", filename: "uploads/2026/recording.mp3", want: "recording"},
		{name: "no extension", filename: "memo", want: "memo"},
		{name: "only extension", filename: ".wav", want: UntitledRecording},
		{name: "empty", filename: "", want: UntitledRecording},
		{name: "whitespace stem", filename: "   .mp3", want: UntitledRecording},
		{name: "double extension", filename: "note.backup.ogg", want: "note.backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TitleFromFilename(tt.filename))
		})
	}
}

func TestNoteCreateAppliesDefaultColor(t *testing.T) {
	t.Parallel()

	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil, nil)

	created, err := svc.Create(context.Background(), types.Note{UserID: 1, Title: "First"})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultNoteColor, created.Color)
}

func TestNoteDuplicate(t *testing.T) {
	t.Parallel()

	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil, nil)

	categoryID := 9
	sourceID, err := repo.Create(context.Background(), types.Note{
		UserID:     1,
		Title:      "Groceries",
		Content:    "milk, eggs",
		Color:      "#ff0000",
		CategoryID: &categoryID,
		Pinned:     true,
	})
	require.NoError(t, err)

	copied, err := svc.Duplicate(context.Background(), sourceID, 1)
	require.NoError(t, err)

	assert.NotEqual(t, sourceID, copied.ID)
	assert.Equal(t, "Groceries (Copy)", copied.Title)
	assert.Equal(t, "milk, eggs", copied.Content)
	assert.Equal(t, "#ff0000", copied.Color)
	assert.Nil(t, copied.CategoryID)
	assert.False(t, copied.Pinned)
}

func TestNoteDuplicateNotOwned(t *testing.T) {
	t.Parallel()

	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil, nil)

	sourceID, err := repo.Create(context.Background(), types.Note{UserID: 1, Title: "Private"})
	require.NoError(t, err)

	_, err = svc.Duplicate(context.Background(), sourceID, 2)
	require.Error(t, err)
	assert.True(t, IsNotOwned(err))
}

func TestNoteDuplicateMissing(t *testing.T) {
	t.Parallel()

	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, nil, nil)

	_, err := svc.Duplicate(context.Background(), 404, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
