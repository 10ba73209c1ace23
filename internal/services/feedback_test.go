package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicescript/apiserver/types"
)

type fakeFeedbackRepo struct {
	mu       sync.Mutex
	nextID   int
	rows     []types.Feedback
	stats    types.FeedbackStatistics
	written  *types.FeedbackStatistics
	txnStats types.TranscriptionStats
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, feedback types.Feedback) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	feedback.ID = f.nextID
	feedback.CreatedAt = time.Now()
	f.rows = append([]types.Feedback{feedback}, f.rows...)
	return feedback.ID, nil
}

func (f *fakeFeedbackRepo) ListByNote(ctx context.Context, noteID int) ([]types.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Feedback
	for _, row := range f.rows {
		if row.NoteID == noteID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) ListByUser(ctx context.Context, userID int) ([]types.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Feedback
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) ListAll(ctx context.Context, limit, offset int) ([]types.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], nil
}

func (f *fakeFeedbackRepo) GetStatistics(ctx context.Context) (types.FeedbackStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats, nil
}

func (f *fakeFeedbackRepo) OverwriteStats(ctx context.Context, stats types.FeedbackStatistics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = &stats
	return nil
}

func (f *fakeFeedbackRepo) GetTranscriptionStats(ctx context.Context) (types.TranscriptionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txnStats, nil
}

func (f *fakeFeedbackRepo) statsWritten() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written != nil
}

func TestAccuracy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		totalWords int
		errorCount int
		want       float64
	}{
		{name: "no errors", totalWords: 100, errorCount: 0, want: 100.00},
		{name: "some errors", totalWords: 100, errorCount: 7, want: 93.00},
		{name: "rounds to two decimals", totalWords: 3, errorCount: 1, want: 66.67},
		{name: "all errors", totalWords: 50, errorCount: 50, want: 0.00},
		{name: "zero total words", totalWords: 0, errorCount: 0, want: 100.00},
		{name: "thirds rounding", totalWords: 6, errorCount: 2, want: 66.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Accuracy(tt.totalWords, tt.errorCount), 0.001)
		})
	}
}

func TestFeedbackCreate(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedbackRepo{stats: types.FeedbackStatistics{TotalFeedbacks: 1}}
	svc := NewFeedbackService(repo, nil, nil)

	created, err := svc.Create(context.Background(), types.Feedback{
		NoteID:       5,
		UserID:       2,
		TotalWords:   10,
		ErrorCount:   2,
		FeedbackType: "weird",
	})
	require.NoError(t, err)

	assert.Equal(t, types.FeedbackNegative, created.FeedbackType)
	assert.InDelta(t, 80.00, created.Accuracy, 0.001)
	assert.NotZero(t, created.ID)

	// The stats recompute runs off the request path.
	assert.Eventually(t, repo.statsWritten, time.Second, 10*time.Millisecond)
}

func TestFeedbackCreatePositive(t *testing.T) {
	t.Parallel()

	repo := &fakeFeedbackRepo{}
	svc := NewFeedbackService(repo, nil, nil)

	created, err := svc.Create(context.Background(), types.Feedback{
		NoteID:       1,
		UserID:       1,
		TotalWords:   20,
		ErrorCount:   0,
		FeedbackType: "positive",
	})
	require.NoError(t, err)
	assert.Equal(t, types.FeedbackPositive, created.FeedbackType)
	assert.InDelta(t, 100.00, created.Accuracy, 0.001)
}
