package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/voicescript/apiserver/internal/events"
	"github.com/voicescript/apiserver/types"
)

// FeedbackRepository defines persistence operations for feedback and
// the transcription_stats singleton.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback types.Feedback) (int, error)
	ListByNote(ctx context.Context, noteID int) ([]types.Feedback, error)
	ListByUser(ctx context.Context, userID int) ([]types.Feedback, error)
	ListAll(ctx context.Context, limit, offset int) ([]types.Feedback, error)
	GetStatistics(ctx context.Context) (types.FeedbackStatistics, error)
	OverwriteStats(ctx context.Context, stats types.FeedbackStatistics) error
	GetTranscriptionStats(ctx context.Context) (types.TranscriptionStats, error)
}

// FeedbackService encapsulates feedback use-cases.
type FeedbackService struct {
	repo      FeedbackRepository
	publisher *events.Publisher
	logger    *slog.Logger
}

// NewFeedbackService constructs a FeedbackService. publisher may be
// nil when event publishing is disabled.
func NewFeedbackService(repo FeedbackRepository, publisher *events.Publisher, logger *slog.Logger) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackService{repo: repo, publisher: publisher, logger: logger}
}

// Accuracy derives the transcription accuracy percentage, rounded to
// two decimals. Zero total words counts as fully accurate.
func Accuracy(totalWords, errorCount int) float64 {
	if totalWords <= 0 {
		return 100.00
	}
	raw := float64(totalWords-errorCount) / float64(totalWords) * 100
	return math.Round(raw*100) / 100
}

// Create stores a feedback entry with its derived accuracy, then
// kicks off a full stats recomputation without blocking the caller.
// Input invariants (type/count checks) are enforced at the handler
// layer before this is reached.
func (s *FeedbackService) Create(ctx context.Context, feedback types.Feedback) (types.Feedback, error) {
	feedback.FeedbackType = types.NormalizeFeedbackType(feedback.FeedbackType)
	feedback.Accuracy = Accuracy(feedback.TotalWords, feedback.ErrorCount)

	id, err := s.repo.Create(ctx, feedback)
	if err != nil {
		return types.Feedback{}, err
	}
	feedback.ID = id

	s.recomputeStats()
	s.publishCreated(feedback)

	// Return the stored row (with server-side timestamp) when it can
	// be read back; the in-memory copy is the fallback.
	stored, err := s.repo.ListByNote(ctx, feedback.NoteID)
	if err == nil && len(stored) > 0 {
		return stored[0], nil
	}
	return feedback, nil
}

func (s *FeedbackService) ListByNote(ctx context.Context, noteID int) ([]types.Feedback, error) {
	return s.repo.ListByNote(ctx, noteID)
}

func (s *FeedbackService) ListByUser(ctx context.Context, userID int) ([]types.Feedback, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *FeedbackService) ListAll(ctx context.Context, limit, offset int) ([]types.Feedback, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *FeedbackService) GetStatistics(ctx context.Context) (types.FeedbackStatistics, error) {
	return s.repo.GetStatistics(ctx)
}

func (s *FeedbackService) GetTranscriptionStats(ctx context.Context) (types.TranscriptionStats, error) {
	return s.repo.GetTranscriptionStats(ctx)
}

// recomputeStats re-aggregates every feedback row and overwrites the
// singleton transcription_stats row. Never incremental, never awaited
// by the request that triggered it.
func (s *FeedbackService) recomputeStats() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		stats, err := s.repo.GetStatistics(ctx)
		if err != nil {
			s.logger.Error("failed to aggregate feedback stats", "error", err)
			return
		}
		if err := s.repo.OverwriteStats(ctx, stats); err != nil {
			s.logger.Error("failed to update transcription stats", "error", err)
		}
	}()
}

func (s *FeedbackService) publishCreated(feedback types.Feedback) {
	if s.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()
		_, err := s.publisher.PublishFeedbackCreated(ctx, events.FeedbackCreated{
			FeedbackID:   feedback.ID,
			NoteID:       feedback.NoteID,
			UserID:       feedback.UserID,
			FeedbackType: feedback.FeedbackType,
			Accuracy:     feedback.Accuracy,
			CreatedAt:    feedback.CreatedAt,
		})
		if err != nil {
			s.logger.Error("failed to publish feedback created event", "feedback_id", feedback.ID, "error", err)
		}
	}()
}
