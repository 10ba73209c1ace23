package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/voicescript/apiserver/types"
)

// FeedbackRepository handles persistence for feedback and the
// transcription_stats singleton.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback types.Feedback) (int, error) {
	const query = `
		INSERT INTO feedback (note_id, user_id, total_words, error_count, error_words, accuracy, feedback_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(
		ctx,
		query,
		feedback.NoteID,
		feedback.UserID,
		feedback.TotalWords,
		feedback.ErrorCount,
		feedback.ErrorWords,
		feedback.Accuracy,
		feedback.FeedbackType,
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (r *FeedbackRepository) scanFeedback(rows *sql.Rows, withNote, withUser bool) ([]types.Feedback, error) {
	defer rows.Close()

	feedbacks := make([]types.Feedback, 0)
	for rows.Next() {
		var feedback types.Feedback
		dest := []any{
			&feedback.ID,
			&feedback.NoteID,
			&feedback.UserID,
			&feedback.TotalWords,
			&feedback.ErrorCount,
			&feedback.ErrorWords,
			&feedback.Accuracy,
			&feedback.FeedbackType,
			&feedback.CreatedAt,
		}
		if withNote {
			dest = append(dest, &feedback.NoteTitle)
		}
		if withUser {
			dest = append(dest, &feedback.UserName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		feedbacks = append(feedbacks, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return feedbacks, nil
}

const feedbackColumns = `f.id, f.note_id, f.user_id, f.total_words, f.error_count, f.error_words, f.accuracy, f.feedback_type, f.created_at`

func (r *FeedbackRepository) ListByNote(ctx context.Context, noteID int) ([]types.Feedback, error) {
	const query = `
		SELECT ` + feedbackColumns + `
		FROM feedback f
		WHERE f.note_id = ?
		ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	return r.scanFeedback(rows, false, false)
}

func (r *FeedbackRepository) ListByUser(ctx context.Context, userID int) ([]types.Feedback, error) {
	const query = `
		SELECT ` + feedbackColumns + `, n.title AS note_title
		FROM feedback f
		LEFT JOIN notes n ON f.note_id = n.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return r.scanFeedback(rows, true, false)
}

// ListAll backs the admin feedback listing, newest first.
func (r *FeedbackRepository) ListAll(ctx context.Context, limit, offset int) ([]types.Feedback, error) {
	const query = `
		SELECT ` + feedbackColumns + `, n.title AS note_title, u.username AS user_name
		FROM feedback f
		LEFT JOIN notes n ON f.note_id = n.id
		LEFT JOIN users u ON f.user_id = u.id
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.scanFeedback(rows, true, true)
}

// GetStatistics aggregates every feedback row in one pass.
func (r *FeedbackRepository) GetStatistics(ctx context.Context) (types.FeedbackStatistics, error) {
	const query = `
		SELECT
			COUNT(*) AS total_feedbacks,
			COALESCE(SUM(error_count), 0) AS total_transcription_errors,
			COALESCE(SUM(total_words), 0) AS total_words_processed,
			COALESCE(AVG(accuracy), 100.00) AS overall_accuracy,
			COALESCE(SUM(CASE WHEN feedback_type = 'positive' THEN 1 ELSE 0 END), 0) AS positive_feedbacks,
			COALESCE(SUM(CASE WHEN feedback_type = 'negative' THEN 1 ELSE 0 END), 0) AS negative_feedbacks
		FROM feedback`
	var stats types.FeedbackStatistics
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalFeedbacks,
		&stats.TotalTranscriptionErrors,
		&stats.TotalWordsProcessed,
		&stats.OverallAccuracy,
		&stats.PositiveFeedbacks,
		&stats.NegativeFeedbacks,
	)
	if err != nil {
		return types.FeedbackStatistics{}, err
	}
	return stats, nil
}

// OverwriteStats replaces the singleton transcription_stats row with
// freshly aggregated values. Read-aggregate-then-overwrite, never
// incremental.
func (r *FeedbackRepository) OverwriteStats(ctx context.Context, stats types.FeedbackStatistics) error {
	const query = `
		UPDATE transcription_stats SET
			total_feedbacks = ?,
			total_transcription_errors = ?,
			total_words_processed = ?,
			overall_accuracy = ?,
			updated_at = NOW()`
	_, err := r.db.ExecContext(
		ctx,
		query,
		stats.TotalFeedbacks,
		stats.TotalTranscriptionErrors,
		stats.TotalWordsProcessed,
		stats.OverallAccuracy,
	)
	return err
}

func (r *FeedbackRepository) GetTranscriptionStats(ctx context.Context) (types.TranscriptionStats, error) {
	const query = `
		SELECT total_feedbacks, total_transcription_errors, total_words_processed, overall_accuracy, updated_at
		FROM transcription_stats
		LIMIT 1`
	var stats types.TranscriptionStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalFeedbacks,
		&stats.TotalTranscriptionErrors,
		&stats.TotalWordsProcessed,
		&stats.OverallAccuracy,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.TranscriptionStats{}, ErrNotFound
		}
		return types.TranscriptionStats{}, err
	}
	return stats, nil
}
