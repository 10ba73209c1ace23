package types

import "time"

// Feedback type values. Anything else is coerced to negative.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// Feedback records a user's assessment of a transcription result
// for one of their notes.
type Feedback struct {
	// ID is the unique identifier of the feedback entry.
	ID int `json:"id" db:"id"`

	// NoteID identifies the note the feedback is about.
	NoteID int `json:"note_id" db:"note_id"`

	// UserID identifies the user who submitted the feedback.
	UserID int `json:"user_id" db:"user_id"`

	// TotalWords is the word count of the transcribed text.
	TotalWords int `json:"total_words" db:"total_words"`

	// ErrorCount is the number of mistranscribed words. Always zero
	// for positive feedback, and never greater than TotalWords.
	ErrorCount int `json:"error_count" db:"error_count"`

	// ErrorWords optionally lists the words that were transcribed
	// incorrectly, as free text.
	ErrorWords *string `json:"error_words" db:"error_words"`

	// Accuracy is derived on insert:
	// (total_words - error_count) / total_words * 100, rounded to two
	// decimals, or 100 when total_words is zero.
	Accuracy float64 `json:"accuracy" db:"accuracy"`

	// FeedbackType is "positive" or "negative".
	FeedbackType string `json:"feedback_type" db:"feedback_type"`

	// CreatedAt is the timestamp when the feedback was submitted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// NoteTitle is the joined note title, populated by list queries.
	NoteTitle *string `json:"note_title,omitempty" db:"note_title"`

	// UserName is the joined username, populated by admin list queries.
	UserName *string `json:"user_name,omitempty" db:"user_name"`
}

// FeedbackStatistics aggregates all feedback rows for reporting.
type FeedbackStatistics struct {
	TotalFeedbacks           int     `json:"total_feedbacks" db:"total_feedbacks"`
	TotalTranscriptionErrors int     `json:"total_transcription_errors" db:"total_transcription_errors"`
	TotalWordsProcessed      int     `json:"total_words_processed" db:"total_words_processed"`
	OverallAccuracy          float64 `json:"overall_accuracy" db:"overall_accuracy"`
	PositiveFeedbacks        int     `json:"positive_feedbacks" db:"positive_feedbacks"`
	NegativeFeedbacks        int     `json:"negative_feedbacks" db:"negative_feedbacks"`
}

// TranscriptionStats mirrors the singleton transcription_stats row.
// It is overwritten from FeedbackStatistics whenever feedback is created,
// never updated incrementally.
type TranscriptionStats struct {
	TotalFeedbacks           int       `json:"total_feedbacks" db:"total_feedbacks"`
	TotalTranscriptionErrors int       `json:"total_transcription_errors" db:"total_transcription_errors"`
	TotalWordsProcessed      int       `json:"total_words_processed" db:"total_words_processed"`
	OverallAccuracy          float64   `json:"overall_accuracy" db:"overall_accuracy"`
	UpdatedAt                time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeFeedbackType coerces arbitrary input to "positive" or "negative".
func NormalizeFeedbackType(feedbackType string) string {
	if feedbackType == FeedbackPositive {
		return FeedbackPositive
	}
	return FeedbackNegative
}
