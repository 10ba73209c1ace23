package types

import "time"

// UserCounts summarizes account activity across all users.
type UserCounts struct {
	TotalUsers    int `json:"totalUsers" db:"total_users"`
	ActiveUsers   int `json:"activeUsers" db:"active_users"`
	InactiveUsers int `json:"inactiveUsers" db:"inactive_users"`
}

// UserStats is one row of the per-user admin rollup: account metadata
// joined with note and feedback aggregates.
type UserStats struct {
	ID             int        `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	Email          string     `json:"email" db:"email"`
	Role           string     `json:"role" db:"role"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	LastLogin      *time.Time `json:"lastLogin" db:"last_login"`
	IsActive       bool       `json:"isActive" db:"is_active"`
	TotalNotes     int        `json:"totalNotes" db:"total_notes"`
	TotalFeedbacks int        `json:"totalFeedbacks" db:"total_feedbacks"`
	TotalErrors    int        `json:"totalErrors" db:"total_errors"`
	AvgAccuracy    float64    `json:"avgAccuracy" db:"avg_accuracy"`
}

// NoteCounts summarizes notes across all users.
type NoteCounts struct {
	TotalNotes     int `json:"totalNotes" db:"total_notes"`
	UsersWithNotes int `json:"usersWithNotes" db:"users_with_notes"`
}

// DailyUsage is one bucket of the 7-day note-creation histogram,
// keyed by 3-letter weekday name.
type DailyUsage struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
}

// AccuracyEntry is one feature row of the dashboard accuracy panel.
type AccuracyEntry struct {
	Feature string  `json:"feature"`
	Rate    float64 `json:"rate"`
}

// DashboardKPIs carries the headline numbers of the admin dashboard.
type DashboardKPIs struct {
	TotalUsers               int     `json:"totalUsers"`
	ActiveUsers              int     `json:"activeUsers"`
	InactiveUsers            int     `json:"inactiveUsers"`
	VoiceSessions            int     `json:"voiceSessions"`
	AvgAccuracy              float64 `json:"avgAccuracy"`
	ErrorRate                float64 `json:"errorRate"`
	TotalTranscriptionErrors int     `json:"totalTranscriptionErrors"`
	TotalWordsProcessed      int     `json:"totalWordsProcessed"`
	TotalFeedbacks           int     `json:"totalFeedbacks"`
}

// DashboardTranscription is the feedback-derived transcription panel.
type DashboardTranscription struct {
	OverallAccuracy   float64 `json:"overallAccuracy"`
	TotalErrors       int     `json:"totalErrors"`
	TotalWords        int     `json:"totalWords"`
	TotalFeedbacks    int     `json:"totalFeedbacks"`
	PositiveFeedbacks int     `json:"positiveFeedbacks"`
	NegativeFeedbacks int     `json:"negativeFeedbacks"`
}

// Dashboard is the full admin dashboard payload. Every call re-derives
// it from current table contents; it has no state of its own.
type Dashboard struct {
	Usage              []DailyUsage           `json:"usage"`
	Accuracy           []AccuracyEntry        `json:"accuracy"`
	KPIs               DashboardKPIs          `json:"kpis"`
	UserStatistics     []UserStats            `json:"userStatistics"`
	TranscriptionStats DashboardTranscription `json:"transcriptionStats"`
}
