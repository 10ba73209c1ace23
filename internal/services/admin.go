package services

import (
	"context"
	"math"

	"github.com/voicescript/apiserver/internal/store"
	"github.com/voicescript/apiserver/types"
)

// weekDays fixes the histogram ordering, Monday first.
var weekDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// AdminRepository defines the aggregate queries behind the dashboard.
type AdminRepository interface {
	CountUsers(ctx context.Context) (types.UserCounts, error)
	ListUserStats(ctx context.Context) ([]types.UserStats, error)
	CountNotes(ctx context.Context) (types.NoteCounts, error)
	CountNotesPerDay(ctx context.Context) ([]store.NotesPerDay, error)
}

// AdminService composes the read-only reporting endpoints. Each call
// re-derives everything from current table contents.
type AdminService struct {
	repo     AdminRepository
	feedback FeedbackRepository
}

func NewAdminService(repo AdminRepository, feedback FeedbackRepository) *AdminService {
	return &AdminService{repo: repo, feedback: feedback}
}

// UserStatistics returns the per-user rollup plus the summary counts.
func (s *AdminService) UserStatistics(ctx context.Context) ([]types.UserStats, types.UserCounts, error) {
	counts, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, types.UserCounts{}, err
	}
	table, err := s.repo.ListUserStats(ctx)
	if err != nil {
		return nil, types.UserCounts{}, err
	}
	return table, counts, nil
}

// Usage returns the trailing 7-day note-creation histogram, zero-filled
// over Mon..Sun 3-letter day names.
func (s *AdminService) Usage(ctx context.Context) ([]types.DailyUsage, error) {
	buckets, err := s.repo.CountNotesPerDay(ctx)
	if err != nil {
		return nil, err
	}
	return zeroFillUsage(buckets), nil
}

// Dashboard assembles the full admin dashboard payload.
func (s *AdminService) Dashboard(ctx context.Context) (types.Dashboard, error) {
	userTable, userCounts, err := s.UserStatistics(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}

	feedbackStats, err := s.feedback.GetStatistics(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}

	noteCounts, err := s.repo.CountNotes(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}

	usage, err := s.Usage(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}

	overallAccuracy := feedbackStats.OverallAccuracy
	totalErrors := feedbackStats.TotalTranscriptionErrors
	totalWords := feedbackStats.TotalWordsProcessed

	errorRate := 0.0
	if totalWords > 0 {
		errorRate = math.Round(float64(totalErrors)/float64(totalWords)*100*100) / 100
	}

	return types.Dashboard{
		Usage: usage,
		Accuracy: []types.AccuracyEntry{
			{Feature: "Speech to Text", Rate: overallAccuracy},
			{Feature: "Transcription Accuracy", Rate: overallAccuracy},
		},
		KPIs: types.DashboardKPIs{
			TotalUsers:               userCounts.TotalUsers,
			ActiveUsers:              userCounts.ActiveUsers,
			InactiveUsers:            userCounts.InactiveUsers,
			VoiceSessions:            noteCounts.TotalNotes,
			AvgAccuracy:              overallAccuracy,
			ErrorRate:                errorRate,
			TotalTranscriptionErrors: totalErrors,
			TotalWordsProcessed:      totalWords,
			TotalFeedbacks:           feedbackStats.TotalFeedbacks,
		},
		UserStatistics: userTable,
		TranscriptionStats: types.DashboardTranscription{
			OverallAccuracy:   overallAccuracy,
			TotalErrors:       totalErrors,
			TotalWords:        totalWords,
			TotalFeedbacks:    feedbackStats.TotalFeedbacks,
			PositiveFeedbacks: feedbackStats.PositiveFeedbacks,
			NegativeFeedbacks: feedbackStats.NegativeFeedbacks,
		},
	}, nil
}

func zeroFillUsage(buckets []store.NotesPerDay) []types.DailyUsage {
	byDay := make(map[string]int, len(buckets))
	for _, bucket := range buckets {
		day := bucket.DayName
		if len(day) > 3 {
			day = day[:3]
		}
		byDay[day] += bucket.Sessions
	}

	usage := make([]types.DailyUsage, 0, len(weekDays))
	for _, day := range weekDays {
		usage = append(usage, types.DailyUsage{Date: day, Sessions: byDay[day]})
	}
	return usage
}
