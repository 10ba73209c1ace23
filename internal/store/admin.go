package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/voicescript/apiserver/types"
)

// AdminRepository runs the read-only aggregate queries behind the
// admin dashboard. It holds no state; every call re-derives from
// current table contents.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// CountUsers buckets accounts by is_active. NULL counts as active.
func (r *AdminRepository) CountUsers(ctx context.Context) (types.UserCounts, error) {
	const query = `
		SELECT
			COUNT(*) AS total_users,
			COALESCE(SUM(CASE WHEN is_active = 1 OR is_active IS NULL THEN 1 ELSE 0 END), 0) AS active_users,
			COALESCE(SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END), 0) AS inactive_users
		FROM users`
	var counts types.UserCounts
	err := r.db.QueryRowContext(ctx, query).Scan(&counts.TotalUsers, &counts.ActiveUsers, &counts.InactiveUsers)
	if err != nil {
		return types.UserCounts{}, err
	}
	return counts, nil
}

// ListUserStats joins each user with their note and feedback aggregates.
func (r *AdminRepository) ListUserStats(ctx context.Context) ([]types.UserStats, error) {
	const query = `
		SELECT
			u.id,
			u.username,
			u.email,
			COALESCE(u.role, 'user') AS role,
			u.created_at,
			u.last_login,
			u.is_active,
			COUNT(DISTINCT n.id) AS total_notes,
			COUNT(DISTINCT f.id) AS total_feedbacks,
			COALESCE(SUM(f.error_count), 0) AS total_errors,
			COALESCE(AVG(f.accuracy), 100.00) AS avg_accuracy
		FROM users u
		LEFT JOIN notes n ON u.id = n.user_id
		LEFT JOIN feedback f ON u.id = f.user_id
		GROUP BY u.id, u.username, u.email, u.role, u.created_at, u.last_login, u.is_active
		ORDER BY u.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]types.UserStats, 0)
	for rows.Next() {
		var row types.UserStats
		var isActive *bool
		if err := rows.Scan(
			&row.ID,
			&row.Username,
			&row.Email,
			&row.Role,
			&row.CreatedAt,
			&row.LastLogin,
			&isActive,
			&row.TotalNotes,
			&row.TotalFeedbacks,
			&row.TotalErrors,
			&row.AvgAccuracy,
		); err != nil {
			return nil, err
		}
		row.IsActive = isActive == nil || *isActive
		stats = append(stats, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *AdminRepository) CountNotes(ctx context.Context) (types.NoteCounts, error) {
	const query = `
		SELECT COUNT(*) AS total_notes, COUNT(DISTINCT user_id) AS users_with_notes
		FROM notes`
	var counts types.NoteCounts
	if err := r.db.QueryRowContext(ctx, query).Scan(&counts.TotalNotes, &counts.UsersWithNotes); err != nil {
		return types.NoteCounts{}, err
	}
	return counts, nil
}

// NotesPerDay holds one raw histogram bucket before zero-filling.
type NotesPerDay struct {
	Date     time.Time
	DayName  string
	Sessions int
}

// CountNotesPerDay returns the per-day note creation counts for the
// trailing 7 days. Days with no notes are absent; the service layer
// zero-fills them.
func (r *AdminRepository) CountNotesPerDay(ctx context.Context) ([]NotesPerDay, error) {
	const query = `
		SELECT DATE(created_at) AS date, DAYNAME(created_at) AS day_name, COUNT(*) AS sessions
		FROM notes
		WHERE created_at >= DATE_SUB(NOW(), INTERVAL 7 DAY)
		GROUP BY DATE(created_at), DAYNAME(created_at)
		ORDER BY date ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]NotesPerDay, 0, 7)
	for rows.Next() {
		var bucket NotesPerDay
		if err := rows.Scan(&bucket.Date, &bucket.DayName, &bucket.Sessions); err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buckets, nil
}
