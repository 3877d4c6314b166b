package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) InsertPointEvent(ctx context.Context, event domain.PointEvent) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO point_events (id, user_id, report_id, action, points, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.UserID,
		event.ReportID,
		event.Action,
		event.Points,
		event.CreatedAt,
	).Error
}

func (r *repository) IncrementTotalPoints(ctx context.Context, userID snowflake.ID, delta int, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE users SET total_points = total_points + ?, updated_at = ? WHERE id = ?`,
		delta,
		now,
		userID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListRecentPointEvents(ctx context.Context, userID snowflake.ID, limit int) ([]domain.PointEvent, error) {
	var events []domain.PointEvent
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, user_id, report_id, action, points, created_at
		 FROM point_events
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		userID,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

type userStatsRow struct {
	ID             snowflake.ID
	TotalPoints    int64
	CurrentStreak  int
	LongestStreak  int
	LastActiveDate *time.Time
}

func (row userStatsRow) toDomain() *domain.UserStats {
	if row.ID == 0 {
		return nil
	}
	return &domain.UserStats{
		UserID:      row.ID,
		TotalPoints: row.TotalPoints,
		Streak: domain.Streak{
			Current:    row.CurrentStreak,
			Longest:    row.LongestStreak,
			LastActive: row.LastActiveDate,
		},
	}
}

func (r *repository) FindUserStats(ctx context.Context, userID snowflake.ID) (*domain.UserStats, error) {
	var row userStatsRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, total_points, current_streak, longest_streak, last_active_date
		 FROM users
		 WHERE id = ?`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *repository) LockUserStats(ctx context.Context, userID snowflake.ID) (*domain.UserStats, error) {
	var row userStatsRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, total_points, current_streak, longest_streak, last_active_date
		 FROM users
		 WHERE id = ?
		 FOR UPDATE`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *repository) UpdateStreak(ctx context.Context, userID snowflake.ID, streak domain.Streak, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET current_streak = ?, longest_streak = ?, last_active_date = ?, updated_at = ?
		 WHERE id = ?`,
		streak.Current,
		streak.Longest,
		streak.LastActive,
		now,
		userID,
	).Error
}

func (r *repository) InsertBadge(ctx context.Context, award domain.BadgeAward) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListBadges(ctx context.Context, userID snowflake.ID) ([]domain.BadgeAward, error) {
	var awards []domain.BadgeAward
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at ASC, id ASC").
		Find(&awards).Error
	if err != nil {
		return nil, err
	}
	return awards, nil
}

func (r *repository) CountReportsCreated(ctx context.Context, userID snowflake.ID) (int64, error) {
	return r.count(ctx,
		`SELECT COUNT(1) FROM reports WHERE user_id = ?`,
		userID,
	)
}

func (r *repository) CountCommentsOnOthersReports(ctx context.Context, userID snowflake.ID) (int64, error) {
	return r.count(ctx,
		`SELECT COUNT(1)
		 FROM comments c
		 JOIN reports r ON r.id = c.report_id
		 WHERE c.user_id = ? AND r.user_id <> ?`,
		userID,
		userID,
	)
}

func (r *repository) CountConfirmedVotes(ctx context.Context, userID snowflake.ID) (int64, error) {
	return r.count(ctx,
		`SELECT COUNT(1) FROM confirmations WHERE user_id = ? AND vote = ?`,
		userID,
		"confirmed",
	)
}

func (r *repository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ListTotalDrift(ctx context.Context, afterUserID snowflake.ID, limit int) ([]domain.TotalDrift, error) {
	var rows []struct {
		UserID snowflake.ID
		Cached int64
		Ledger int64
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT u.id AS user_id, u.total_points AS cached, COALESCE(SUM(pe.points), 0) AS ledger
		 FROM users u
		 LEFT JOIN point_events pe ON pe.user_id = u.id
		 WHERE u.id > ?
		 GROUP BY u.id, u.total_points
		 HAVING u.total_points <> COALESCE(SUM(pe.points), 0)
		 ORDER BY u.id
		 LIMIT ?`,
		afterUserID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	drift := make([]domain.TotalDrift, 0, len(rows))
	for _, row := range rows {
		drift = append(drift, domain.TotalDrift{
			UserID: row.UserID,
			Cached: row.Cached,
			Ledger: row.Ledger,
		})
	}
	return drift, nil
}

func (r *repository) RecomputeTotal(ctx context.Context, userID snowflake.ID, now time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET total_points = (SELECT COALESCE(SUM(points), 0) FROM point_events WHERE user_id = ?),
		     updated_at = ?
		 WHERE id = ?`,
		userID,
		now,
		userID,
	).Error
}
