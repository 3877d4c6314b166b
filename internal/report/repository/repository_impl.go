package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/report/domain"
	"gorm.io/gorm"
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

func (r *repository) Insert(ctx context.Context, report domain.Report) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO reports (id, user_id, title, slug, description, category, status,
		                      latitude, longitude, area_name, photo_url, follower_count,
		                      is_hidden, comments_locked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.UserID,
		report.Title,
		report.Slug,
		report.Description,
		report.Category,
		report.Status,
		report.Latitude,
		report.Longitude,
		report.AreaName,
		report.PhotoURL,
		report.FollowerCount,
		report.IsHidden,
		report.CommentsLocked,
		report.CreatedAt,
		report.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Report, error) {
	var report domain.Report
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, user_id, title, slug, description, category, status,
		        latitude, longitude, area_name, photo_url, follower_count,
		        is_hidden, comments_locked, resolved_at, resolved_by, stalled_at, created_at, updated_at
		 FROM reports
		 WHERE id = ?`,
		id,
	).Scan(&report).Error
	if err != nil {
		return nil, err
	}
	if report.ID == 0 {
		return nil, nil
	}
	return &report, nil
}

func (r *repository) AdvanceStatus(ctx context.Context, id snowflake.ID, from, to domain.Status, resolvedBy *snowflake.ID, now time.Time) (bool, error) {
	var result *gorm.DB
	if to == domain.StatusResolved {
		if resolvedBy == nil || *resolvedBy == 0 {
			return false, domain.ErrInvalidReport
		}
		result = r.db.WithContext(ctx).Exec(
			`UPDATE reports
			 SET status = ?, resolved_at = ?, resolved_by = ?, stalled_at = NULL, updated_at = ?
			 WHERE id = ? AND status = ?`,
			to,
			now,
			*resolvedBy,
			now,
			id,
			from,
		)
	} else {
		result = r.db.WithContext(ctx).Exec(
			`UPDATE reports
			 SET status = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			to,
			now,
			id,
			from,
		)
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) CloseResolved(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE reports
		 SET status = ?, stalled_at = NULL, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusClosed,
		now,
		id,
		domain.StatusResolved,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) RevertResolved(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE reports
		 SET status = ?, resolved_at = NULL, resolved_by = NULL, stalled_at = NULL, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusInProgress,
		now,
		id,
		domain.StatusResolved,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) MarkStalled(ctx context.Context, id snowflake.ID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE reports
		 SET stalled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND stalled_at IS NULL`,
		now,
		now,
		id,
		domain.StatusResolved,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) SetHidden(ctx context.Context, id snowflake.ID, hidden bool, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE reports SET is_hidden = ?, updated_at = ? WHERE id = ?`,
		hidden,
		now,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) SetCommentsLocked(ctx context.Context, id snowflake.ID, locked bool, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE reports SET comments_locked = ?, updated_at = ? WHERE id = ?`,
		locked,
		now,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) AdjustFollowerCount(ctx context.Context, id snowflake.ID, delta int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE reports
		 SET follower_count = CASE WHEN follower_count + ? < 0 THEN 0 ELSE follower_count + ? END
		 WHERE id = ?`,
		delta,
		delta,
		id,
	).Error
}

func (r *repository) CountByStatus(ctx context.Context, includeHidden bool) (map[domain.Status]int64, error) {
	var rows []struct {
		Status domain.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count
		 FROM reports
		 WHERE ? OR is_hidden = ?
		 GROUP BY status`,
		includeHidden,
		false,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
