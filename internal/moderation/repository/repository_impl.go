package repository

import (
	"context"

	"github.com/smallbiznis/civicpulse/internal/moderation/domain"
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

func (r *repository) Insert(ctx context.Context, flag domain.Flag) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO flags (id, report_id, comment_id, user_id, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		flag.ID,
		flag.ReportID,
		flag.CommentID,
		flag.UserID,
		flag.Reason,
		flag.CreatedAt,
	).Error
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM flags`).Scan(&count).Error
	return count, err
}

func (r *repository) ListRecentReportFlags(ctx context.Context, limit int) ([]*domain.FlagRow, error) {
	var rows []*domain.FlagRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT flags.id, flags.report_id, flags.reason, flags.created_at,
		        reports.title AS title, reports.is_hidden, reports.comments_locked
		 FROM flags
		 JOIN reports ON reports.id = flags.report_id
		 WHERE flags.report_id IS NOT NULL
		 ORDER BY flags.created_at DESC, flags.id DESC
		 LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListRecentCommentFlags(ctx context.Context, limit int) ([]*domain.FlagRow, error) {
	var rows []*domain.FlagRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT flags.id, comments.report_id, flags.comment_id, flags.reason, flags.created_at,
		        comments.content AS title
		 FROM flags
		 JOIN comments ON comments.id = flags.comment_id
		 WHERE flags.comment_id IS NOT NULL
		 ORDER BY flags.created_at DESC, flags.id DESC
		 LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
