package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/comment/domain"
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

func (r *repository) Insert(ctx context.Context, c domain.Comment) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO comments (id, report_id, user_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.ReportID,
		c.UserID,
		c.Content,
		c.CreatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, report_id, user_id, content, created_at
		 FROM comments
		 WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repository) ListByReport(ctx context.Context, reportID, afterID snowflake.ID, limit int) ([]*domain.Comment, error) {
	var items []*domain.Comment
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, report_id, user_id, content, created_at
		 FROM comments
		 WHERE report_id = ? AND id > ?
		 ORDER BY id ASC
		 LIMIT ?`,
		reportID,
		afterID,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
