package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/notification/domain"
	"gorm.io/gorm"
)

const insertBatchSize = 200

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) InsertBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(notifications, insertBatchSize).Error
}

func (r *repository) ListByUser(ctx context.Context, userID snowflake.ID, beforeID snowflake.ID, limit int) ([]*domain.Notification, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ?", userID)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	var items []*domain.Notification
	if err := query.Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) MarkRead(ctx context.Context, userID, id snowflake.ID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE notifications
		 SET read_at = COALESCE(read_at, ?)
		 WHERE id = ? AND user_id = ?`,
		now,
		id,
		userID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkAllRead(ctx context.Context, userID snowflake.ID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE notifications
		 SET read_at = ?
		 WHERE user_id = ? AND read_at IS NULL`,
		now,
		userID,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
