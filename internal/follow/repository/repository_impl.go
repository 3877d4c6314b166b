package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/follow/domain"
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

func (r *repository) Insert(ctx context.Context, follow domain.Follow) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, reportID, userID snowflake.ID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM follows WHERE report_id = ? AND user_id = ?`,
		reportID,
		userID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) Exists(ctx context.Context, reportID, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM follows WHERE report_id = ? AND user_id = ?`,
		reportID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListFollowerIDs(ctx context.Context, reportID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).Raw(
		`SELECT user_id FROM follows WHERE report_id = ? ORDER BY id`,
		reportID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
