package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/user/domain"
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

func (r *repository) Insert(ctx context.Context, user domain.User) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO users (id, display_name, role, is_banned, total_points, current_streak, longest_streak, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		user.ID,
		user.DisplayName,
		user.Role,
		user.IsBanned,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, display_name, role, is_banned, total_points, current_streak, longest_streak,
		        last_active_date, created_at, updated_at
		 FROM users
		 WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repository) SetBanned(ctx context.Context, id snowflake.ID, banned bool, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE users SET is_banned = ?, updated_at = ? WHERE id = ?`,
		banned,
		now,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) UpdateDisplayName(ctx context.Context, id snowflake.ID, name string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`,
		name,
		now,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
