package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	"gorm.io/gorm"
)

// UpdateStreak records activity for today in the configured location.
func (s *Service) UpdateStreak(ctx context.Context, userID snowflake.ID) (domain.Streak, error) {
	if userID == 0 {
		return domain.Streak{}, domain.ErrInvalidUser
	}

	now := s.clock.Now()
	today := domain.CalendarDay(now, s.location)

	var result domain.Streak
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stats, err := repo.LockUserStats(ctx, userID)
		if err != nil {
			return err
		}
		if stats == nil {
			return domain.ErrUserNotFound
		}

		next, changed := domain.NextStreak(stats.Streak, today)
		result = next
		if !changed {
			return nil
		}
		return repo.UpdateStreak(ctx, userID, next, now)
	})
	if err != nil {
		return domain.Streak{}, err
	}
	return result, nil
}
