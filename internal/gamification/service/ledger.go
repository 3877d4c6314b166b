package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AwardPoints appends one ledger entry and bumps the cached total in the same
// transaction. Callers own deduplication.
func (s *Service) AwardPoints(ctx context.Context, userID snowflake.ID, action domain.Action, reportID *snowflake.ID) (*domain.PointEvent, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	points, ok := s.rewards.Get().PointsFor(string(action))
	if !ok {
		return nil, domain.ErrUnknownAction
	}

	now := s.clock.Now()
	event := domain.PointEvent{
		ID:        s.genID.Generate(),
		UserID:    userID,
		ReportID:  reportID,
		Action:    action,
		Points:    points,
		CreatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.InsertPointEvent(ctx, event); err != nil {
			return err
		}
		updated, err := repo.IncrementTotalPoints(ctx, userID, points, now)
		if err != nil {
			return err
		}
		if !updated {
			return domain.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPoints(ctx, string(action), points)
	s.log.Debug("points awarded",
		zap.String("user_id", userID.String()),
		zap.String("action", string(action)),
		zap.Int("points", points),
	)
	return &event, nil
}

// ReconcileTotals rewrites cached totals that drifted from the ledger sum.
func (s *Service) ReconcileTotals(ctx context.Context, afterUserID snowflake.ID, limit int) (domain.ReconcileResult, error) {
	result := domain.ReconcileResult{LastUserID: afterUserID}
	if limit <= 0 {
		return result, nil
	}

	drift, err := s.repo.ListTotalDrift(ctx, afterUserID, limit)
	if err != nil {
		return result, err
	}
	result.Scanned = len(drift)

	now := s.clock.Now()
	for _, d := range drift {
		result.LastUserID = d.UserID
		if err := s.repo.RecomputeTotal(ctx, d.UserID, now); err != nil {
			return result, err
		}
		result.Fixed++
		s.log.Warn("points total drift corrected",
			zap.String("user_id", d.UserID.String()),
			zap.Int64("cached", d.Cached),
			zap.Int64("ledger", d.Ledger),
		)
	}
	return result, nil
}
