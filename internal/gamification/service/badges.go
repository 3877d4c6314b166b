package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	notificationdomain "github.com/smallbiznis/civicpulse/internal/notification/domain"
	"go.uber.org/zap"
)

// CheckAndAwardBadges awards every tier the user qualifies for and does not
// hold yet. The unique (user, type, tier) index arbitrates concurrent calls;
// only rows this call inserted earn points and a notification.
func (s *Service) CheckAndAwardBadges(ctx context.Context, userID snowflake.ID) ([]domain.NewBadge, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	counts, err := s.badgeCounters(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.ListBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	held := make(map[domain.BadgeType]map[domain.Tier]bool, len(domain.BadgeTypes))
	for _, award := range existing {
		if held[award.Type] == nil {
			held[award.Type] = map[domain.Tier]bool{}
		}
		held[award.Type][award.Tier] = true
	}

	cfg := s.rewards.Get()
	var (
		awarded []domain.NewBadge
		errs    error
	)
	for _, badgeType := range domain.BadgeTypes {
		thresholds, ok := thresholdsFor(cfg, badgeType)
		if !ok {
			continue
		}
		for _, tier := range domain.TiersToAward(counts[badgeType], thresholds, held[badgeType]) {
			inserted, err := s.repo.InsertBadge(ctx, domain.BadgeAward{
				ID:        s.genID.Generate(),
				UserID:    userID,
				Type:      badgeType,
				Tier:      tier,
				AwardedAt: s.clock.Now(),
			})
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			if !inserted {
				continue
			}

			badge := domain.NewBadge{Type: badgeType, Tier: tier}
			awarded = append(awarded, badge)
			s.metrics.RecordBadge(ctx, string(badgeType), string(tier))
			s.onBadgeUnlocked(ctx, userID, badge)
		}
	}

	return awarded, errs
}

// Follow-up effects of a new badge are best-effort.
func (s *Service) onBadgeUnlocked(ctx context.Context, userID snowflake.ID, badge domain.NewBadge) {
	log := s.log.With(
		zap.String("user_id", userID.String()),
		zap.String("badge_type", string(badge.Type)),
		zap.String("tier", string(badge.Tier)),
	)
	log.Info("badge unlocked")

	if _, err := s.AwardPoints(ctx, userID, domain.ActionBadgeUnlocked, nil); err != nil {
		log.Warn("failed to award badge points", zap.Error(err))
	}

	if s.notifications == nil {
		return
	}
	message := fmt.Sprintf("You earned the %s %s badge", badgeLabel(badge.Type), badge.Tier)
	metadata := map[string]any{
		"badge_type": string(badge.Type),
		"tier":       string(badge.Tier),
	}
	if err := s.notifications.NotifyUser(ctx, userID, 0, notificationdomain.TypeBadgeEarned, message, metadata); err != nil {
		log.Warn("failed to notify badge", zap.Error(err))
	}
}

func (s *Service) badgeCounters(ctx context.Context, userID snowflake.ID) (map[domain.BadgeType]int64, error) {
	reports, err := s.repo.CountReportsCreated(ctx, userID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.CountCommentsOnOthersReports(ctx, userID)
	if err != nil {
		return nil, err
	}
	votes, err := s.repo.CountConfirmedVotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[domain.BadgeType]int64{
		domain.BadgeSpotter:     reports,
		domain.BadgeKampungHero: comments,
		domain.BadgeCloser:      votes,
	}, nil
}

func badgeLabel(t domain.BadgeType) string {
	switch t {
	case domain.BadgeSpotter:
		return "Spotter"
	case domain.BadgeKampungHero:
		return "Kampung Hero"
	case domain.BadgeCloser:
		return "Closer"
	default:
		return string(t)
	}
}
