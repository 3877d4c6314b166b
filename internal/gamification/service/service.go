package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/config"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	notificationdomain "github.com/smallbiznis/civicpulse/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/civicpulse/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recentEventsLimit = 20

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        config.Config
	Rewards       *config.GamificationConfigHolder
	Repo          domain.Repository
	Notifications notificationdomain.Service `optional:"true"`
	Metrics       *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	location      *time.Location
	rewards       *config.GamificationConfigHolder
	repo          domain.Repository
	notifications notificationdomain.Notifier
	metrics       *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	loc := p.Config.StreakLocation
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("gamification.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		location:      loc,
		rewards:       p.Rewards,
		repo:          p.Repo,
		notifications: p.Notifications,
		metrics:       p.Metrics,
	}
}

func (s *Service) Summary(ctx context.Context, userID string) (*domain.Summary, error) {
	id, ok := actor.ParseUserID(userID)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	stats, err := s.repo.FindUserStats(ctx, id)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, domain.ErrUserNotFound
	}

	badges, err := s.repo.ListBadges(ctx, id)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListRecentPointEvents(ctx, id, recentEventsLimit)
	if err != nil {
		return nil, err
	}
	counts, err := s.badgeCounters(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg := s.rewards.Get()
	progress := make([]domain.BadgeProgress, 0, len(domain.BadgeTypes))
	for _, badgeType := range domain.BadgeTypes {
		item := domain.BadgeProgress{Type: badgeType, Count: counts[badgeType]}
		if thresholds, ok := thresholdsFor(cfg, badgeType); ok {
			if tier, threshold, ok := domain.NextTier(item.Count, thresholds); ok {
				item.NextTier = tier
				item.NextThreshold = threshold
			}
		}
		progress = append(progress, item)
	}

	if badges == nil {
		badges = []domain.BadgeAward{}
	}
	if recent == nil {
		recent = []domain.PointEvent{}
	}

	return &domain.Summary{
		UserID:         id,
		TotalPoints:    stats.TotalPoints,
		CurrentStreak:  stats.Streak.Current,
		LongestStreak:  stats.Streak.Longest,
		LastActiveDate: stats.Streak.LastActive,
		Badges:         badges,
		Progress:       progress,
		RecentEvents:   recent,
	}, nil
}

func thresholdsFor(cfg config.GamificationConfig, badgeType domain.BadgeType) (domain.Thresholds, bool) {
	t, ok := cfg.ThresholdsFor(string(badgeType))
	if !ok {
		return domain.Thresholds{}, false
	}
	return domain.Thresholds{Bronze: t.Bronze, Silver: t.Silver, Gold: t.Gold}, true
}
