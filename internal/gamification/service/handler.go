package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/gamification/domain"
	"go.uber.org/zap"
)

// EventHandler credits points, streaks and badges for lifecycle events.
// It runs before notifications so badge messages follow the action that
// unlocked them.
type EventHandler struct {
	svc domain.Service
	log *zap.Logger
}

func NewEventHandler(svc domain.Service, log *zap.Logger) *EventHandler {
	return &EventHandler{
		svc: svc,
		log: log.Named("gamification.handler"),
	}
}

func (h *EventHandler) Name() string { return "gamification" }

func (h *EventHandler) Order() int { return 10 }

func (h *EventHandler) Handle(ctx context.Context, evt events.Event) error {
	reportID := evt.ReportID
	switch evt.Type {
	case events.ReportCreated:
		return h.reward(ctx, evt.ActorID, domain.ActionCreateReport, &reportID, true)

	case events.VoteCast:
		return h.reward(ctx, evt.ActorID, domain.ActionConfirmationVote, &reportID, true)

	case events.CommentCreated:
		return h.reward(ctx, evt.ActorID, domain.ActionComment, &reportID, true)

	case events.ReportFollowed:
		if evt.OwnerID == 0 || evt.OwnerID == evt.ActorID {
			return nil
		}
		return h.reward(ctx, evt.OwnerID, domain.ActionNewFollower, &reportID, false)

	case events.ReportClosed:
		var errs error
		if evt.OwnerID != 0 {
			errs = errors.Join(errs, h.reward(ctx, evt.OwnerID, domain.ActionReportClosed, &reportID, false))
		}
		if evt.ResolverID != 0 && evt.ResolverID != evt.OwnerID {
			errs = errors.Join(errs, h.reward(ctx, evt.ResolverID, domain.ActionResolutionConfirmed, &reportID, false))
		}
		return errs
	}
	return nil
}

// reward awards points and re-evaluates badges. Activity by the user
// themselves also advances their streak.
func (h *EventHandler) reward(ctx context.Context, userID snowflake.ID, action domain.Action, reportID *snowflake.ID, activity bool) error {
	if userID == 0 {
		return nil
	}
	var errs error
	if _, err := h.svc.AwardPoints(ctx, userID, action, reportID); err != nil {
		errs = errors.Join(errs, err)
	}
	if activity {
		if _, err := h.svc.UpdateStreak(ctx, userID); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if _, err := h.svc.CheckAndAwardBadges(ctx, userID); err != nil {
		errs = errors.Join(errs, err)
	}
	if errs != nil {
		h.log.Warn("gamification update incomplete",
			zap.String("user_id", userID.String()),
			zap.String("action", string(action)),
			zap.Error(errs),
		)
	}
	return errs
}
