package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/notification/domain"
	"go.uber.org/zap"
)

const (
	messageClosedByCommunity = "Closed by community confirmation"
	messageReverted          = "Reverted to in progress: community not satisfied"
	messageConfirmRequest    = "Marked as resolved. Is it really fixed? Cast your vote."
	messageNewComment        = "New comment on a report you follow"
	messageNewFollower       = "Someone started following your report"
)

// EventHandler turns lifecycle events into follower notifications.
type EventHandler struct {
	notifier domain.Notifier
	log      *zap.Logger
}

func NewEventHandler(svc domain.Service, log *zap.Logger) *EventHandler {
	return &EventHandler{
		notifier: svc,
		log:      log.Named("notification.handler"),
	}
}

func (h *EventHandler) Name() string { return "notification" }

func (h *EventHandler) Order() int { return 20 }

func (h *EventHandler) Handle(ctx context.Context, evt events.Event) error {
	switch evt.Type {
	case events.ReportStatusChanged:
		var errs error
		msg := fmt.Sprintf("Status changed from %s to %s", humanStatus(evt.FromStatus), humanStatus(evt.ToStatus))
		if _, err := h.notifier.NotifyFollowers(ctx, evt.ReportID, domain.TypeStatusChange, msg, evt.ActorID); err != nil {
			errs = errors.Join(errs, err)
		}
		if evt.ToStatus == "resolved" {
			if _, err := h.notifier.NotifyFollowers(ctx, evt.ReportID, domain.TypeConfirmationRequest, messageConfirmRequest, evt.ActorID); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		return errs

	case events.ReportClosed:
		_, err := h.notifier.NotifyFollowers(ctx, evt.ReportID, domain.TypeStatusChange, messageClosedByCommunity, evt.ActorID)
		return err

	case events.ReportReverted:
		_, err := h.notifier.NotifyFollowers(ctx, evt.ReportID, domain.TypeStatusChange, messageReverted, evt.ActorID)
		return err

	case events.CommentCreated:
		_, err := h.notifier.NotifyFollowers(ctx, evt.ReportID, domain.TypeNewComment, messageNewComment, evt.ActorID)
		return err

	case events.ReportFollowed:
		if evt.OwnerID == 0 || evt.OwnerID == evt.ActorID {
			return nil
		}
		return h.notifier.NotifyUser(ctx, evt.OwnerID, evt.ReportID, domain.TypeReportFollowed, messageNewFollower, nil)
	}
	return nil
}

func humanStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
