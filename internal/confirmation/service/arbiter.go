package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/confirmation/domain"
	"github.com/smallbiznis/civicpulse/internal/events"
	obslogger "github.com/smallbiznis/civicpulse/internal/observability/logger"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	"go.uber.org/zap"
)

// Evaluate tallies the current resolution cycle and applies the arbiter
// decision. Transitions are compare-and-set on status = resolved, so running
// it again, or concurrently, never closes or reverts twice.
func (s *Service) Evaluate(ctx context.Context, reportID snowflake.ID, trigger string) (domain.Outcome, error) {
	report, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return domain.OutcomeNone, err
	}
	if report == nil {
		return domain.OutcomeNone, reportdomain.ErrReportNotFound
	}
	if report.Status != reportdomain.StatusResolved {
		return domain.OutcomeNone, nil
	}
	if report.ResolvedAt == nil || report.ResolvedBy == nil {
		return domain.OutcomeNone, errResolutionMissing
	}

	resolvedAt := *report.ResolvedAt
	tally, err := s.repo.Tally(ctx, reportID, resolvedAt)
	if err != nil {
		return domain.OutcomeNone, err
	}

	now := s.clock.Now()
	outcome := domain.Decide(tally, resolvedAt, now, s.policy)

	log := obslogger.WithReport(obslogger.WithContext(ctx, s.log), reportID.String()).With(
		zap.String("trigger", trigger),
		zap.Int64("confirmed", tally.Confirmed),
		zap.Int64("not_yet", tally.NotYet),
	)

	switch outcome {
	case domain.OutcomeClose:
		applied, err := s.close(ctx, report, now, trigger)
		if err != nil {
			return domain.OutcomeNone, err
		}
		if !applied {
			return domain.OutcomeNone, nil
		}
		log.Info("arbiter closed report")

	case domain.OutcomeRevert:
		applied, err := s.revert(ctx, report, now, trigger)
		if err != nil {
			return domain.OutcomeNone, err
		}
		if !applied {
			return domain.OutcomeNone, nil
		}
		log.Info("arbiter reverted report")

	case domain.OutcomeStalled:
		flagged, err := s.reportRepo.MarkStalled(ctx, reportID, now)
		if err != nil {
			return domain.OutcomeNone, err
		}
		if !flagged {
			return domain.OutcomeStalled, nil
		}
		log.Warn("arbiter.stalled",
			zap.Duration("elapsed", now.Sub(resolvedAt)),
		)

	default:
		return domain.OutcomeNone, nil
	}

	s.metrics.RecordArbiterOutcome(ctx, string(outcome), trigger)
	return outcome, nil
}

func (s *Service) close(ctx context.Context, report *reportdomain.Report, now time.Time, trigger string) (bool, error) {
	if err := s.authz.Authorize(ctx, actor.System, authorization.ObjectReport, authorization.ActionReportClose); err != nil {
		return false, err
	}
	updated, err := s.reportRepo.CloseResolved(ctx, report.ID, now)
	if err != nil || !updated {
		return false, err
	}

	s.metrics.RecordStatusTransition(ctx, string(reportdomain.StatusResolved), string(reportdomain.StatusClosed), trigger)
	s.events.Publish(ctx, events.Event{
		Type:       events.ReportClosed,
		ReportID:   report.ID,
		OwnerID:    report.UserID,
		ResolverID: *report.ResolvedBy,
		FromStatus: string(reportdomain.StatusResolved),
		ToStatus:   string(reportdomain.StatusClosed),
		Trigger:    trigger,
	})
	return true, nil
}

func (s *Service) revert(ctx context.Context, report *reportdomain.Report, now time.Time, trigger string) (bool, error) {
	if err := s.authz.Authorize(ctx, actor.System, authorization.ObjectReport, authorization.ActionReportRevert); err != nil {
		return false, err
	}
	updated, err := s.reportRepo.RevertResolved(ctx, report.ID, now)
	if err != nil || !updated {
		return false, err
	}

	s.metrics.RecordStatusTransition(ctx, string(reportdomain.StatusResolved), string(reportdomain.StatusInProgress), trigger)
	s.events.Publish(ctx, events.Event{
		Type:       events.ReportReverted,
		ReportID:   report.ID,
		OwnerID:    report.UserID,
		ResolverID: *report.ResolvedBy,
		FromStatus: string(reportdomain.StatusResolved),
		ToStatus:   string(reportdomain.StatusInProgress),
		Trigger:    trigger,
	})
	return true, nil
}
