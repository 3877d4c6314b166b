package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	auditdomain "github.com/smallbiznis/civicpulse/internal/audit/domain"
	"github.com/smallbiznis/civicpulse/internal/authorization"
	"github.com/smallbiznis/civicpulse/internal/clock"
	commentdomain "github.com/smallbiznis/civicpulse/internal/comment/domain"
	"github.com/smallbiznis/civicpulse/internal/moderation/domain"
	reportdomain "github.com/smallbiznis/civicpulse/internal/report/domain"
	userdomain "github.com/smallbiznis/civicpulse/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ReportRepo  reportdomain.Repository
	CommentRepo commentdomain.Repository
	Users       userdomain.Service
	Authz       authorization.Service
	Audit       auditdomain.Service `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	reportRepo  reportdomain.Repository
	commentRepo commentdomain.Repository
	users       userdomain.Service
	authz       authorization.Service
	audit       auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("moderation.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		reportRepo:  p.ReportRepo,
		commentRepo: p.CommentRepo,
		users:       p.Users,
		authz:       p.Authz,
		audit:       p.Audit,
	}
}

func (s *Service) FlagReport(ctx context.Context, reportID string, a actor.Actor, req domain.FlagRequest) (*domain.Flag, error) {
	id, reason, err := s.prepareFlag(ctx, reportID, a, req, authorization.ObjectReport, authorization.ActionReportFlag)
	if err != nil {
		return nil, err
	}
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil || !report.VisibleTo(a.Admin) {
		return nil, reportdomain.ErrReportNotFound
	}

	flag := domain.Flag{
		ID:        s.genID.Generate(),
		ReportID:  &id,
		UserID:    a.UserID,
		Reason:    reason,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, flag); err != nil {
		return nil, err
	}
	s.log.Info("report flagged",
		zap.String("report_id", id.String()),
		zap.String("user_id", a.UserID.String()),
	)
	return &flag, nil
}

func (s *Service) FlagComment(ctx context.Context, commentID string, a actor.Actor, req domain.FlagRequest) (*domain.Flag, error) {
	id, reason, err := s.prepareFlag(ctx, commentID, a, req, authorization.ObjectComment, authorization.ActionCommentFlag)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, commentdomain.ErrCommentNotFound
	}

	flag := domain.Flag{
		ID:        s.genID.Generate(),
		CommentID: &id,
		UserID:    a.UserID,
		Reason:    reason,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, flag); err != nil {
		return nil, err
	}
	s.log.Info("comment flagged",
		zap.String("comment_id", id.String()),
		zap.String("user_id", a.UserID.String()),
	)
	return &flag, nil
}

func (s *Service) prepareFlag(ctx context.Context, rawID string, a actor.Actor, req domain.FlagRequest, object, action string) (snowflake.ID, string, error) {
	if err := a.Require(); err != nil {
		return 0, "", err
	}
	id, err := parseID(rawID, domain.ErrInvalidTarget)
	if err != nil {
		return 0, "", err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > domain.MaxReasonLength {
		return 0, "", domain.ErrInvalidReason
	}
	if err := s.authz.Authorize(ctx, a, object, action); err != nil {
		return 0, "", err
	}
	return id, reason, nil
}

// ListFlags groups the most recent report and comment flags by target,
// newest target first.
func (s *Service) ListFlags(ctx context.Context, a actor.Actor) ([]*domain.FlaggedItem, error) {
	if err := s.requireAdmin(ctx, a, authorization.ObjectReport, authorization.ActionReportModerate); err != nil {
		return nil, err
	}
	reportFlags, err := s.repo.ListRecentReportFlags(ctx, domain.RecentFlagLimit)
	if err != nil {
		return nil, err
	}
	commentFlags, err := s.repo.ListRecentCommentFlags(ctx, domain.RecentFlagLimit)
	if err != nil {
		return nil, err
	}

	items := groupFlags(domain.TargetReport, reportFlags)
	items = append(items, groupFlags(domain.TargetComment, commentFlags)...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].LatestFlagID > items[j].LatestFlagID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func groupFlags(target domain.TargetType, rows []*domain.FlagRow) []*domain.FlaggedItem {
	items := []*domain.FlaggedItem{}
	byTarget := make(map[snowflake.ID]*domain.FlaggedItem, len(rows))
	for _, row := range rows {
		key := row.ReportID
		if target == domain.TargetComment {
			if row.CommentID == nil {
				continue
			}
			key = *row.CommentID
		}

		item, ok := byTarget[key]
		if !ok {
			item = &domain.FlaggedItem{
				LatestFlagID:   row.ID,
				Type:           target,
				ReportID:       row.ReportID,
				CommentID:      row.CommentID,
				Title:          row.Title,
				IsHidden:       row.IsHidden,
				CommentsLocked: row.CommentsLocked,
				CreatedAt:      row.CreatedAt,
			}
			if target == domain.TargetComment {
				item.Title = excerpt(row.Title, domain.ExcerptLength)
			}
			byTarget[key] = item
			items = append(items, item)
		}
		item.FlagCount++
		item.Reasons = append(item.Reasons, row.Reason)
	}
	return items
}

func excerpt(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func (s *Service) HideReport(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error) {
	return s.moderateReport(ctx, reportID, a, auditdomain.ActionReportHidden, func(repo reportdomain.Repository, id snowflake.ID, now time.Time) (bool, error) {
		return repo.SetHidden(ctx, id, true, now)
	})
}

func (s *Service) UnhideReport(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error) {
	return s.moderateReport(ctx, reportID, a, auditdomain.ActionReportUnhidden, func(repo reportdomain.Repository, id snowflake.ID, now time.Time) (bool, error) {
		return repo.SetHidden(ctx, id, false, now)
	})
}

func (s *Service) LockComments(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error) {
	return s.moderateReport(ctx, reportID, a, auditdomain.ActionReportCommentsLocked, func(repo reportdomain.Repository, id snowflake.ID, now time.Time) (bool, error) {
		return repo.SetCommentsLocked(ctx, id, true, now)
	})
}

func (s *Service) UnlockComments(ctx context.Context, reportID string, a actor.Actor) (*reportdomain.Report, error) {
	return s.moderateReport(ctx, reportID, a, auditdomain.ActionReportCommentsUnlocked, func(repo reportdomain.Repository, id snowflake.ID, now time.Time) (bool, error) {
		return repo.SetCommentsLocked(ctx, id, false, now)
	})
}

type reportMutation func(repo reportdomain.Repository, id snowflake.ID, now time.Time) (bool, error)

func (s *Service) moderateReport(ctx context.Context, reportID string, a actor.Actor, action string, mutate reportMutation) (*reportdomain.Report, error) {
	if err := s.requireAdmin(ctx, a, authorization.ObjectReport, authorization.ActionReportModerate); err != nil {
		return nil, err
	}
	id, err := parseID(reportID, reportdomain.ErrInvalidReport)
	if err != nil {
		return nil, err
	}

	updated, err := mutate(s.reportRepo, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, reportdomain.ErrReportNotFound
	}
	s.log.Info("report moderated",
		zap.String("action", action),
		zap.String("report_id", id.String()),
		zap.String("admin_id", a.UserID.String()),
	)

	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, reportdomain.ErrReportNotFound
	}
	s.recordAudit(ctx, a, action, auditdomain.TargetReport, id, map[string]any{
		"status":          string(report.Status),
		"is_hidden":       report.IsHidden,
		"comments_locked": report.CommentsLocked,
	})
	return report, nil
}

func (s *Service) BanUser(ctx context.Context, userID string, a actor.Actor) error {
	return s.setBanned(ctx, userID, a, true)
}

func (s *Service) UnbanUser(ctx context.Context, userID string, a actor.Actor) error {
	return s.setBanned(ctx, userID, a, false)
}

func (s *Service) setBanned(ctx context.Context, userID string, a actor.Actor, banned bool) error {
	if err := s.requireAdmin(ctx, a, authorization.ObjectUser, authorization.ActionUserModerate); err != nil {
		return err
	}
	id, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}
	if id == a.UserID {
		return domain.ErrInvalidUser
	}
	if err := s.users.SetBanned(ctx, id.String(), banned); err != nil {
		return err
	}
	s.log.Info("user ban updated",
		zap.String("user_id", id.String()),
		zap.Bool("banned", banned),
		zap.String("admin_id", a.UserID.String()),
	)

	action := auditdomain.ActionUserUnbanned
	if banned {
		action = auditdomain.ActionUserBanned
	}
	s.recordAudit(ctx, a, action, auditdomain.TargetUser, id, map[string]any{"banned": banned})
	return nil
}

func (s *Service) Stats(ctx context.Context, a actor.Actor) (*domain.Stats, error) {
	if err := s.requireAdmin(ctx, a, authorization.ObjectStats, authorization.ActionStatsView); err != nil {
		return nil, err
	}
	counts, err := s.reportRepo.CountByStatus(ctx, true)
	if err != nil {
		return nil, err
	}
	flags, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		ByStatus:  make(map[string]int64, 4),
		FlagCount: flags,
	}
	for _, status := range []reportdomain.Status{
		reportdomain.StatusOpen,
		reportdomain.StatusInProgress,
		reportdomain.StatusResolved,
		reportdomain.StatusClosed,
	} {
		stats.ByStatus[string(status)] = counts[status]
		stats.TotalReports += counts[status]
	}
	return stats, nil
}

func (s *Service) requireAdmin(ctx context.Context, a actor.Actor, object, action string) error {
	if err := a.Require(); err != nil {
		return err
	}
	return s.authz.Authorize(ctx, a, object, action)
}

// recordAudit is best effort; the moderation action has already been applied.
func (s *Service) recordAudit(ctx context.Context, a actor.Actor, action, targetType string, targetID snowflake.ID, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, a, action, targetType, targetID.String(), metadata); err != nil {
		s.log.Warn("failed to record moderation audit entry",
			zap.String("action", action),
			zap.String("target_id", targetID.String()),
			zap.Error(err),
		)
	}
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, invalid
	}
	return id, nil
}
