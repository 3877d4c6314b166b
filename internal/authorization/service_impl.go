package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads persisted policies through the gorm adapter and seeds the defaults.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer builds an enforcer holding only the seeded policies.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, a actor.Actor, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := roleFor(a)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("user_id", a.UserID.String()),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func roleFor(a actor.Actor) string {
	switch {
	case a.IsSystem():
		return RoleSystem
	case a.Admin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Community members
		{RoleUser, ObjectReport, ActionReportCreate},
		{RoleUser, ObjectReport, ActionReportProposeResolution},
		{RoleUser, ObjectReport, ActionReportVote},
		{RoleUser, ObjectReport, ActionReportFollow},
		{RoleUser, ObjectReport, ActionReportFlag},
		{RoleUser, ObjectComment, ActionCommentCreate},
		{RoleUser, ObjectComment, ActionCommentFlag},

		// Administrators
		{RoleAdmin, ObjectReport, ActionReportTransitionAny},
		{RoleAdmin, ObjectReport, ActionReportModerate},
		{RoleAdmin, ObjectUser, ActionUserModerate},
		{RoleAdmin, ObjectStats, ActionStatsView},
		{RoleAdmin, ObjectAudit, ActionAuditView},

		// Arbiter and background sweeps
		{RoleSystem, ObjectReport, ActionReportClose},
		{RoleSystem, ObjectReport, ActionReportRevert},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	has, err := enforcer.HasGroupingPolicy(RoleAdmin, RoleUser)
	if err != nil {
		return err
	}
	if !has {
		if _, err := enforcer.AddGroupingPolicy(RoleAdmin, RoleUser); err != nil {
			return err
		}
	}
	return nil
}
