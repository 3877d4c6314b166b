package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/actor"
	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	minDisplayNameLength = 2
	maxDisplayNameLength = 50
)

type Params struct {
	fx.In

	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("user.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	name, err := normalizeDisplayName(req.DisplayName)
	if err != nil {
		return nil, err
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleAdmin:
	default:
		return nil, domain.ErrInvalidRole
	}

	now := s.clock.Now()
	user := domain.User{
		ID:          s.genID.Generate(),
		DisplayName: name,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", role),
	)
	return &user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	userID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) ResolveActor(ctx context.Context, id string) (actor.Actor, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return actor.Actor{}, err
	}
	return actor.Actor{
		UserID:    user.ID,
		Suspended: user.IsBanned,
		Admin:     user.IsAdmin(),
	}, nil
}

func (s *Service) SetBanned(ctx context.Context, id string, banned bool) error {
	userID, err := parseID(id)
	if err != nil {
		return err
	}
	updated, err := s.repo.SetBanned(ctx, userID, banned, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrUserNotFound
	}
	s.log.Info("user suspension changed",
		zap.String("user_id", userID.String()),
		zap.Bool("banned", banned),
	)
	return nil
}

// UpdateDisplayName renames the calling user. Suspended users keep their
// current name.
func (s *Service) UpdateDisplayName(ctx context.Context, a actor.Actor, name string) (*domain.User, error) {
	if err := a.Require(); err != nil {
		return nil, err
	}
	name, err := normalizeDisplayName(name)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateDisplayName(ctx, a.UserID, name, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrUserNotFound
	}
	s.log.Info("display name updated", zap.String("user_id", a.UserID.String()))
	return s.GetByID(ctx, a.UserID.String())
}

func normalizeDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(name)
	if length < minDisplayNameLength || length > maxDisplayNameLength {
		return "", domain.ErrInvalidDisplayName
	}
	return name, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, ok := actor.ParseUserID(raw)
	if !ok {
		return 0, domain.ErrInvalidUser
	}
	return id, nil
}
