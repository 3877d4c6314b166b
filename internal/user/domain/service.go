package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/civicpulse/internal/actor"
)

var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidDisplayName = errors.New("invalid_display_name")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrUserNotFound       = errors.New("user_not_found")
)

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ResolveActor(ctx context.Context, id string) (actor.Actor, error)
	SetBanned(ctx context.Context, id string, banned bool) error
	UpdateDisplayName(ctx context.Context, a actor.Actor, name string) (*User, error)
}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type CreateUserRequest struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}
