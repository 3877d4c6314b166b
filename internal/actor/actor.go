// Package actor carries the authenticated caller through request contexts.
package actor

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Actor is the already-authenticated user acting on a request.
type Actor struct {
	UserID    snowflake.ID
	Suspended bool
	Admin     bool
}

var (
	ErrNotAuthenticated = errors.New("not_authenticated")
	ErrAccountSuspended = errors.New("account_suspended")
)

// System is used for transitions the engine performs on its own behalf.
var System = Actor{}

func (a Actor) IsSystem() bool {
	return a.UserID == 0
}

// Require rejects anonymous and suspended callers before any side effect.
func (a Actor) Require() error {
	if a.IsSystem() {
		return ErrNotAuthenticated
	}
	if a.Suspended {
		return ErrAccountSuspended
	}
	return nil
}

type contextKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor from context, if set.
func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(contextKey{}).(Actor)
	if !ok || a.UserID == 0 {
		return Actor{}, false
	}
	return a, true
}

// ParseUserID parses a decimal snowflake id as sent by the gateway.
func ParseUserID(raw string) (snowflake.ID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
