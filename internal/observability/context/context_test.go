package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  req-1 ")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), "system", "scheduler")
	actorType, actorID := ActorFromContext(ctx)
	assert.Equal(t, "system", actorType)
	assert.Equal(t, "scheduler", actorID)

	actorType, actorID = ActorFromContext(context.Background())
	assert.Empty(t, actorType)
	assert.Empty(t, actorID)
}
