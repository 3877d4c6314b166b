package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{UserID: 42, Admin: true})
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, Actor{UserID: 42, Admin: true}, got)

	_, ok = FromContext(WithActor(context.Background(), System))
	assert.False(t, ok)
}

func TestParseUserID(t *testing.T) {
	id, ok := ParseUserID(" 1234 ")
	assert.True(t, ok)
	assert.EqualValues(t, 1234, id)

	for _, raw := range []string{"", "abc", "-5", "0"} {
		_, ok := ParseUserID(raw)
		assert.False(t, ok, raw)
	}
}

func TestRequire(t *testing.T) {
	assert.ErrorIs(t, System.Require(), ErrNotAuthenticated)
	assert.ErrorIs(t, Actor{UserID: 3, Suspended: true, Admin: true}.Require(), ErrAccountSuspended)
	assert.NoError(t, Actor{UserID: 3}.Require())
}
