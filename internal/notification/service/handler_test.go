package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/civicpulse/internal/events"
	"github.com/smallbiznis/civicpulse/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyFollowers(ctx context.Context, reportID snowflake.ID, typ domain.Type, message string, excludeUserID snowflake.ID) (int, error) {
	args := m.Called(ctx, reportID, typ, message, excludeUserID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotifier) NotifyUser(ctx context.Context, userID snowflake.ID, reportID snowflake.ID, typ domain.Type, message string, metadata map[string]any) error {
	args := m.Called(ctx, userID, reportID, typ, message, metadata)
	return args.Error(0)
}

func newTestHandler(n domain.Notifier) *EventHandler {
	return &EventHandler{notifier: n, log: zap.NewNop()}
}

func TestHandlerResolvedEmitsStatusChangeAndConfirmationRequest(t *testing.T) {
	n := &mockNotifier{}
	ctx := context.Background()
	n.On("NotifyFollowers", ctx, snowflake.ID(10), domain.TypeStatusChange, "Status changed from in progress to resolved", snowflake.ID(4)).Return(2, nil).Once()
	n.On("NotifyFollowers", ctx, snowflake.ID(10), domain.TypeConfirmationRequest, messageConfirmRequest, snowflake.ID(4)).Return(2, nil).Once()

	err := newTestHandler(n).Handle(ctx, events.Event{
		Type:       events.ReportStatusChanged,
		ReportID:   10,
		ActorID:    4,
		FromStatus: "in_progress",
		ToStatus:   "resolved",
	})
	assert.NoError(t, err)
	n.AssertExpectations(t)
}

func TestHandlerReturnsNotifierErrors(t *testing.T) {
	n := &mockNotifier{}
	ctx := context.Background()
	n.On("NotifyFollowers", ctx, snowflake.ID(11), domain.TypeStatusChange, messageReverted, snowflake.ID(0)).Return(0, errors.New("db down"))

	err := newTestHandler(n).Handle(ctx, events.Event{Type: events.ReportReverted, ReportID: 11})
	assert.EqualError(t, err, "db down")
}

func TestHandlerFollowNotifiesOwnerOnly(t *testing.T) {
	n := &mockNotifier{}
	ctx := context.Background()
	n.On("NotifyUser", ctx, snowflake.ID(1), snowflake.ID(12), domain.TypeReportFollowed, messageNewFollower, map[string]any(nil)).Return(nil).Once()

	h := newTestHandler(n)
	assert.NoError(t, h.Handle(ctx, events.Event{Type: events.ReportFollowed, ReportID: 12, ActorID: 2, OwnerID: 1}))
	assert.NoError(t, h.Handle(ctx, events.Event{Type: events.ReportFollowed, ReportID: 12, ActorID: 1, OwnerID: 1}))
	n.AssertExpectations(t)
}
