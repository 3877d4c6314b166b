package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/civicpulse/internal/clock"
	"github.com/smallbiznis/civicpulse/internal/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	name  string
	order int
	calls *[]string
	err   error
	panic bool
}

func (h recordingHandler) Name() string { return h.name }
func (h recordingHandler) Order() int   { return h.order }

func (h recordingHandler) Handle(_ context.Context, evt Event) error {
	*h.calls = append(*h.calls, h.name+":"+string(evt.Type))
	if h.panic {
		panic("boom")
	}
	return h.err
}

func TestDispatcherRunsHandlersInOrderAndSwallowsFailures(t *testing.T) {
	db := dbtest.Open(t)
	var calls []string

	d := NewDispatcher(DispatcherParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: dbtest.Node(t),
		Clock: clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
		Handlers: []Handler{
			recordingHandler{name: "notify", order: 20, calls: &calls},
			recordingHandler{name: "points", order: 10, calls: &calls, err: errors.New("ledger down")},
			recordingHandler{name: "audit", order: 30, calls: &calls, panic: true},
		},
	})

	d.Publish(context.Background(), Event{Type: ReportClosed, ReportID: 77, OwnerID: 5})

	assert.Equal(t, []string{
		"points:report.closed",
		"notify:report.closed",
		"audit:report.closed",
	}, calls)

	var row struct {
		EventKey  string
		EventType string
		ReportID  int64
	}
	require.NoError(t, db.Raw(`SELECT event_key, event_type, report_id FROM domain_events`).Scan(&row).Error)
	assert.Equal(t, "report.closed", row.EventType)
	assert.EqualValues(t, 77, row.ReportID)
	assert.Len(t, row.EventKey, 26)
}

func TestDispatcherWithoutDatabaseStillDispatches(t *testing.T) {
	var calls []string
	d := NewDispatcher(DispatcherParams{
		Log:      zap.NewNop(),
		GenID:    dbtest.Node(t),
		Clock:    clock.SystemClock{},
		Handlers: []Handler{recordingHandler{name: "only", calls: &calls}},
	})

	d.Publish(context.Background(), Event{Type: CommentCreated, ReportID: 1})
	assert.Equal(t, []string{"only:comment.created"}, calls)
}
