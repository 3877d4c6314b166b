package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClassifySchedulerErrorType(t *testing.T) {
	if got := ClassifySchedulerErrorType(&pgconn.PgError{Code: "23505"}); got != SchedulerErrorTypeDB {
		t.Fatalf("expected db error type, got %q", got)
	}
	if got := ClassifySchedulerErrorType(errors.New("report_not_resolved")); got != SchedulerErrorTypeBusinessRule {
		t.Fatalf("expected business rule error type, got %q", got)
	}
	if IsSchedulerErrorRetryable(errors.New("report_not_resolved")) {
		t.Fatalf("business rule errors must not be retryable")
	}
}

func TestAddBatchProcessedAndSweepOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSchedulerMetrics(registry, Config{
		ServiceName: "civicpulse",
		Environment: "test",
	})

	metrics.AddBatchProcessed("expire_resolutions", "reports", 3)
	metrics.IncSweepOutcome("closed")
	metrics.IncSweepOutcome("closed")

	if got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("expire_resolutions", "reports")); got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.sweepOutcomes.WithLabelValues("closed")); got != 2 {
		t.Fatalf("expected closed outcome count 2, got %v", got)
	}
}
