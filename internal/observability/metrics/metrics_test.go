package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("outcome", "closed"),
		attribute.String("user_id", "456"),
		attribute.String("report_id", "789"),
		attribute.String("trigger", "vote"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "user_id" || attr.Key == "report_id" {
			t.Fatalf("unexpected high-cardinality label %s", attr.Key)
		}
	}
}

func TestNopMetricsAreSafe(t *testing.T) {
	m := NewNop()
	if m == nil {
		t.Fatalf("expected nop metrics")
	}
	ctx := context.Background()
	m.RecordReportCreated(ctx, "safety")
	m.RecordStatusTransition(ctx, "open", "resolved", "user")
	m.RecordArbiterOutcome(ctx, "closed", "vote")
	m.RecordPoints(ctx, "comment", 5)

	var nilMetrics *Metrics
	nilMetrics.RecordVote(ctx, "confirmed")
	nilMetrics.RecordBadge(ctx, "spotter", "bronze")
}
