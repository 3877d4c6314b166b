package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes lifecycle and engagement instruments.
type Metrics struct {
	reportsCreated    metric.Int64Counter
	statusTransitions metric.Int64Counter
	votesCast         metric.Int64Counter
	arbiterOutcomes   metric.Int64Counter
	pointsAwarded     metric.Int64Counter
	badgesAwarded     metric.Int64Counter
	notifications     metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "civicpulse"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	var err error
	if m.reportsCreated, err = meter.Int64Counter("civicpulse_reports_created_total"); err != nil {
		return nil, err
	}
	if m.statusTransitions, err = meter.Int64Counter("civicpulse_report_status_transitions_total"); err != nil {
		return nil, err
	}
	if m.votesCast, err = meter.Int64Counter("civicpulse_confirmation_votes_total"); err != nil {
		return nil, err
	}
	if m.arbiterOutcomes, err = meter.Int64Counter("civicpulse_arbiter_outcomes_total"); err != nil {
		return nil, err
	}
	if m.pointsAwarded, err = meter.Int64Counter("civicpulse_points_awarded_total"); err != nil {
		return nil, err
	}
	if m.badgesAwarded, err = meter.Int64Counter("civicpulse_badges_awarded_total"); err != nil {
		return nil, err
	}
	if m.notifications, err = meter.Int64Counter("civicpulse_notifications_total"); err != nil {
		return nil, err
	}
	if m.rateLimitDenied, err = meter.Int64Counter("civicpulse_rate_limit_denied_total"); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNop returns instruments backed by the no-op provider, for tests and tools.
func NewNop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordReportCreated counts new reports by category.
func (m *Metrics) RecordReportCreated(ctx context.Context, category string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("category", strings.TrimSpace(category)))
	m.reportsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStatusTransition counts lifecycle transitions.
func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to, trigger string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from", strings.TrimSpace(from)),
		attribute.String("to", strings.TrimSpace(to)),
		attribute.String("trigger", strings.TrimSpace(trigger)),
	)
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordVote counts confirmation votes by value.
func (m *Metrics) RecordVote(ctx context.Context, vote string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("vote", strings.TrimSpace(vote)))
	m.votesCast.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordArbiterOutcome counts arbiter decisions and what triggered the evaluation.
func (m *Metrics) RecordArbiterOutcome(ctx context.Context, outcome, trigger string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.String("trigger", strings.TrimSpace(trigger)),
	)
	m.arbiterOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPoints adds awarded points by action.
func (m *Metrics) RecordPoints(ctx context.Context, action string, points int) {
	if m == nil || points <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("action", strings.TrimSpace(action)))
	m.pointsAwarded.Add(ctx, int64(points), metric.WithAttributes(attrs...))
}

// RecordBadge counts badge unlocks.
func (m *Metrics) RecordBadge(ctx context.Context, badgeType, tier string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("badge_type", strings.TrimSpace(badgeType)),
		attribute.String("tier", strings.TrimSpace(tier)),
	)
	m.badgesAwarded.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotifications adds emitted notifications by type.
func (m *Metrics) RecordNotifications(ctx context.Context, notificationType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("notification_type", strings.TrimSpace(notificationType)))
	m.notifications.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts writes rejected by the per-user limiter.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"category":          {},
	"from":              {},
	"to":                {},
	"trigger":           {},
	"vote":              {},
	"outcome":           {},
	"action":            {},
	"badge_type":        {},
	"tier":              {},
	"notification_type": {},
	"endpoint":          {},
	"method":            {},
	"route":             {},
	"status_code":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
