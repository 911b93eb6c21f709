package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments for lint runs
type OTelMetrics struct {
	filesLinted  metric.Int64Counter
	tokens       metric.Int64Counter
	violations   metric.Int64Counter
	lintDuration metric.Float64Histogram
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	return NewOTelMetricsWithMeter(otel.Meter("github.com/platinummonkey/phpsniff"))
}

// NewOTelMetricsWithMeter creates instruments on the given meter
func NewOTelMetricsWithMeter(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{}
	var err error

	m.filesLinted, err = meter.Int64Counter(
		"phpsniff.files.linted",
		metric.WithDescription("Number of files linted"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create files counter: %w", err)
	}

	m.tokens, err = meter.Int64Counter(
		"phpsniff.tokens",
		metric.WithDescription("Number of tokens scanned"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens counter: %w", err)
	}

	m.violations, err = meter.Int64Counter(
		"phpsniff.violations",
		metric.WithDescription("Number of reported violations"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create violations counter: %w", err)
	}

	m.lintDuration, err = meter.Float64Histogram(
		"phpsniff.lint.duration",
		metric.WithDescription("Time spent linting a single file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return m, nil
}

// ObserveFile records one linted file
func (m *OTelMetrics) ObserveFile(ctx context.Context, status string, tokens int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.filesLinted.Add(ctx, 1, attrs)
	m.tokens.Add(ctx, int64(tokens))
	m.lintDuration.Record(ctx, d.Seconds(), attrs)
}

// ObserveViolation records one reported violation
func (m *OTelMetrics) ObserveViolation(ctx context.Context, rule, code, severity string) {
	m.violations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rule", rule),
		attribute.String("code", code),
		attribute.String("severity", severity),
	))
}
