// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure for the lint engine
// and the lint service: logrus-backed logging, lint and HTTP metrics, health
// checks, graceful shutdown and OTLP export.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("file", path).Info("linted")
//
// Context-aware logging:
//
//	ctx = observability.WithRunID(ctx, runID)
//	observability.FromContext(ctx).Debug("starting run")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	engine, err := linter.NewLintEngine(cfg, linter.WithMetrics(metrics))
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "phpsniff",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Service configuration
//   - pkg/httputil: Request logging middleware
package observability
