package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/phpsniff/pkg/api"
	"github.com/platinummonkey/phpsniff/pkg/config"
	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/observability"
)

func newServeCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the lint engine over HTTP",
		Long: `Serve the lint engine over HTTP. The server is configured from
PHPSNIFF_* environment variables; see pkg/config for the full list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, g)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, g *globalOptions) error {
	logger := observability.NewLoggerWithFormat(cfg.Observability.LogLevel, cfg.Observability.LogFormat, nil).
		WithField("service", cfg.Observability.OTelServiceName)

	lintConfig := linter.DefaultConfig()
	if cfg.Lint.ConfigPath != "" {
		var err error
		lintConfig, err = linter.LoadConfig(cfg.Lint.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load lint config: %w", err)
		}
	}
	if cfg.Lint.Tokenizer != "" {
		lintConfig.Lint.Tokenizer = cfg.Lint.Tokenizer
	}

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	var recorders []linter.MetricsRecorder
	if providers != nil {
		otelMetrics, err := observability.NewOTelMetrics()
		if err != nil {
			return err
		}
		recorders = append(recorders, otelMetrics)
	}

	var registry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	srv, err := api.NewServer(api.Options{
		Config:           lintConfig,
		Logger:           logger,
		Registry:         registry,
		Recorders:        recorders,
		Version:          g.version,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		PatternCacheSize: cfg.Lint.PatternCacheSize,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sm := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer observability.RecoverPanic(logger, "http server")
		logger.Infof("Starting phpsniff server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancel()
		}
	}()

	shutdownErr := sm.WaitForShutdown(ctx)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	default:
	}
	return shutdownErr
}
