package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/phpsniff/pkg/httputil"
	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/linter/rules"
	"github.com/platinummonkey/phpsniff/pkg/observability"
	"github.com/platinummonkey/phpsniff/pkg/token"
)

// DefaultMaxBodyBytes bounds lint request bodies when Options leaves it unset
const DefaultMaxBodyBytes = 4 << 20

// Options configures a Server
type Options struct {
	// Config is the base lint config; requests may override the pattern
	Config *linter.Config
	// Tokenizer overrides the tokenizer named in Config
	Tokenizer token.Tokenizer
	Logger    *observability.Logger
	// Registry receives the Prometheus metrics; nil disables /metrics
	Registry *prometheus.Registry
	// Recorders receive lint observations in addition to Prometheus
	Recorders        []linter.MetricsRecorder
	Version          string
	MaxBodyBytes     int64
	PatternCacheSize int
}

// Server serves the lint API
type Server struct {
	router    *mux.Router
	handler   http.Handler
	config    *linter.Config
	tokenizer token.Tokenizer
	engine    *linter.LintEngine
	cache     *rules.PatternCache
	logger    *observability.Logger
	health    *observability.HealthChecker
	metrics   *observability.Metrics
	registry  *prometheus.Registry
	recorders []linter.MetricsRecorder
	maxBody   int64
}

// NewServer creates a new API server. The base engine is built here so a
// bad lint config fails at startup.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		opts.Config = linter.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewNopLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.PatternCacheSize <= 0 {
		opts.PatternCacheSize = rules.DefaultPatternCacheSize
	}

	cache, err := rules.NewPatternCache(opts.PatternCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    mux.NewRouter(),
		config:    opts.Config,
		tokenizer: opts.Tokenizer,
		cache:     cache,
		logger:    opts.Logger,
		health:    observability.NewHealthChecker(opts.Version),
		registry:  opts.Registry,
		recorders: opts.Recorders,
		maxBody:   opts.MaxBodyBytes,
	}
	if opts.Registry != nil {
		s.metrics = observability.NewMetrics(opts.Registry)
		s.recorders = append(s.recorders, s.metrics)
	}

	s.engine, err = s.newEngine(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create lint engine: %w", err)
	}

	s.health.AddCheck("rules", func(ctx context.Context) error {
		for _, info := range s.engine.Describe() {
			if info.Enabled {
				return nil
			}
		}
		return fmt.Errorf("no lint rules enabled")
	})

	s.setupRoutes()
	s.handler = s.buildHandler()
	return s, nil
}

func (s *Server) newEngine(config *linter.Config) (*linter.LintEngine, error) {
	opts := []linter.Option{
		linter.WithRules(rules.DefaultRules(rules.WithPatternCache(s.cache))...),
		linter.WithLogger(s.logger),
		linter.WithMetrics(s.recorders...),
	}
	if s.tokenizer != nil {
		opts = append(opts, linter.WithTokenizer(s.tokenizer))
	}
	return linter.NewLintEngine(config, opts...)
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	NewLintHandlers(s).RegisterRoutes(s.router.PathPrefix("/v1").Subrouter())

	s.router.HandleFunc("/healthz", s.health.Liveness).Methods("GET")
	s.router.HandleFunc("/readyz", s.health.Readiness).Methods("GET")
	if s.registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.registry)).Methods("GET")
	}
}

// Handler returns the router wrapped in the service middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) buildHandler() http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
	}
	if s.metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetricsMiddleware(s.metrics))
	}
	middlewares = append(middlewares,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(s.maxBody),
	)

	return otelhttp.NewHandler(httputil.Chain(middlewares...)(s.router), "phpsniff")
}

// ServeHTTP implements http.Handler with the full middleware chain
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Health returns the server's health checker
func (s *Server) Health() *observability.HealthChecker {
	return s.health
}
