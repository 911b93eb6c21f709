package linter

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/phpsniff/pkg/observability"
	"github.com/platinummonkey/phpsniff/pkg/token"
)

const tracerName = "github.com/platinummonkey/phpsniff/pkg/linter"

// MetricsRecorder receives per-file and per-violation observations
type MetricsRecorder interface {
	ObserveFile(ctx context.Context, status string, tokens int, d time.Duration)
	ObserveViolation(ctx context.Context, rule, code, severity string)
}

// Option configures a LintEngine
type Option func(*LintEngine)

// WithRules registers rules with the engine before configuration
func WithRules(rules ...Rule) Option {
	return func(e *LintEngine) {
		e.pending = append(e.pending, rules...)
	}
}

// WithTokenizer overrides the tokenizer selected by config
func WithTokenizer(t token.Tokenizer) Option {
	return func(e *LintEngine) {
		e.tokenizer = t
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *observability.Logger) Option {
	return func(e *LintEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics adds metrics recorders
func WithMetrics(recorders ...MetricsRecorder) Option {
	return func(e *LintEngine) {
		e.metrics = append(e.metrics, recorders...)
	}
}

// WithWorkers bounds the number of files linted concurrently
func WithWorkers(n int) Option {
	return func(e *LintEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithTracer sets the tracer used for per-file spans
func WithTracer(tracer trace.Tracer) Option {
	return func(e *LintEngine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// LintEngine orchestrates the linting process
type LintEngine struct {
	config    *Config
	registry  *RuleRegistry
	tokenizer token.Tokenizer
	logger    *observability.Logger
	metrics   []MetricsRecorder
	tracer    trace.Tracer
	workers   int

	pending  []Rule
	bound    []boundRule
	dispatch map[token.Kind][]int
}

type boundRule struct {
	rule     Rule
	severity Severity
}

// NewLintEngine creates a new lint engine. Rules are registered and
// configured here, so an invalid rule property fails construction rather
// than a lint run.
func NewLintEngine(config *Config, opts ...Option) (*LintEngine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &LintEngine{
		config:   config,
		registry: NewRuleRegistry(),
		logger:   observability.NewNopLogger(),
		tracer:   otel.Tracer(tracerName),
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.tokenizer == nil {
		tokenizer, err := NewTokenizer(config.Lint.Tokenizer)
		if err != nil {
			return nil, err
		}
		e.tokenizer = tokenizer
	}

	for _, rule := range e.pending {
		e.registry.Register(rule)
	}
	e.pending = nil

	for name := range config.Lint.Rules {
		if _, ok := e.registry.GetRule(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRule, name)
		}
	}

	if err := e.configureRules(); err != nil {
		return nil, err
	}
	e.buildDispatch()

	return e, nil
}

func (e *LintEngine) configureRules() error {
	for _, rule := range e.registry.GetAllRules() {
		configurable, ok := rule.(Configurable)
		if !ok {
			continue
		}
		if err := configurable.Configure(e.config.RuleProperties(rule.Name())); err != nil {
			return fmt.Errorf("failed to configure rule %s: %w", rule.Name(), err)
		}
	}
	return nil
}

func (e *LintEngine) buildDispatch() {
	e.dispatch = make(map[token.Kind][]int)
	for _, rule := range e.registry.GetAllRules() {
		// per-file overrides may turn a globally disabled rule back on
		if !e.config.RuleEnabled(rule.Name()) && len(e.config.Lint.Files) == 0 {
			continue
		}
		idx := len(e.bound)
		e.bound = append(e.bound, boundRule{rule: rule, severity: e.config.SeverityFor(rule)})
		seen := make(map[token.Kind]bool)
		for _, kind := range rule.Register() {
			if seen[kind] {
				continue
			}
			seen[kind] = true
			e.dispatch[kind] = append(e.dispatch[kind], idx)
		}
	}
}

// Registry returns the engine's rule registry
func (e *LintEngine) Registry() *RuleRegistry {
	return e.registry
}

// Config returns the engine configuration
func (e *LintEngine) Config() *Config {
	return e.config
}

// Describe lists every registered rule with its effective settings
func (e *LintEngine) Describe() []RuleInfo {
	rules := e.registry.GetAllRules()
	infos := make([]RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, RuleInfo{
			Name:        rule.Name(),
			Category:    rule.Category(),
			Severity:    e.config.SeverityFor(rule),
			Description: rule.Description(),
			Enabled:     e.config.RuleEnabled(rule.Name()),
			Properties:  e.config.RuleProperties(rule.Name()),
		})
	}
	return infos
}

// Lint runs all enabled rules against a token stream in a single pass.
// Per-file overrides are matched against filePath.
func (e *LintEngine) Lint(ctx context.Context, filePath string, stream token.Stream) LintResult {
	return e.lint(ctx, SourceFile{Path: filePath, Rel: filePath}, stream)
}

func (e *LintEngine) lint(ctx context.Context, file SourceFile, stream token.Stream) LintResult {
	start := time.Now()
	result := LintResult{
		FilePath:   file.Path,
		TokenCount: len(stream),
	}

	active := make([]bool, len(e.bound))
	for i, br := range e.bound {
		active[i] = e.config.RuleEnabledForFile(br.rule.Name(), file.Rel)
	}

	sink := &fileSink{stream: stream, violations: make([]Violation, 0)}
	for pos := range stream {
		for _, idx := range e.dispatch[stream[pos].Kind] {
			if !active[idx] {
				continue
			}
			sink.rule = e.bound[idx]
			e.bound[idx].rule.Process(stream, pos, sink)
		}
	}
	result.Violations = sink.violations

	for _, m := range e.metrics {
		m.ObserveFile(ctx, "ok", len(stream), time.Since(start))
		for _, v := range result.Violations {
			m.ObserveViolation(ctx, v.Rule, v.Code, string(v.Severity))
		}
	}

	return result
}

// LintSource tokenizes src and lints it
func (e *LintEngine) LintSource(ctx context.Context, filePath string, src []byte) (LintResult, error) {
	return e.lintSource(ctx, SourceFile{Path: filePath, Rel: filePath}, src)
}

func (e *LintEngine) lintSource(ctx context.Context, file SourceFile, src []byte) (LintResult, error) {
	filePath := file.Path
	ctx, span := e.tracer.Start(ctx, "linter.LintSource",
		trace.WithAttributes(attribute.String("file.path", filePath)))
	defer span.End()

	start := time.Now()
	stream, err := e.tokenizer.Tokenize(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tokenize failed")
		for _, m := range e.metrics {
			m.ObserveFile(ctx, "error", 0, time.Since(start))
		}
		return LintResult{FilePath: filePath}, fmt.Errorf("failed to tokenize %s: %w", filePath, err)
	}

	result := e.lint(ctx, file, stream)
	span.SetAttributes(
		attribute.Int("lint.tokens", result.TokenCount),
		attribute.Int("lint.violations", len(result.Violations)),
	)

	e.logger.WithFields(map[string]interface{}{
		"file":       filePath,
		"tokens":     result.TokenCount,
		"violations": len(result.Violations),
	}).Debug("Linted file")

	return result, nil
}

// LintFiles reads and lints files concurrently. Results are sorted by path.
// The first read or tokenize error cancels the remaining work.
func (e *LintEngine) LintFiles(ctx context.Context, files []SourceFile) ([]LintResult, error) {
	results := make([]LintResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, file := range files {
		path := file.Path
		g.Go(func() (err error) {
			defer func() {
				if perr := observability.MustRecover(recover()); perr != nil {
					err = fmt.Errorf("lint %s: %w", path, perr)
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			result, err := e.lintSource(gctx, file, data)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FilePath < results[j].FilePath
	})
	return results, nil
}

// ShouldLint reports whether a path relative to the lint root is selected
// by the configured extensions and ignore globs
func (e *LintEngine) ShouldLint(rel string) bool {
	return e.config.HasExtension(rel) && !e.config.IsIgnored(rel)
}

// Discover expands the given paths into the list of files to lint, sorted
// by path. Files named directly are always included and keep the path as
// given for Rel; directories are walked, skipping hidden directories and
// ignored paths, and each file's Rel is relative to the walked directory.
func (e *LintEngine) Discover(paths ...string) ([]SourceFile, error) {
	seen := make(map[string]bool)
	var files []SourceFile
	add := func(path, rel string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, SourceFile{Path: path, Rel: filepath.ToSlash(rel)})
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root, filepath.Clean(root))
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			if d.IsDir() {
				if path != root && (strings.HasPrefix(d.Name(), ".") || e.config.IsIgnored(rel)) {
					return filepath.SkipDir
				}
				return nil
			}
			if e.ShouldLint(rel) {
				add(path, rel)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// GenerateSummary creates a summary of lint results
func (e *LintEngine) GenerateSummary(results []LintResult) Summary {
	return GenerateSummary(results)
}

// GenerateSummary creates a summary of lint results
func GenerateSummary(results []LintResult) Summary {
	summary := Summary{
		TotalFiles: len(results),
	}

	for _, result := range results {
		summary.TotalViolations += len(result.Violations)
		for _, v := range result.Violations {
			switch v.Severity {
			case SeverityError:
				summary.Errors++
			case SeverityWarning:
				summary.Warnings++
			case SeverityInfo:
				summary.Infos++
			}
		}
	}

	return summary
}

// SourceFile is a file to lint. Path is where it is read from; Rel is the
// path that ignore and per-file override globs are matched against.
type SourceFile struct {
	Path string
	Rel  string
}

// LintResult contains the result of linting a single file
type LintResult struct {
	FilePath   string      `json:"file"`
	Violations []Violation `json:"violations"`
	TokenCount int         `json:"tokens"`
}

// Violation represents a linting violation
type Violation struct {
	Rule     string         `json:"rule"`
	Code     string         `json:"code"`
	Severity Severity       `json:"severity"`
	Category Category       `json:"category"`
	Message  string         `json:"message"`
	Args     []string       `json:"args,omitempty"`
	Token    int            `json:"token"`
	Position token.Position `json:"position"`
}

// Source returns the fully qualified code, rule.Code
func (v Violation) Source() string {
	return v.Rule + "." + v.Code
}

// RuleInfo describes a registered rule and its effective settings
type RuleInfo struct {
	Name        string            `json:"name"`
	Category    Category          `json:"category"`
	Severity    Severity          `json:"severity"`
	Description string            `json:"description"`
	Enabled     bool              `json:"enabled"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// Severity indicates how serious a violation is
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity converts a config string into a Severity
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityError:
		return SeverityError, nil
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityInfo:
		return SeverityInfo, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Category groups related rules
type Category string

const (
	CategoryNaming        Category = "naming"
	CategoryStyle         Category = "style"
	CategoryDocumentation Category = "documentation"
	CategoryStructure     Category = "structure"
)

// Summary provides an overview of all lint results
type Summary struct {
	TotalFiles      int `json:"files"`
	TotalViolations int `json:"violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Infos           int `json:"infos"`
}
