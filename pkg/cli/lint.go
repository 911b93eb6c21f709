package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/linter/rules"
	"github.com/platinummonkey/phpsniff/pkg/observability"
)

type lintOptions struct {
	configFile    string
	format        string
	pattern       string
	tokenizer     string
	workers       int
	failOnError   bool
	failOnWarning bool
	watch         bool
}

func newLintCommand(g *globalOptions) *cobra.Command {
	opts := &lintOptions{}

	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Lint PHP files",
		Long: `Lint PHP files and directories. Directories are walked recursively,
skipping hidden directories and the configured ignore globs. With no
arguments the current directory is linted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			if cmd.Flags().Changed("pattern") && opts.pattern == "" {
				return fmt.Errorf("--pattern must not be empty")
			}
			if !slices.Contains(linter.Formats, opts.format) {
				return fmt.Errorf("%w: %q", linter.ErrUnknownFormat, opts.format)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runLint(ctx, cmd.OutOrStdout(), g.logger, opts, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configFile, "config", "c", "", "Path to lint config file (phpsniff.yaml)")
	fs.StringVarP(&opts.format, "format", "f", linter.FormatText, "Output format: text, json, github, checkstyle")
	fs.StringVar(&opts.pattern, "pattern", "", "Override the constant naming pattern")
	fs.StringVar(&opts.tokenizer, "tokenizer", "", "Tokenizer: native, tree-sitter")
	fs.IntVarP(&opts.workers, "workers", "j", 0, "Number of files linted in parallel (default: CPU count)")
	fs.BoolVar(&opts.failOnError, "fail-on-error", true, "Exit with error code on lint errors")
	fs.BoolVar(&opts.failOnWarning, "fail-on-warning", false, "Exit with error code on lint warnings")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "Re-lint files as they change")

	return cmd
}

func runLint(ctx context.Context, out io.Writer, logger *observability.Logger, opts *lintOptions, paths []string) error {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	logger = logger.WithField("run_id", runID)

	config, err := loadLintConfig(opts.configFile, configDir(paths))
	if err != nil {
		return err
	}
	if opts.tokenizer != "" {
		config.Lint.Tokenizer = opts.tokenizer
	}
	if opts.pattern != "" {
		config.SetRuleProperty(rules.ConstantNamingRuleName, rules.PropertyPattern, opts.pattern)
	}

	engine, err := newEngine(config, logger, linter.WithWorkers(opts.workers))
	if err != nil {
		return err
	}

	files, err := engine.Discover(paths...)
	if err != nil {
		return fmt.Errorf("failed to find PHP files: %w", err)
	}

	logger.WithField("files", len(files)).Info("Starting lint run")

	if len(files) == 0 && !opts.watch {
		fmt.Fprintln(out, "No PHP files found")
		return nil
	}

	summary, err := lintAndReport(ctx, out, engine, opts.format, files)
	if err != nil {
		return err
	}

	if opts.watch {
		return watchAndLint(ctx, out, logger, engine, opts.format, paths)
	}

	return checkThresholds(summary, opts)
}

func lintAndReport(ctx context.Context, out io.Writer, engine *linter.LintEngine, format string, files []linter.SourceFile) (linter.Summary, error) {
	results, err := engine.LintFiles(ctx, files)
	if err != nil {
		return linter.Summary{}, err
	}

	summary := engine.GenerateSummary(results)
	if err := linter.Report(out, format, results, summary); err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}
	return summary, nil
}

func checkThresholds(summary linter.Summary, opts *lintOptions) error {
	if opts.failOnError && summary.Errors > 0 {
		return fmt.Errorf("%w: %d errors", ErrViolationsFound, summary.Errors)
	}
	if opts.failOnWarning && summary.Warnings > 0 {
		return fmt.Errorf("%w: %d warnings", ErrViolationsFound, summary.Warnings)
	}
	return nil
}

// loadLintConfig loads an explicit config file, or searches dir for one
func loadLintConfig(configFile, dir string) (*linter.Config, error) {
	var (
		config *linter.Config
		err    error
	)
	if configFile != "" {
		config, err = linter.LoadConfig(configFile)
	} else {
		config, err = linter.LoadConfigFromDir(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

// configDir is the directory searched for a config file: the first path
// argument when it is a directory, otherwise the working directory
func configDir(paths []string) string {
	if len(paths) > 0 {
		if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
			return paths[0]
		}
	}
	return "."
}

func newEngine(config *linter.Config, logger *observability.Logger, opts ...linter.Option) (*linter.LintEngine, error) {
	cache, err := rules.NewPatternCache(rules.DefaultPatternCacheSize)
	if err != nil {
		return nil, err
	}

	opts = append([]linter.Option{
		linter.WithRules(rules.DefaultRules(rules.WithPatternCache(cache))...),
	}, opts...)
	if logger != nil {
		opts = append(opts, linter.WithLogger(logger))
	}

	engine, err := linter.NewLintEngine(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create lint engine: %w", err)
	}
	return engine, nil
}
