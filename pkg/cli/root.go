package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/phpsniff/pkg/observability"
)

// ErrViolationsFound is returned by lint when the fail-on thresholds are hit
var ErrViolationsFound = errors.New("lint violations found")

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	logLevel  string
	logFormat string
	version   string

	logger *observability.Logger
}

// NewRootCommand creates the root command
func NewRootCommand(version string) *cobra.Command {
	g := &globalOptions{version: version}

	cmd := &cobra.Command{
		Use:   "phpsniff",
		Short: "PHP source linter",
		Long: `phpsniff checks PHP source files against coding standard rules.

It runs the lint rules over a token stream of each file and reports
violations as text, JSON, GitHub annotations or checkstyle XML. It can
also serve the same engine over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setupLogger(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", string(observability.FormatText), "Log format (json, text)")

	cmd.AddCommand(
		newLintCommand(g),
		newRulesCommand(g),
		newServeCommand(g),
		newVersionCommand(g),
	)

	return cmd
}

func (g *globalOptions) setupLogger(w io.Writer) error {
	format := observability.LogFormat(strings.ToLower(g.logFormat))
	if format != observability.FormatJSON && format != observability.FormatText {
		return fmt.Errorf("unknown log format %q", g.logFormat)
	}
	g.logger = observability.NewLoggerWithFormat(observability.ParseLogLevel(g.logLevel), format, w)
	return nil
}

// ExitCode maps a command error to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrViolationsFound):
		return 1
	default:
		return 2
	}
}
