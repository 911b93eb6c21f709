// Package linter runs token-stream lint rules over PHP sources.
//
// # Overview
//
// A LintEngine owns a rule registry, a tokenizer and the lint config. Rules
// declare the token kinds they care about; the engine walks each file's
// token stream once and dispatches every token to the rules registered for
// its kind. Rules report through a Sink, and the engine turns each report
// into a Violation carrying the rule name, code, severity and position.
//
// # Configuration
//
// Config is loaded from phpsniff.yaml (or .yml, optionally dot-prefixed):
//
//	version: v1
//	lint:
//	  tokenizer: native
//	  extensions: [".php"]
//	  ignore: ["vendor/**"]
//	  rules:
//	    valid-constant-name:
//	      severity: error
//	      properties:
//	        pattern: '\b[A-Z][A-Z0-9_]*\b'
//	  categories:
//	    naming: warning
//	  files:
//	    "tests/**":
//	      rules:
//	        valid-constant-name: false
//
// Severity resolves as rule override, then category override, then the
// rule's default. Ignore and files globs are matched against paths relative
// to the linted directory. When several files globs match, the longest wins.
//
// # Usage Example
//
//	config, err := linter.LoadConfigFromDir(dir)
//	engine, err := linter.NewLintEngine(config,
//		linter.WithRules(rules.DefaultRules()...),
//		linter.WithLogger(logger),
//	)
//	files, err := engine.Discover(dir)
//	results, err := engine.LintFiles(ctx, files)
//	err = linter.Report(os.Stdout, linter.FormatText, results, linter.GenerateSummary(results))
//
// # Related Packages
//
//   - pkg/token: Token stream and tokenizers
//   - pkg/linter/rules: Built-in rules
package linter
