// Package config provides lint service configuration from environment variables.
//
// # Overview
//
// This package loads and validates the settings of `phpsniff serve` from
// environment variables with defaults for every setting. Lint rules
// themselves are configured by phpsniff.yaml, see pkg/linter.
//
// # Configuration Structure
//
// Server settings:
//
//	PHPSNIFF_HOST="0.0.0.0"
//	PHPSNIFF_PORT="8080"
//	PHPSNIFF_READ_TIMEOUT="15s"
//	PHPSNIFF_WRITE_TIMEOUT="15s"
//	PHPSNIFF_MAX_BODY_BYTES="4194304"
//
// Lint settings:
//
//	PHPSNIFF_LINT_CONFIG="/etc/phpsniff/phpsniff.yaml"
//	PHPSNIFF_TOKENIZER="native"  # native, tree-sitter
//	PHPSNIFF_PATTERN_CACHE_SIZE="128"
//
// Observability settings:
//
//	PHPSNIFF_LOG_LEVEL="info"  # debug, info, warn, error
//	PHPSNIFF_LOG_FORMAT="json" # json, text
//	PHPSNIFF_METRICS_ENABLED="true"
//	PHPSNIFF_OTEL_ENABLED="true"
//	PHPSNIFF_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	srv := &http.Server{Addr: cfg.Server.Addr(), ReadTimeout: cfg.Server.ReadTimeout}
package config
