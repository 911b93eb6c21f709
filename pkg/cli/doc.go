// Package cli implements the phpsniff command line.
//
// # Commands
//
// lint: Lint files and directories
//
//	phpsniff lint src/ --format github
//	phpsniff lint --config phpsniff.yaml --pattern '[A-Z][A-Z0-9_]*' src/
//	phpsniff lint --watch src/
//
// rules: List the registered rules grouped by category
//
//	phpsniff rules
//
// serve: Serve the lint API, configured from PHPSNIFF_* environment variables
//
//	PHPSNIFF_PORT=9000 phpsniff serve
//
// version: Print the build version
//
// # Exit Status
//
// lint exits 1 when violations cross the --fail-on-error or --fail-on-warning
// thresholds and 2 on any other failure.
package cli
