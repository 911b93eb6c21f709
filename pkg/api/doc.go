// Package api serves the lint engine over HTTP.
//
// # Endpoints
//
//	POST /v1/lint           lint inline content: {"path", "content", "pattern"}
//	GET  /v1/rules          list registered rules with effective settings
//	GET  /v1/rules/{name}   describe one rule
//	GET  /healthz           liveness
//	GET  /readyz            readiness
//	GET  /metrics           Prometheus metrics (when a registry is configured)
//
// POST /v1/lint answers JSON by default; ?format=text, github or checkstyle
// returns that report instead. A request pattern overrides the
// valid-constant-name pattern for that request only.
//
// # Usage Example
//
//	srv, err := api.NewServer(api.Options{
//		Config:   lintConfig,
//		Logger:   logger,
//		Registry: prometheus.NewRegistry(),
//		Version:  version,
//	})
//	http.ListenAndServe(":8080", srv.Handler())
package api
