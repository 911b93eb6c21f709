package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/phpsniff/pkg/httputil"
	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/linter/rules"
)

// defaultLintPath names inline content that arrives without a path
const defaultLintPath = "input.php"

// LintRequest is the body of POST /v1/lint
type LintRequest struct {
	Path    string  `json:"path,omitempty"`
	Content string  `json:"content"`
	Pattern *string `json:"pattern,omitempty"`
}

// LintResponse is the JSON body returned by POST /v1/lint
type LintResponse struct {
	Result  linter.LintResult `json:"result"`
	Summary linter.Summary    `json:"summary"`
}

// LintHandlers handles lint HTTP requests
type LintHandlers struct {
	server *Server
}

// NewLintHandlers creates a new lint handlers instance
func NewLintHandlers(server *Server) *LintHandlers {
	return &LintHandlers{server: server}
}

// RegisterRoutes registers lint routes
func (h *LintHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/lint", h.lint).Methods("POST")
	router.HandleFunc("/rules", h.listRules).Methods("GET")
	router.HandleFunc("/rules/{name}", h.getRule).Methods("GET")
}

// lint handles POST /v1/lint
func (h *LintHandlers) lint(w http.ResponseWriter, r *http.Request) {
	var req LintRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Content, "content") {
		return
	}
	if req.Path == "" {
		req.Path = defaultLintPath
	}

	format, ok := httputil.ParseQueryEnumOrError(w, r, "format", linter.FormatJSON, linter.Formats)
	if !ok {
		return
	}

	engine := h.server.engine
	if req.Pattern != nil {
		config := h.server.config.Clone()
		config.SetRuleProperty(rules.ConstantNamingRuleName, rules.PropertyPattern, *req.Pattern)

		var err error
		engine, err = h.server.newEngine(config)
		if err != nil {
			if errors.Is(err, rules.ErrInvalidPattern) {
				httputil.WriteDetailedError(w, http.StatusBadRequest, err, map[string]string{
					"rule":     rules.ConstantNamingRuleName,
					"property": rules.PropertyPattern,
				})
				return
			}
			httputil.WriteInternalError(w, err)
			return
		}
	}

	result, err := engine.LintSource(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		httputil.WriteError(w, http.StatusUnprocessableEntity, err)
		return
	}
	results := []linter.LintResult{result}
	summary := linter.GenerateSummary(results)

	if format == linter.FormatJSON {
		_ = httputil.WriteSuccess(w, LintResponse{Result: result, Summary: summary})
		return
	}

	var buf bytes.Buffer
	if err := linter.Report(&buf, format, results, summary); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if format == linter.FormatCheckstyle {
		contentType = "application/xml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// listRules handles GET /v1/rules
func (h *LintHandlers) listRules(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, h.server.engine.Describe())
}

// getRule handles GET /v1/rules/{name}
func (h *LintHandlers) getRule(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}

	for _, info := range h.server.engine.Describe() {
		if info.Name == name {
			_ = httputil.WriteSuccess(w, info)
			return
		}
	}
	httputil.WriteNotFoundError(w, "rule not found: "+name)
}
