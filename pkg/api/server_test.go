package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/phpsniff/pkg/httputil"
	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/linter/rules"
	"github.com/platinummonkey/phpsniff/pkg/observability"
)

func newTestServer(t *testing.T, config *linter.Config) *Server {
	t.Helper()
	srv, err := NewServer(Options{
		Config:   config,
		Registry: prometheus.NewRegistry(),
		Version:  "test",
	})
	require.NoError(t, err)
	return srv
}

func postLint(t *testing.T, h http.Handler, query string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/lint"+query, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_InvalidConfig(t *testing.T) {
	config := linter.DefaultConfig()
	config.SetRuleProperty(rules.ConstantNamingRuleName, rules.PropertyPattern, "[unclosed")

	_, err := NewServer(Options{Config: config})
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrInvalidPattern)
}

func TestLintHandler(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	t.Run("class constant violation", func(t *testing.T) {
		rec := postLint(t, h, "", LintRequest{
			Path:    "src/A.php",
			Content: "<?php\nclass A {\n    const foo = 1;\n}\n",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LintResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "src/A.php", resp.Result.FilePath)
		require.Len(t, resp.Result.Violations, 1)

		v := resp.Result.Violations[0]
		assert.Equal(t, rules.CodeClassConstantNotMatchPattern, v.Code)
		assert.Equal(t, 3, v.Position.Line)
		assert.Equal(t, 11, v.Position.Column)
		assert.Equal(t, []string{"foo"}, v.Args)
		assert.Equal(t, 1, resp.Summary.Errors)
	})

	t.Run("default path", func(t *testing.T) {
		rec := postLint(t, h, "", LintRequest{Content: "<?php define('GOOD', 1);"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LintResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, defaultLintPath, resp.Result.FilePath)
		assert.Empty(t, resp.Result.Violations)
	})

	t.Run("pattern override", func(t *testing.T) {
		pattern := "[a-z_]+"
		rec := postLint(t, h, "", LintRequest{
			Content: "<?php define('lower_ok', 1); define('UPPER', 2);",
			Pattern: &pattern,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LintResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Result.Violations, 1)
		assert.Equal(t, `Constant "UPPER" does not match pattern "[a-z_]+"`, resp.Result.Violations[0].Message)

		// the base engine keeps the default pattern
		rec = postLint(t, h, "", LintRequest{Content: "<?php define('lower_ok', 1);"})
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Result.Violations, 1)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		pattern := "("
		rec := postLint(t, h, "", LintRequest{Content: "<?php", Pattern: &pattern})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp httputil.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Error, "invalid pattern")
		assert.Equal(t, rules.PropertyPattern, resp.Details["property"])
	})

	t.Run("missing content", func(t *testing.T) {
		rec := postLint(t, h, "", LintRequest{Path: "a.php"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := postLint(t, h, "?format=sarif", LintRequest{Content: "<?php"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("github format", func(t *testing.T) {
		rec := postLint(t, h, "?format=github", LintRequest{Path: "a.php", Content: "<?php const bad = 1;"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "::error file=a.php,line=1,col=13::"), rec.Body.String())
	})

	t.Run("checkstyle format", func(t *testing.T) {
		rec := postLint(t, h, "?format=checkstyle", LintRequest{Path: "a.php", Content: "<?php const bad = 1;"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `<file name="a.php">`)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/lint", strings.NewReader("<?php"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("request id echoed", func(t *testing.T) {
		data, _ := json.Marshal(LintRequest{Content: "<?php"})
		req := httptest.NewRequest(http.MethodPost, "/v1/lint", bytes.NewReader(data))
		req.Header.Set(httputil.RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-42", rec.Header().Get(httputil.RequestIDHeader))
	})
}

func TestLintHandler_BodyTooLarge(t *testing.T) {
	srv, err := NewServer(Options{MaxBodyBytes: 16})
	require.NoError(t, err)

	rec := postLint(t, srv.Handler(), "", LintRequest{Content: strings.Repeat("x", 64)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_ServeHTTPUsesMiddleware(t *testing.T) {
	srv, err := NewServer(Options{MaxBodyBytes: 16})
	require.NoError(t, err)

	rec := postLint(t, srv, "", LintRequest{Content: strings.Repeat("x", 64)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(httputil.RequestIDHeader))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(httputil.RequestIDHeader))
}

func TestRuleHandlers(t *testing.T) {
	config := linter.DefaultConfig()
	config.SetRuleProperty(rules.ConstantNamingRuleName, rules.PropertyPattern, "[A-Z]+")
	srv := newTestServer(t, config)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rules", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var infos []linter.RuleInfo
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&infos))
		require.Len(t, infos, 1)
		assert.Equal(t, rules.ConstantNamingRuleName, infos[0].Name)
		assert.True(t, infos[0].Enabled)
		assert.Equal(t, "[A-Z]+", infos[0].Properties[rules.PropertyPattern])
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rules/"+rules.ConstantNamingRuleName, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var info linter.RuleInfo
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
		assert.Equal(t, linter.CategoryNaming, info.Category)
		assert.Equal(t, linter.SeverityError, info.Severity)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/rules/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("ready with enabled rule", func(t *testing.T) {
		srv := newTestServer(t, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready when every rule is disabled", func(t *testing.T) {
		config := linter.DefaultConfig()
		config.SetRuleEnabled(rules.ConstantNamingRuleName, false)
		srv := newTestServer(t, config)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var status observability.HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, "no lint rules enabled", status.Dependencies["rules"].Message)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	postLint(t, h, "", LintRequest{Content: "<?php const bad = 1;"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "phpsniff_files_linted_total")
	assert.Contains(t, body, "phpsniff_violations_total")
	assert.Contains(t, body, "phpsniff_http_requests_total")
}

func TestMetricsEndpoint_DisabledWithoutRegistry(t *testing.T) {
	srv, err := NewServer(Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
