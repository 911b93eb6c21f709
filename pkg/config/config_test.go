package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platinummonkey/phpsniff/pkg/observability"
)

var serviceEnv = []string{
	"PHPSNIFF_HOST",
	"PHPSNIFF_PORT",
	"PHPSNIFF_READ_TIMEOUT",
	"PHPSNIFF_WRITE_TIMEOUT",
	"PHPSNIFF_IDLE_TIMEOUT",
	"PHPSNIFF_SHUTDOWN_TIMEOUT",
	"PHPSNIFF_MAX_BODY_BYTES",
	"PHPSNIFF_LINT_CONFIG",
	"PHPSNIFF_TOKENIZER",
	"PHPSNIFF_PATTERN_CACHE_SIZE",
	"PHPSNIFF_LOG_LEVEL",
	"PHPSNIFF_LOG_FORMAT",
	"PHPSNIFF_METRICS_ENABLED",
	"PHPSNIFF_OTEL_ENABLED",
	"PHPSNIFF_OTEL_ENDPOINT",
	"PHPSNIFF_OTEL_SERVICE_NAME",
	"PHPSNIFF_OTEL_SERVICE_VERSION",
	"PHPSNIFF_OTEL_INSECURE",
	"PHPSNIFF_OTEL_SAMPLE_RATIO",
}

// clearEnv unsets every service variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range serviceEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.envValue)

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns true for 'true'", false, "true", true},
		{"returns true for '1'", false, "1", true},
		{"returns false for 'false'", true, "false", false},
		{"returns default when not set", true, "", true},
		{"returns true for 'TRUE' (case insensitive)", false, "TRUE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)

			got := getEnvBool("TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvNumbers tests the integer and duration helpers
func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BAD_DURATION", "soon")

	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt() = %v, want 42", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 1); got != 1 {
		t.Errorf("getEnvInt() with bad value = %v, want default 1", got)
	}
	if got := getEnvInt64("TEST_INT", 1); got != 42 {
		t.Errorf("getEnvInt64() = %v, want 42", got)
	}
	if got := getEnvInt64("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt64() with bad value = %v, want default 7", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}
	if got := getEnvDuration("TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with bad value = %v, want default 1s", got)
	}
}

// TestLoadServerConfig tests the loadServerConfig function
func TestLoadServerConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want ServerConfig
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: ServerConfig{
				Host:            "0.0.0.0",
				Port:            "8080",
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    15 * time.Second,
				IdleTimeout:     60 * time.Second,
				ShutdownTimeout: 30 * time.Second,
				MaxBodyBytes:    4 << 20,
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"PHPSNIFF_HOST":             "localhost",
				"PHPSNIFF_PORT":             "3000",
				"PHPSNIFF_READ_TIMEOUT":     "30s",
				"PHPSNIFF_WRITE_TIMEOUT":    "30s",
				"PHPSNIFF_IDLE_TIMEOUT":     "120s",
				"PHPSNIFF_SHUTDOWN_TIMEOUT": "60s",
				"PHPSNIFF_MAX_BODY_BYTES":   "1024",
			},
			want: ServerConfig{
				Host:            "localhost",
				Port:            "3000",
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 60 * time.Second,
				MaxBodyBytes:    1024,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got := loadServerConfig()
			if got != tt.want {
				t.Errorf("loadServerConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: "9000"}
	if got := s.Addr(); got != "127.0.0.1:9000" {
		t.Errorf("Addr() = %s, want 127.0.0.1:9000", got)
	}
}

// TestLoadObservabilityConfig tests the loadObservabilityConfig function
func TestLoadObservabilityConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHPSNIFF_LOG_LEVEL", "debug")
	t.Setenv("PHPSNIFF_LOG_FORMAT", "TEXT")
	t.Setenv("PHPSNIFF_OTEL_ENABLED", "true")
	t.Setenv("PHPSNIFF_OTEL_ENDPOINT", "collector:4317")
	t.Setenv("PHPSNIFF_OTEL_SAMPLE_RATIO", "0.25")

	got := loadObservabilityConfig()
	if got.LogLevel != observability.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", got.LogLevel)
	}
	if got.LogFormat != observability.FormatText {
		t.Errorf("LogFormat = %v, want text", got.LogFormat)
	}
	if !got.MetricsEnabled {
		t.Error("MetricsEnabled should default to true")
	}

	otel := got.OTel()
	if !otel.Enabled || otel.Endpoint != "collector:4317" || otel.ServiceName != "phpsniff" || !otel.Insecure {
		t.Errorf("OTel() = %+v", otel)
	}
	if otel.SampleRatio != 0.25 {
		t.Errorf("SampleRatio = %g, want 0.25", otel.SampleRatio)
	}
}

// TestConfigValidate tests the Validate method
func TestConfigValidate(t *testing.T) {
	lintConfig := filepath.Join(t.TempDir(), "phpsniff.yaml")
	if err := os.WriteFile(lintConfig, []byte("version: v1\n"), 0644); err != nil {
		t.Fatalf("Failed to write lint config: %v", err)
	}

	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", MaxBodyBytes: 1024},
			Lint:   LintConfig{PatternCacheSize: 16},
			Observability: ObservabilityConfig{
				LogFormat: observability.FormatJSON,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"valid with lint config", func(c *Config) { c.Lint.ConfigPath = lintConfig }, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"non-numeric port", func(c *Config) { c.Server.Port = "http" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, true},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, true},
		{"zero cache size", func(c *Config) { c.Lint.PatternCacheSize = 0 }, true},
		{"missing lint config", func(c *Config) { c.Lint.ConfigPath = "/nonexistent/phpsniff.yaml" }, true},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }, true},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = "phpsniff"
		}, true},
		{"otel without service name", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = "localhost:4317"
		}, true},
		{"otel sample ratio above one", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = "localhost:4317"
			c.Observability.OTelServiceName = "phpsniff"
			c.Observability.OTelSampleRatio = 1.5
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfig tests loading the full configuration from environment
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "defaults",
			env:     map[string]string{},
			wantErr: false,
		},
		{
			name: "invalid port",
			env: map[string]string{
				"PHPSNIFF_PORT": "not-a-port",
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			env: map[string]string{
				"PHPSNIFF_LOG_FORMAT": "yaml",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("LoadConfig() returned nil config without error")
			}
		})
	}
}
