package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/phpsniff/pkg/observability"
)

// Config holds the lint service configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Lint engine configuration
	Lint LintConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// LintConfig holds settings for the engine behind the service
type LintConfig struct {
	// ConfigPath is a phpsniff.yaml file; empty uses the defaults
	ConfigPath string
	// Tokenizer overrides the tokenizer named in the lint config
	Tokenizer string
	// PatternCacheSize bounds the compiled pattern cache shared by requests
	PatternCacheSize int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  observability.LogLevel
	LogFormat observability.LogFormat

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// OTel converts the settings into an observability.OTelConfig
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Lint:          loadLintConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("PHPSNIFF_HOST", "0.0.0.0"),
		Port:            getEnv("PHPSNIFF_PORT", "8080"),
		ReadTimeout:     getEnvDuration("PHPSNIFF_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("PHPSNIFF_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("PHPSNIFF_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("PHPSNIFF_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("PHPSNIFF_MAX_BODY_BYTES", 4<<20),
	}
}

// loadLintConfig loads lint engine configuration from environment
func loadLintConfig() LintConfig {
	return LintConfig{
		ConfigPath:       getEnv("PHPSNIFF_LINT_CONFIG", ""),
		Tokenizer:        getEnv("PHPSNIFF_TOKENIZER", ""),
		PatternCacheSize: getEnvInt("PHPSNIFF_PATTERN_CACHE_SIZE", 128),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("PHPSNIFF_LOG_LEVEL", "info")),
		LogFormat:          observability.LogFormat(strings.ToLower(getEnv("PHPSNIFF_LOG_FORMAT", "json"))),
		MetricsEnabled:     getEnvBool("PHPSNIFF_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("PHPSNIFF_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("PHPSNIFF_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("PHPSNIFF_OTEL_SERVICE_NAME", "phpsniff"),
		OTelServiceVersion: getEnv("PHPSNIFF_OTEL_SERVICE_VERSION", "dev"),
		OTelInsecure:       getEnvBool("PHPSNIFF_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("PHPSNIFF_OTEL_SAMPLE_RATIO", 1.0),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	if c.Lint.PatternCacheSize <= 0 {
		return fmt.Errorf("pattern cache size must be positive")
	}
	if c.Lint.ConfigPath != "" {
		if _, err := os.Stat(c.Lint.ConfigPath); err != nil {
			return fmt.Errorf("lint config: %w", err)
		}
	}

	switch c.Observability.LogFormat {
	case observability.FormatJSON, observability.FormatText:
	default:
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Observability.LogFormat)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be within [0, 1]: %g", r)
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
