package linter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const (
	// TokenizerNative selects the built-in PHP lexer
	TokenizerNative = "native"
	// TokenizerTreeSitter selects the tree-sitter PHP grammar
	TokenizerTreeSitter = "tree-sitter"
)

var (
	// ErrUnknownTokenizer is returned for a tokenizer name that is not supported
	ErrUnknownTokenizer = errors.New("unknown tokenizer")
	// ErrInvalidConfig is returned when a config fails validation
	ErrInvalidConfig = errors.New("invalid lint config")
)

// ConfigFileNames are searched, in order, by LoadConfigFromDir
var ConfigFileNames = []string{"phpsniff.yaml", "phpsniff.yml", ".phpsniff.yaml", ".phpsniff.yml"}

// Config represents the linting configuration
type Config struct {
	Version string    `yaml:"version"`
	Lint    LintRules `yaml:"lint"`
}

// LintRules contains rule configuration
type LintRules struct {
	Tokenizer  string                `yaml:"tokenizer,omitempty"`
	Extensions []string              `yaml:"extensions,omitempty"`
	Ignore     []string              `yaml:"ignore,omitempty"`
	Rules      map[string]RuleConfig `yaml:"rules,omitempty"`
	Files      map[string]FileRules  `yaml:"files,omitempty"`
	Categories map[string]string     `yaml:"categories,omitempty"` // category -> severity
}

// RuleConfig configures a single rule
type RuleConfig struct {
	Enabled    *bool             `yaml:"enabled,omitempty"`
	Severity   string            `yaml:"severity,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// FileRules contains per-file rule overrides, keyed by a doublestar glob
type FileRules struct {
	Rules map[string]bool `yaml:"rules"`
}

// DefaultConfig returns default linting configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "v1",
		Lint: LintRules{
			Tokenizer:  TokenizerNative,
			Extensions: []string{".php"},
			Ignore:     []string{"vendor/**"},
			Rules:      make(map[string]RuleConfig),
			Files:      make(map[string]FileRules),
			Categories: make(map[string]string),
		},
	}
}

// LoadConfig loads configuration from a file. Fields absent from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// LoadConfigFromDir searches for config file in directory
func LoadConfigFromDir(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}

	// Return default if no config found
	return DefaultConfig(), nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the config for values the engine cannot act on
func (c *Config) Validate() error {
	if c.Version != "" && c.Version != "v1" {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidConfig, c.Version)
	}

	switch c.Lint.Tokenizer {
	case "", TokenizerNative, TokenizerTreeSitter:
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownTokenizer, c.Lint.Tokenizer)
	}

	for _, pattern := range c.Lint.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad ignore pattern %q", ErrInvalidConfig, pattern)
		}
	}
	for pattern := range c.Lint.Files {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad files pattern %q", ErrInvalidConfig, pattern)
		}
	}

	for name, rc := range c.Lint.Rules {
		if rc.Severity == "" {
			continue
		}
		if _, err := ParseSeverity(rc.Severity); err != nil {
			return fmt.Errorf("%w: rule %s: %w", ErrInvalidConfig, name, err)
		}
	}
	for category, severity := range c.Lint.Categories {
		if _, err := ParseSeverity(severity); err != nil {
			return fmt.Errorf("%w: category %s: %w", ErrInvalidConfig, category, err)
		}
	}

	return nil
}

// RuleEnabled reports whether a rule is enabled. Rules are on unless
// explicitly disabled.
func (c *Config) RuleEnabled(name string) bool {
	rc, ok := c.Lint.Rules[name]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// RuleEnabledForFile applies per-file overrides on top of RuleEnabled. path
// is relative to the lint root. When several globs match and set the rule,
// the longest glob wins; globs of equal length are ordered lexically and
// the last one wins.
func (c *Config) RuleEnabledForFile(name, path string) bool {
	enabled := c.RuleEnabled(name)
	slashed := filepath.ToSlash(path)

	best := ""
	found := false
	for pattern, fr := range c.Lint.Files {
		on, ok := fr.Rules[name]
		if !ok {
			continue
		}
		if match, _ := doublestar.Match(pattern, slashed); !match {
			continue
		}
		if found && !moreSpecific(pattern, best) {
			continue
		}
		best, found = pattern, true
		enabled = on
	}
	return enabled
}

// moreSpecific orders override globs: longer first, then lexically
func moreSpecific(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

// SeverityFor resolves the effective severity of a rule: the rule's own
// override, then its category override, then the rule default.
func (c *Config) SeverityFor(rule Rule) Severity {
	if rc, ok := c.Lint.Rules[rule.Name()]; ok && rc.Severity != "" {
		if s, err := ParseSeverity(rc.Severity); err == nil {
			return s
		}
	}
	if raw, ok := c.Lint.Categories[string(rule.Category())]; ok {
		if s, err := ParseSeverity(raw); err == nil {
			return s
		}
	}
	return rule.Severity()
}

// RuleProperties returns the configured properties of a rule
func (c *Config) RuleProperties(name string) map[string]string {
	return c.Lint.Rules[name].Properties
}

// SetRuleProperty sets one property on a rule, creating the rule entry
func (c *Config) SetRuleProperty(rule, key, value string) {
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]RuleConfig)
	}
	rc := c.Lint.Rules[rule]
	if rc.Properties == nil {
		rc.Properties = make(map[string]string)
	}
	rc.Properties[key] = value
	c.Lint.Rules[rule] = rc
}

// SetRuleEnabled turns a rule on or off
func (c *Config) SetRuleEnabled(rule string, enabled bool) {
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]RuleConfig)
	}
	rc := c.Lint.Rules[rule]
	rc.Enabled = &enabled
	c.Lint.Rules[rule] = rc
}

// Clone returns a deep copy of the config
func (c *Config) Clone() *Config {
	out := &Config{
		Version: c.Version,
		Lint: LintRules{
			Tokenizer:  c.Lint.Tokenizer,
			Extensions: append([]string(nil), c.Lint.Extensions...),
			Ignore:     append([]string(nil), c.Lint.Ignore...),
			Rules:      make(map[string]RuleConfig, len(c.Lint.Rules)),
			Files:      make(map[string]FileRules, len(c.Lint.Files)),
			Categories: make(map[string]string, len(c.Lint.Categories)),
		},
	}
	for name, rc := range c.Lint.Rules {
		cp := RuleConfig{Severity: rc.Severity}
		if rc.Enabled != nil {
			enabled := *rc.Enabled
			cp.Enabled = &enabled
		}
		if rc.Properties != nil {
			cp.Properties = make(map[string]string, len(rc.Properties))
			for k, v := range rc.Properties {
				cp.Properties[k] = v
			}
		}
		out.Lint.Rules[name] = cp
	}
	for pattern, fr := range c.Lint.Files {
		rules := make(map[string]bool, len(fr.Rules))
		for k, v := range fr.Rules {
			rules[k] = v
		}
		out.Lint.Files[pattern] = FileRules{Rules: rules}
	}
	for k, v := range c.Lint.Categories {
		out.Lint.Categories[k] = v
	}
	return out
}

// HasExtension reports whether path carries one of the configured extensions
func (c *Config) HasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range c.Lint.Extensions {
		if strings.ToLower(want) == ext {
			return true
		}
	}
	return false
}

// IsIgnored reports whether a slash-separated path relative to the lint
// root matches one of the ignore globs
func (c *Config) IsIgnored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Lint.Ignore {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
	}
	return false
}
