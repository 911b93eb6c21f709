package rules

import "github.com/platinummonkey/phpsniff/pkg/linter"

// Registry interface for registering rules
type Registry interface {
	Register(rule linter.Rule)
}

// Option configures the built-in rules
type Option func(*options)

type options struct {
	cache *PatternCache
}

// WithPatternCache shares compiled patterns between rule instances
func WithPatternCache(cache *PatternCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// DefaultRules returns fresh instances of all built-in lint rules
func DefaultRules(opts ...Option) []linter.Rule {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return []linter.Rule{
		NewConstantNamingRule(o.cache),
	}
}

// RegisterDefaultRules registers all built-in lint rules
func RegisterDefaultRules(registry Registry, opts ...Option) {
	for _, rule := range DefaultRules(opts...) {
		registry.Register(rule)
	}
}
