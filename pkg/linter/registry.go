package linter

import (
	"errors"
	"sort"

	"github.com/platinummonkey/phpsniff/pkg/token"
)

// ErrUnknownRule is returned when configuration names a rule that is not registered
var ErrUnknownRule = errors.New("unknown rule")

// Rule interface that all lint rules must implement
type Rule interface {
	Name() string
	Category() Category
	Severity() Severity
	Description() string
	// Register lists the token kinds the rule wants to be called on
	Register() []token.Kind
	// Process inspects the token at pos and reports through sink
	Process(stream token.Stream, pos int, sink Sink)
}

// Configurable is implemented by rules that accept properties from config
type Configurable interface {
	Configure(props map[string]string) error
}

// RuleRegistry manages available lint rules
type RuleRegistry struct {
	rules map[string]Rule
}

// NewRuleRegistry creates a new rule registry
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule to the registry, replacing any rule with the same name
func (r *RuleRegistry) Register(rule Rule) {
	r.rules[rule.Name()] = rule
}

// GetRule retrieves a rule by name
func (r *RuleRegistry) GetRule(name string) (Rule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// GetAllRules returns all registered rules sorted by name
func (r *RuleRegistry) GetAllRules() []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sortRules(rules)
	return rules
}

// GetEnabledRules returns the rules enabled by config, sorted by name
func (r *RuleRegistry) GetEnabledRules(config *Config) []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if config.RuleEnabled(rule.Name()) {
			rules = append(rules, rule)
		}
	}
	sortRules(rules)
	return rules
}

// GetRulesByCategory returns rules in a specific category
func (r *RuleRegistry) GetRulesByCategory(category Category) []Rule {
	rules := make([]Rule, 0)
	for _, rule := range r.rules {
		if rule.Category() == category {
			rules = append(rules, rule)
		}
	}
	sortRules(rules)
	return rules
}

func sortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Name() < rules[j].Name()
	})
}
