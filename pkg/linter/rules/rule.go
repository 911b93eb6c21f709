package rules

import (
	"github.com/platinummonkey/phpsniff/pkg/linter"
)

// BaseRule provides common functionality for rules
type BaseRule struct {
	RuleName        string
	RuleCategory    linter.Category
	RuleSeverity    linter.Severity
	RuleDescription string
}

func (r *BaseRule) Name() string              { return r.RuleName }
func (r *BaseRule) Category() linter.Category { return r.RuleCategory }
func (r *BaseRule) Severity() linter.Severity { return r.RuleSeverity }
func (r *BaseRule) Description() string       { return r.RuleDescription }
