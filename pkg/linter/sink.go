package linter

import (
	"fmt"

	"github.com/platinummonkey/phpsniff/pkg/token"
)

// Sink receives diagnostics from rules. message is a printf template that
// is formatted with args when args is non-empty; pos is the index of the
// token the diagnostic is anchored to.
type Sink interface {
	AddError(message string, pos int, code string, args []string)
}

// fileSink collects the violations of one file for the rule currently
// being dispatched
type fileSink struct {
	stream     token.Stream
	rule       boundRule
	violations []Violation
}

func (s *fileSink) AddError(message string, pos int, code string, args []string) {
	if len(args) > 0 {
		values := make([]interface{}, len(args))
		for i, a := range args {
			values[i] = a
		}
		message = fmt.Sprintf(message, values...)
	}

	v := Violation{
		Rule:     s.rule.rule.Name(),
		Code:     code,
		Severity: s.rule.severity,
		Category: s.rule.rule.Category(),
		Message:  message,
		Args:     args,
		Token:    pos,
	}
	if pos >= 0 && pos < len(s.stream) {
		v.Position = s.stream[pos].Pos
	}
	s.violations = append(s.violations, v)
}
