package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/token"
)

const (
	// ConstantNamingRuleName is the registry name of ConstantNamingRule
	ConstantNamingRuleName = "valid-constant-name"

	// CodeConstantNotMatchPattern is reported for define() calls
	CodeConstantNotMatchPattern = "ConstantNotUpperCase"
	// CodeClassConstantNotMatchPattern is reported for const declarations
	CodeClassConstantNotMatchPattern = "ClassConstantNotUpperCase"

	// DefaultConstantPattern accepts upper-case names with digits and underscores
	DefaultConstantPattern = `\b[A-Z][A-Z0-9_]*\b`

	// PropertyPattern is the config property holding the naming pattern
	PropertyPattern = "pattern"
)

// CandidateKind tells what a token denotes for constant naming
type CandidateKind int

const (
	// NotApplicable means the token does not name a constant
	NotApplicable CandidateKind = iota
	// ClassConstantDeclaration is a `const NAME` declaration
	ClassConstantDeclaration
	// FunctionStyleDefinition is a global define('NAME', ...) call
	FunctionStyleDefinition
)

func (k CandidateKind) String() string {
	switch k {
	case ClassConstantDeclaration:
		return "class-constant"
	case FunctionStyleDefinition:
		return "define"
	}
	return "not-applicable"
}

// Candidate is a constant site found by Classify. Token is the index the
// violation is anchored to: the name token for class constants, the define
// token for define calls.
type Candidate struct {
	Kind  CandidateKind
	Name  string
	Token int
}

// ConstantNamingRule checks that constant names match a naming pattern
type ConstantNamingRule struct {
	BaseRule
	cache   *PatternCache
	pattern string
	re      *regexp.Regexp
	message string
}

// NewConstantNamingRule creates a new constant naming rule using the default
// pattern. cache may be nil.
func NewConstantNamingRule(cache *PatternCache) *ConstantNamingRule {
	r := &ConstantNamingRule{
		BaseRule: BaseRule{
			RuleName:        ConstantNamingRuleName,
			RuleCategory:    linter.CategoryNaming,
			RuleSeverity:    linter.SeverityError,
			RuleDescription: "Constant names declared with const or define() must match the naming pattern",
		},
		cache: cache,
	}
	if err := r.SetPattern(DefaultConstantPattern); err != nil {
		panic(err)
	}
	return r
}

// Pattern returns the configured naming pattern
func (r *ConstantNamingRule) Pattern() string {
	return r.pattern
}

// SetPattern compiles and installs a naming pattern. The rule is left
// unchanged when the pattern is invalid.
func (r *ConstantNamingRule) SetPattern(pattern string) error {
	var (
		re  *regexp.Regexp
		err error
	)
	if r.cache != nil {
		re, err = r.cache.Compile(pattern)
	} else {
		re, err = CompilePattern(pattern)
	}
	if err != nil {
		return err
	}

	r.pattern = pattern
	r.re = re
	r.message = fmt.Sprintf(`Constant "%%s" does not match pattern "%s"`, strings.ReplaceAll(pattern, "%", "%%"))
	return nil
}

// Configure applies the pattern property. Absent properties keep the
// current pattern.
func (r *ConstantNamingRule) Configure(props map[string]string) error {
	for key, value := range props {
		if key != PropertyPattern {
			return fmt.Errorf("unknown property %q", key)
		}
		if err := r.SetPattern(value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	return nil
}

// Register returns the token kinds the rule inspects
func (r *ConstantNamingRule) Register() []token.Kind {
	return []token.Kind{token.KindString, token.KindConst}
}

// Process reports the constant declared at pos when its name does not match
func (r *ConstantNamingRule) Process(stream token.Stream, pos int, sink linter.Sink) {
	c := Classify(stream, pos)
	if c.Kind == NotApplicable || MatchesPattern(c.Name, r.re) {
		return
	}

	code := CodeClassConstantNotMatchPattern
	if c.Kind == FunctionStyleDefinition {
		code = CodeConstantNotMatchPattern
	}
	sink.AddError(r.message, c.Token, code, []string{c.Name})
}

// Classify decides whether the token at pos declares a constant and
// extracts its name
func Classify(stream token.Stream, pos int) Candidate {
	if pos < 0 || pos >= len(stream) {
		return Candidate{Kind: NotApplicable, Token: token.NotFound}
	}

	switch stream[pos].Kind {
	case token.KindConst:
		return classifyClassConstant(stream, pos)
	case token.KindString:
		return classifyDefine(stream, pos)
	}
	return Candidate{Kind: NotApplicable, Token: token.NotFound}
}

func classifyClassConstant(stream token.Stream, pos int) Candidate {
	name := stream.FindNext(token.EmptyKinds, pos+1, true)
	if name == token.NotFound {
		return Candidate{Kind: NotApplicable, Token: token.NotFound}
	}
	return Candidate{
		Kind:  ClassConstantDeclaration,
		Name:  stream[name].Text,
		Token: name,
	}
}

func classifyDefine(stream token.Stream, pos int) Candidate {
	none := Candidate{Kind: NotApplicable, Token: token.NotFound}

	if strings.ToLower(stream[pos].Text) != "define" {
		return none
	}

	// $obj->define(), Foo::define() and $obj?->define() are method calls
	prev := stream.FindPrevious(token.WhitespaceKinds, pos-1, true)
	if prev != token.NotFound && token.MemberAccessKinds.Has(stream[prev].Kind) {
		return none
	}

	// only existence is checked here, not that the token is "("
	open := stream.FindNext(token.EmptyKinds, pos+1, true)
	if open == token.NotFound {
		return none
	}

	lit := stream.FindNext(token.WhitespaceKinds, open+1, true)
	if lit == token.NotFound || stream[lit].Kind != token.KindConstantEncapsedString {
		return none
	}

	name := UnquoteLiteral(stream[lit].Text)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}

	return Candidate{
		Kind:  FunctionStyleDefinition,
		Name:  name,
		Token: pos,
	}
}

// UnquoteLiteral returns the value of a PHP string literal without
// interpolation. Text that is not quoted is returned unchanged.
func UnquoteLiteral(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	quote := lit[0]
	if (quote != '\'' && quote != '"') || lit[len(lit)-1] != quote {
		return lit
	}
	body := lit[1 : len(lit)-1]
	if strings.IndexByte(body, '\\') < 0 {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		next := body[i+1]
		switch {
		case next == '\\' || next == quote:
			b.WriteByte(next)
			i++
		case quote == '"' && next == '$':
			b.WriteByte(next)
			i++
		case quote == '"' && next == 'n':
			b.WriteByte('\n')
			i++
		case quote == '"' && next == 't':
			b.WriteByte('\t')
			i++
		case quote == '"' && next == 'r':
			b.WriteByte('\r')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
