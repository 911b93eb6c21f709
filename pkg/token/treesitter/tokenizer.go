// Package treesitter provides a token.Tokenizer backed by the tree-sitter
// PHP grammar.
//
// The syntax tree is flattened into its leaves. String literals, variables,
// comments and heredocs are kept whole, and the gaps between leaves are
// filled with whitespace tokens, so the result has the same shape as the
// stream produced by token.Lexer.
package treesitter

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/platinummonkey/phpsniff/pkg/token"
)

// atomic node types are emitted as a single token without descending
var atomic = map[string]bool{
	"string":                   true,
	"encapsed_string":          true,
	"shell_command_expression": true,
	"heredoc":                  true,
	"nowdoc":                   true,
	"comment":                  true,
	"variable_name":            true,
	"integer":                  true,
	"float":                    true,
	"php_tag":                  true,
	"text":                     true,
}

var punctuation = map[string]token.Kind{
	"->":  token.KindObjectOperator,
	"?->": token.KindNullsafeObjectOperator,
	"::":  token.KindDoubleColon,
	"\\":  token.KindNsSeparator,
	"(":   token.KindOpenParen,
	")":   token.KindCloseParen,
	";":   token.KindSemicolon,
	",":   token.KindComma,
	"?>":  token.KindCloseTag,
}

// Tokenizer parses PHP with tree-sitter
type Tokenizer struct {
	lang *sitter.Language
}

// NewTokenizer creates a tree-sitter backed tokenizer
func NewTokenizer() *Tokenizer {
	return &Tokenizer{lang: php.GetLanguage()}
}

// Tokenize implements token.Tokenizer
func (t *Tokenizer) Tokenize(ctx context.Context, src []byte) (token.Stream, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	b := &builder{src: src, line: 1, col: 1}
	b.walk(tree.RootNode())
	b.gap(len(src))
	return b.tokens, nil
}

type builder struct {
	src    []byte
	offset int
	tokens token.Stream

	// cursor for position tracking
	posOffset int
	line      int
	col       int
}

func (b *builder) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	count := int(n.ChildCount())
	if count == 0 || atomic[n.Type()] {
		b.leaf(n)
		return
	}
	for i := 0; i < count; i++ {
		b.walk(n.Child(i))
	}
}

func (b *builder) leaf(n *sitter.Node) {
	start, end := int(n.StartByte()), int(n.EndByte())
	if end <= start || start < b.offset {
		return
	}
	b.gap(start)
	b.tokens = append(b.tokens, token.Token{
		Kind: b.classify(n),
		Text: string(b.src[start:end]),
		Pos:  b.position(start),
	})
	b.offset = end
}

// gap emits the untokenized bytes before end as whitespace
func (b *builder) gap(end int) {
	if end <= b.offset {
		return
	}
	text := string(b.src[b.offset:end])
	kind := token.KindWhitespace
	if strings.TrimSpace(text) != "" {
		kind = token.KindUnknown
	}
	b.tokens = append(b.tokens, token.Token{Kind: kind, Text: text, Pos: b.position(b.offset)})
	b.offset = end
}

// position advances the cursor to offset. Offsets only grow.
func (b *builder) position(offset int) token.Position {
	for ; b.posOffset < offset; b.posOffset++ {
		if b.src[b.posOffset] == '\n' {
			b.line++
			b.col = 1
		} else {
			b.col++
		}
	}
	return token.Position{Line: b.line, Column: b.col, Offset: offset}
}

func (b *builder) classify(n *sitter.Node) token.Kind {
	typ := n.Type()
	text := n.Content(b.src)

	switch typ {
	case "string":
		return token.KindConstantEncapsedString
	case "encapsed_string":
		if hasInterpolation(n) {
			return token.KindInterpolatedString
		}
		return token.KindConstantEncapsedString
	case "shell_command_expression":
		return token.KindInterpolatedString
	case "heredoc", "nowdoc":
		return token.KindHeredoc
	case "comment":
		if strings.HasPrefix(text, "/**") {
			return token.KindDocComment
		}
		return token.KindComment
	case "variable_name":
		return token.KindVariable
	case "integer", "float":
		return token.KindNumber
	case "php_tag":
		return token.KindOpenTag
	case "text":
		return token.KindInlineHTML
	case "name":
		return token.KindString
	}

	if kind, ok := punctuation[typ]; ok {
		return kind
	}
	if !n.IsNamed() && isWord(typ) {
		if strings.EqualFold(typ, "const") {
			return token.KindConst
		}
		return token.KindKeyword
	}
	if n.IsNamed() {
		return token.KindString
	}
	return token.KindOperator
}

func hasInterpolation(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		switch n.NamedChild(i).Type() {
		case "string_value", "string_content", "escape_sequence":
			continue
		default:
			return true
		}
	}
	return false
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}
