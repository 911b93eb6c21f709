package token

import (
	"bytes"
	"context"
	"strings"
)

// keywords maps reserved words (lowercased) to their kind. Every other bare
// word is a KindString.
var keywords = map[string]Kind{
	"const": KindConst,
}

func init() {
	for _, kw := range []string{
		"abstract", "and", "array", "as", "break", "callable", "case", "catch",
		"class", "clone", "continue", "declare", "default", "do", "echo", "else",
		"elseif", "empty", "enddeclare", "endfor", "endforeach", "endif",
		"endswitch", "endwhile", "extends", "final", "finally", "fn", "for",
		"foreach", "function", "global", "goto", "if", "implements", "include",
		"include_once", "instanceof", "insteadof", "interface", "isset", "list",
		"match", "namespace", "new", "or", "print", "private", "protected",
		"public", "readonly", "require", "require_once", "return", "static",
		"switch", "throw", "trait", "try", "unset", "use", "var", "while", "xor",
		"yield",
	} {
		keywords[kw] = KindKeyword
	}
}

// operators are matched longest first
var operators = [][]string{
	{"<=>", "===", "!==", "**=", "...", "<<=", ">>=", "??=", "?->"},
	{"->", "::", "==", "!=", "<>", "<=", ">=", "&&", "||", "??", "++", "--",
		"+=", "-=", "*=", "/=", ".=", "%=", "&=", "|=", "^=", "<<", ">>", "=>", "**"},
}

var operatorKinds = map[string]Kind{
	"->":  KindObjectOperator,
	"?->": KindNullsafeObjectOperator,
	"::":  KindDoubleColon,
	"\\":  KindNsSeparator,
	"(":   KindOpenParen,
	")":   KindCloseParen,
	";":   KindSemicolon,
	",":   KindComma,
}

// Lexer is a tolerant PHP tokenizer. It never fails: bytes it cannot
// classify become KindUnknown tokens and unterminated constructs run to the
// end of the input.
type Lexer struct{}

// NewLexer creates a new Lexer
func NewLexer() *Lexer {
	return &Lexer{}
}

// Tokenize implements Tokenizer
func (l *Lexer) Tokenize(_ context.Context, src []byte) (Stream, error) {
	return Tokenize(src), nil
}

// Tokenize splits src into tokens
func Tokenize(src []byte) Stream {
	s := &scanner{src: src, line: 1, column: 1}
	s.run()
	return s.tokens
}

type scanner struct {
	src    []byte
	offset int
	line   int
	column int
	inPHP  bool
	tokens Stream
}

func (s *scanner) run() {
	for s.offset < len(s.src) {
		if !s.inPHP {
			s.scanInlineHTML()
			continue
		}
		s.scanPHP()
	}
}

func (s *scanner) rest() []byte {
	return s.src[s.offset:]
}

func (s *scanner) hasPrefix(p string) bool {
	return bytes.HasPrefix(s.rest(), []byte(p))
}

// emit records the next n bytes as a token of kind k and advances
func (s *scanner) emit(k Kind, n int) {
	if n <= 0 {
		return
	}
	if s.offset+n > len(s.src) {
		n = len(s.src) - s.offset
	}
	text := string(s.src[s.offset : s.offset+n])
	s.tokens = append(s.tokens, Token{
		Kind: k,
		Text: text,
		Pos:  Position{Line: s.line, Column: s.column, Offset: s.offset},
	})
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			s.line++
			s.column = 1
		} else {
			s.column++
		}
	}
	s.offset += n
}

func (s *scanner) scanInlineHTML() {
	rest := s.rest()
	idx := bytes.Index(rest, []byte("<?"))
	if idx < 0 {
		s.emit(KindInlineHTML, len(rest))
		return
	}
	s.emit(KindInlineHTML, idx)

	switch {
	case s.hasPrefixFold("<?php"):
		s.emit(KindOpenTag, 5)
	case s.hasPrefix("<?="):
		s.emit(KindOpenTag, 3)
	default:
		s.emit(KindOpenTag, 2)
	}
	s.inPHP = true
}

func (s *scanner) hasPrefixFold(p string) bool {
	rest := s.rest()
	return len(rest) >= len(p) && strings.EqualFold(string(rest[:len(p)]), p)
}

func (s *scanner) scanPHP() {
	rest := s.rest()
	c := rest[0]

	switch {
	case isSpace(c):
		n := 1
		for n < len(rest) && isSpace(rest[n]) {
			n++
		}
		s.emit(KindWhitespace, n)
	case s.hasPrefix("?>"):
		s.emit(KindCloseTag, 2)
		s.inPHP = false
	case s.hasPrefix("//"), c == '#' && !s.hasPrefix("#["):
		s.emit(KindComment, lineCommentLen(rest))
	case s.hasPrefix("/*"):
		kind := KindComment
		if len(rest) > 3 && rest[2] == '*' && isSpace(rest[3]) {
			kind = KindDocComment
		}
		end := bytes.Index(rest[2:], []byte("*/"))
		if end < 0 {
			s.emit(kind, len(rest))
			return
		}
		s.emit(kind, end+4)
	case c == '\'':
		n, ok := quotedLen(rest, '\'')
		if !ok {
			s.emit(KindUnknown, n)
			return
		}
		s.emit(KindConstantEncapsedString, n)
	case c == '"' || c == '`':
		n, ok := quotedLen(rest, c)
		switch {
		case !ok:
			s.emit(KindUnknown, n)
		case c == '`' || interpolates(rest[1:n-1]):
			s.emit(KindInterpolatedString, n)
		default:
			s.emit(KindConstantEncapsedString, n)
		}
	case s.hasPrefix("<<<"):
		s.emit(KindHeredoc, heredocLen(rest))
	case c == '$' && len(rest) > 1 && isIdentStart(rest[1]):
		s.emit(KindVariable, 1+identLen(rest[1:]))
	case isDigit(c) || (c == '.' && len(rest) > 1 && isDigit(rest[1])):
		s.emit(KindNumber, numberLen(rest))
	case isIdentStart(c):
		n := identLen(rest)
		s.emit(s.wordKind(string(rest[:n])), n)
	default:
		s.scanOperator()
	}
}

// wordKind classifies a bare word. Reserved words directly after a member
// access operator are plain names, as in $obj->class or Foo::const.
func (s *scanner) wordKind(word string) Kind {
	kind, ok := keywords[strings.ToLower(word)]
	if !ok {
		return KindString
	}
	prev := s.tokens.FindPrevious(EmptyKinds, len(s.tokens)-1, true)
	if MemberAccessKinds.Has(s.tokens.KindAt(prev)) {
		return KindString
	}
	return kind
}

func (s *scanner) scanOperator() {
	for _, group := range operators {
		for _, op := range group {
			if s.hasPrefix(op) {
				kind, ok := operatorKinds[op]
				if !ok {
					kind = KindOperator
				}
				s.emit(kind, len(op))
				return
			}
		}
	}

	c := s.rest()[0]
	if kind, ok := operatorKinds[string(c)]; ok {
		s.emit(kind, 1)
		return
	}
	if c < 0x20 || c == 0x7f {
		s.emit(KindUnknown, 1)
		return
	}
	s.emit(KindOperator, 1)
}

// lineCommentLen returns the length of a line comment, stopping before the
// newline or a closing tag
func lineCommentLen(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == '\n' || b[i] == '\r' {
			return i
		}
		if b[i] == '?' && i+1 < len(b) && b[i+1] == '>' {
			return i
		}
	}
	return len(b)
}

// quotedLen returns the length of the quoted literal at the start of b,
// including both quotes, and whether it was terminated
func quotedLen(b []byte, quote byte) (int, bool) {
	for i := 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return len(b), false
}

// interpolates reports whether a double quoted body contains a variable
func interpolates(body []byte) bool {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '$':
			if i+1 < len(body) && (isIdentStart(body[i+1]) || body[i+1] == '{') {
				return true
			}
		case '{':
			if i+1 < len(body) && body[i+1] == '$' {
				return true
			}
		}
	}
	return false
}

// heredocLen returns the length of a heredoc or nowdoc starting at b
func heredocLen(b []byte) int {
	i := 3
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	if i < len(b) && (b[i] == '\'' || b[i] == '"') {
		i++
	}
	n := identLen(b[i:])
	if n == 0 {
		return 3
	}
	label := b[i : i+n]

	nl := bytes.IndexByte(b[i:], '\n')
	if nl < 0 {
		return len(b)
	}
	pos := i + nl + 1
	for pos < len(b) {
		line := b[pos:]
		trimmed := bytes.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		if bytes.HasPrefix(trimmed, label) {
			after := len(label)
			if after >= len(trimmed) || !isIdentPart(trimmed[after]) {
				return pos + indent + after
			}
		}
		next := bytes.IndexByte(line, '\n')
		if next < 0 {
			return len(b)
		}
		pos += next + 1
	}
	return len(b)
}

func numberLen(b []byte) int {
	n := 0
	for n < len(b) {
		c := b[n]
		switch {
		case isIdentPart(c), c == '.':
			n++
		case (c == '+' || c == '-') && n > 0 && (b[n-1] == 'e' || b[n-1] == 'E') && !isHexPrefix(b):
			n++
		default:
			return n
		}
	}
	return n
}

func isHexPrefix(b []byte) bool {
	return len(b) > 1 && b[0] == '0' && (b[1] == 'x' || b[1] == 'X')
}

func identLen(b []byte) int {
	if len(b) == 0 || !isIdentStart(b[0]) {
		return 0
	}
	n := 1
	for n < len(b) && isIdentPart(b[n]) {
		n++
	}
	return n
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
