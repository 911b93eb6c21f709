package token

// Kind represents the lexical class of a token
type Kind int

const (
	KindUnknown Kind = iota
	KindWhitespace
	KindComment
	KindDocComment
	KindOpenTag
	KindCloseTag
	KindInlineHTML
	KindString // bare identifier
	KindConst
	KindKeyword
	KindVariable
	KindNumber
	KindConstantEncapsedString // string literal without interpolation
	KindInterpolatedString
	KindHeredoc
	KindObjectOperator
	KindNullsafeObjectOperator
	KindDoubleColon
	KindNsSeparator
	KindOpenParen
	KindCloseParen
	KindSemicolon
	KindComma
	KindOperator
)

var kindNames = map[Kind]string{
	KindUnknown:                "UNKNOWN",
	KindWhitespace:             "WHITESPACE",
	KindComment:                "COMMENT",
	KindDocComment:             "DOC_COMMENT",
	KindOpenTag:                "OPEN_TAG",
	KindCloseTag:               "CLOSE_TAG",
	KindInlineHTML:             "INLINE_HTML",
	KindString:                 "STRING",
	KindConst:                  "CONST",
	KindKeyword:                "KEYWORD",
	KindVariable:               "VARIABLE",
	KindNumber:                 "NUMBER",
	KindConstantEncapsedString: "CONSTANT_ENCAPSED_STRING",
	KindInterpolatedString:     "INTERPOLATED_STRING",
	KindHeredoc:                "HEREDOC",
	KindObjectOperator:         "OBJECT_OPERATOR",
	KindNullsafeObjectOperator: "NULLSAFE_OBJECT_OPERATOR",
	KindDoubleColon:            "DOUBLE_COLON",
	KindNsSeparator:            "NS_SEPARATOR",
	KindOpenParen:              "OPEN_PARENTHESIS",
	KindCloseParen:             "CLOSE_PARENTHESIS",
	KindSemicolon:              "SEMICOLON",
	KindComma:                  "COMMA",
	KindOperator:               "OPERATOR",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// KindSet is an unordered set of token kinds
type KindSet map[Kind]struct{}

// NewKindSet creates a set holding the given kinds
func NewKindSet(kinds ...Kind) KindSet {
	set := make(KindSet, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether k is in the set
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

var (
	// EmptyKinds are the tokens that carry no code: whitespace and comments.
	EmptyKinds = NewKindSet(KindWhitespace, KindComment, KindDocComment)

	// WhitespaceKinds matches whitespace only. Comments are not skipped.
	WhitespaceKinds = NewKindSet(KindWhitespace)

	// MemberAccessKinds are the operators that turn a following name into a
	// method or static member.
	MemberAccessKinds = NewKindSet(KindObjectOperator, KindDoubleColon, KindNullsafeObjectOperator)
)
