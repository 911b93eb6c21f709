package linter

import (
	"fmt"

	"github.com/platinummonkey/phpsniff/pkg/token"
	"github.com/platinummonkey/phpsniff/pkg/token/treesitter"
)

// NewTokenizer returns the tokenizer registered under name. An empty name
// selects the native lexer.
func NewTokenizer(name string) (token.Tokenizer, error) {
	switch name {
	case "", TokenizerNative:
		return token.NewLexer(), nil
	case TokenizerTreeSitter:
		return treesitter.NewTokenizer(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTokenizer, name)
}
