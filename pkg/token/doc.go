// Package token provides the token stream that lint rules operate on.
//
// # Overview
//
// A Stream is the flat, ordered token sequence of one PHP source file.
// Tokens keep their raw text, so concatenating a stream reproduces the
// input byte for byte. Whitespace and comments are real tokens; rules skip
// them with the cursor helpers.
//
// # Cursor Navigation
//
//	next := stream.FindNext(token.EmptyKinds, pos+1, true)     // first code token after pos
//	prev := stream.FindPrevious(token.WhitespaceKinds, pos-1, true)
//	if next == token.NotFound {
//		return
//	}
//
// # Tokenizers
//
// Lexer is the built-in tokenizer. The treesitter subpackage provides an
// alternative backed by the tree-sitter PHP grammar. Both satisfy Tokenizer.
package token
