package token

import "context"

// NotFound is returned by the cursor functions when no token qualifies
const NotFound = -1

// Position represents the position of a token in the source code
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Token represents a lexical token
type Token struct {
	Kind Kind     `json:"kind"`
	Text string   `json:"text"`
	Pos  Position `json:"pos"`
}

// Stream is the ordered token sequence of a single file
type Stream []Token

// Tokenizer turns source text into a token stream
type Tokenizer interface {
	Tokenize(ctx context.Context, src []byte) (Stream, error)
}

// FindNext returns the index of the first token at or after from whose kind
// is in kinds. With exclude set it returns the first token whose kind is not
// in kinds instead.
func (s Stream) FindNext(kinds KindSet, from int, exclude bool) int {
	if from < 0 {
		return NotFound
	}
	for i := from; i < len(s); i++ {
		if kinds.Has(s[i].Kind) != exclude {
			return i
		}
	}
	return NotFound
}

// FindPrevious is the right-to-left mirror of FindNext, scanning from
// index from toward the start of the stream.
func (s Stream) FindPrevious(kinds KindSet, from int, exclude bool) int {
	if from >= len(s) {
		return NotFound
	}
	for i := from; i >= 0; i-- {
		if kinds.Has(s[i].Kind) != exclude {
			return i
		}
	}
	return NotFound
}

// KindAt returns the kind at index i, or KindUnknown when out of range
func (s Stream) KindAt(i int) Kind {
	if i < 0 || i >= len(s) {
		return KindUnknown
	}
	return s[i].Kind
}

// Text reassembles the source covered by the stream
func (s Stream) Text() string {
	n := 0
	for _, t := range s {
		n += len(t.Text)
	}
	buf := make([]byte, 0, n)
	for _, t := range s {
		buf = append(buf, t.Text...)
	}
	return string(buf)
}
