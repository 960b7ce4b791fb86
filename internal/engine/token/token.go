package token

import "fmt"

// Span is a pair of character offsets.
type Span struct {
	Start int
	End   int
}

// NewSpan creates a span with its endpoints ordered so Start <= End.
func NewSpan(start, end int) Span {
	if end < start {
		start, end = end, start
	}
	return Span{Start: start, End: end}
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	return fmt.Sprintf("[%d:%d]", s.Start, s.End)
}

// Contains returns true if offset lies within the span, both ends inclusive.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// Item is one entry of a partition: a Token or a *Block.
type Item interface {
	// Span returns the character range covered by the item.
	Span() Span

	item()
}

// Token is an atomic unit of text produced by a tokenizer.
// Tokens are immutable once produced.
type Token struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// New creates a token from a (start, end, text) triple.
func New(start, end int, text string) Token {
	return Token{Start: start, End: end, Text: text}
}

// Span returns the character range covered by the token.
func (t Token) Span() Span {
	return Span{Start: t.Start, End: t.End}
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%q%s", t.Text, t.Span())
}

func (Token) item() {}

// Triple is the tokenizer wire shape of a token.
type Triple struct {
	Start int
	End   int
	Text  string
}

// FromTriples converts tokenizer output into tokens, preserving order.
func FromTriples(triples []Triple) []Token {
	tokens := make([]Token, len(triples))
	for i, tr := range triples {
		tokens[i] = New(tr.Start, tr.End, tr.Text)
	}
	return tokens
}

// Equal reports whether two items have identical content.
// Tokens compare by value, blocks structurally via Block.Equal.
func Equal(a, b Item) bool {
	switch av := a.(type) {
	case Token:
		bv, ok := b.(Token)
		return ok && av == bv
	case *Block:
		bv, ok := b.(*Block)
		if !ok {
			return false
		}
		return av.Equal(bv)
	default:
		return false
	}
}

// SameStart reports whether two items begin at the same offset.
func SameStart(a, b Item) bool {
	return a.Span().Start == b.Span().Start
}
