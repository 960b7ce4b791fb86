package token

import (
	"fmt"
	"slices"
	"strings"
)

// Block is a labeled, contiguous run of one or more tokens.
type Block struct {
	Start         int
	End           int
	Tokens        []Token
	Class         *LabelClass
	CurrentState  State
	PreviousState State
	Reviewed      bool
	History       []HistoryRecord
}

// NewBlock builds a block over tokens. Start and End are taken from the
// first and last token. Returns nil when tokens is empty: a block never
// has zero width.
func NewBlock(tokens []Token, class *LabelClass, state State, history []HistoryRecord) *Block {
	if len(tokens) == 0 {
		return nil
	}
	if state == "" {
		state = StateCandidate
	}
	if history == nil {
		history = []HistoryRecord{}
	}
	return &Block{
		Start:        tokens[0].Start,
		End:          tokens[len(tokens)-1].End,
		Tokens:       slices.Clone(tokens),
		Class:        class,
		CurrentState: state,
		History:      CloneHistory(history),
	}
}

// Span returns the character range covered by the block.
func (b *Block) Span() Span {
	return Span{Start: b.Start, End: b.End}
}

func (*Block) item() {}

// Len returns the number of tokens in the block.
func (b *Block) Len() int {
	return len(b.Tokens)
}

// Text returns the token texts joined by single spaces.
func (b *Block) Text() string {
	parts := make([]string, len(b.Tokens))
	for i, t := range b.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// String returns a human-readable representation of the block.
func (b *Block) String() string {
	return fmt.Sprintf("%s%s(%s)", ClassName(b.Class), b.Span(), b.CurrentState)
}

// Clone returns a deep copy of the block. The class reference is shared:
// classes belong to the registry, not to the block.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := *b
	c.Tokens = slices.Clone(b.Tokens)
	c.History = CloneHistory(b.History)
	return &c
}

// Equal reports whether two blocks have identical content. Classes compare
// by value so a block equals its own clone even after the registry entry
// was replaced by an identical one.
func (b *Block) Equal(o *Block) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Start != o.Start || b.End != o.End {
		return false
	}
	if b.CurrentState != o.CurrentState || b.PreviousState != o.PreviousState || b.Reviewed != o.Reviewed {
		return false
	}
	if !classEqual(b.Class, o.Class) {
		return false
	}
	return slices.Equal(b.Tokens, o.Tokens) && slices.Equal(b.History, o.History)
}

func classEqual(a, b *LabelClass) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
