package document

import (
	"fmt"
	"slices"

	"github.com/theSKAILab/TART/internal/annotation"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// Sentence is one row of a document.
type Sentence struct {
	// ID is the paragraph id stored in annotation files.
	ID int

	// Text is the sentence text.
	Text string

	// Tokens is the tokenization of Text.
	Tokens []token.Token

	// Entries is the committed annotation set.
	Entries []annotation.Entry

	// Original is the annotation set the sentence was opened or last saved
	// with.
	Original []annotation.Entry
}

func newSentence(id int, text string, p Precision, entries []annotation.Entry) *Sentence {
	return &Sentence{
		ID:       id,
		Text:     text,
		Tokens:   Tokenize(text, p),
		Entries:  slices.Clone(entries),
		Original: slices.Clone(entries),
	}
}

// Selection returns the offsets selecting tokens i..j, ready to be passed
// to engine.Engine.Label.
func (s *Sentence) Selection(i, j int) (start, end int, err error) {
	if i < 0 || j < i || j >= len(s.Tokens) {
		return 0, 0, fmt.Errorf("tokens %d..%d of %d: %w", i, j, len(s.Tokens), ErrTokenOutOfRange)
	}
	return s.Tokens[i].Start, s.Tokens[j].End + 1, nil
}

// Check validates the committed entries against the tokens.
func (s *Sentence) Check() error {
	return CheckEntries(s.Tokens, s.Entries)
}

// Changes compares the original annotation set with the committed one.
func (s *Sentence) Changes() annotation.Report {
	return annotation.Compare(s.Original, s.Entries)
}

func (s *Sentence) clone() Sentence {
	out := *s
	out.Tokens = slices.Clone(s.Tokens)
	out.Entries = slices.Clone(s.Entries)
	out.Original = slices.Clone(s.Original)
	return out
}

// entriesOf converts saved entities into export records.
func entriesOf(entities []annotation.Entity) []annotation.Entry {
	out := make([]annotation.Entry, 0, len(entities))
	for _, e := range entities {
		out = append(out, annotation.FromBlock(e.Saved()))
	}
	return out
}
