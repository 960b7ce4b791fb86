package partition

import (
	"cmp"
	"slices"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// ClassLookup resolves class names against an external registry.
// The partition only reads from it.
type ClassLookup interface {
	Lookup(name string) (*token.LabelClass, bool)
}

// Partition is the live state of one sentence.
type Partition struct {
	// tokens is the immutable tokenization the partition was loaded from.
	tokens []token.Token

	// items tiles tokens exactly, sorted by start.
	items []token.Item

	// rejected holds blocks demoted by review-mode insertions.
	rejected []*token.Block
}

// New creates a partition with one plain item per token.
func New(tokens []token.Token) *Partition {
	p := &Partition{}
	p.reset(tokens)
	return p
}

func (p *Partition) reset(tokens []token.Token) {
	p.tokens = slices.Clone(tokens)
	p.items = make([]token.Item, len(tokens))
	for i, t := range tokens {
		p.items[i] = t
	}
	p.rejected = nil
}

// Load replaces the partition with one item per token and replays the
// saved blocks on top of it.
//
// Saved blocks only need their range, class name, state, review flag and
// history; their tokens are re-derived from the tokenization. Class names
// are resolved through classes, falling back to a name-only placeholder.
// A nil classes resolves every name to a placeholder.
//
// Blocks that are not Rejected are replayed first, in the order given, as
// annotate-mode insertions. Rejected blocks are replayed afterwards: one
// that overlaps a labeled block goes back to the rejected overlay, any
// other one is inserted like the rest.
func (p *Partition) Load(tokens []token.Token, saved []*token.Block, classes ClassLookup) {
	p.reset(tokens)

	var deferred []*token.Block
	for _, s := range saved {
		if s == nil {
			continue
		}
		if s.CurrentState.IsRejected() {
			deferred = append(deferred, s)
			continue
		}
		p.InsertBlock(resolve(s, classes), token.ModeAnnotate)
	}

	for _, s := range deferred {
		b := resolve(s, classes)
		if len(p.overlappingTiled(b.Span())) == 0 {
			p.InsertBlock(b, token.ModeAnnotate)
			continue
		}
		covered := p.tokensWithin(b.Span())
		if len(covered) == 0 {
			continue
		}
		r := token.NewBlock(covered, b.Class, b.CurrentState, b.History)
		r.PreviousState = b.PreviousState
		r.Reviewed = b.Reviewed
		p.addRejected(r)
	}
}

// resolve returns a copy of s whose class comes from the registry.
func resolve(s *token.Block, classes ClassLookup) *token.Block {
	b := s.Clone()
	name := token.ClassName(s.Class)
	if classes != nil {
		if c, ok := classes.Lookup(name); ok {
			b.Class = c
			return b
		}
	}
	b.Class = token.Placeholder(name)
	return b
}

// Tokens returns the tokenization the partition was loaded from.
func (p *Partition) Tokens() []token.Token {
	return slices.Clone(p.tokens)
}

// Len returns the number of items in the tiling.
func (p *Partition) Len() int {
	return len(p.items)
}

// Items returns a copy of the tiling, sorted by start.
func (p *Partition) Items() []token.Item {
	out := make([]token.Item, len(p.items))
	for i, it := range p.items {
		out[i] = cloneItem(it)
	}
	return out
}

// Blocks returns copies of every labeled block, tiled and rejected, sorted
// by start. At equal starts tiled blocks come first.
func (p *Partition) Blocks() []*token.Block {
	var out []*token.Block
	for _, it := range p.items {
		if b, ok := it.(*token.Block); ok {
			out = append(out, b.Clone())
		}
	}
	for _, b := range p.rejected {
		out = append(out, b.Clone())
	}
	slices.SortStableFunc(out, func(a, b *token.Block) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

// Rejected returns copies of the blocks in the rejected overlay.
func (p *Partition) Rejected() []*token.Block {
	out := make([]*token.Block, len(p.rejected))
	for i, b := range p.rejected {
		out[i] = b.Clone()
	}
	return out
}

func cloneItem(it token.Item) token.Item {
	switch v := it.(type) {
	case token.Token:
		return v
	case *token.Block:
		return v.Clone()
	default:
		panic("partition: unknown item type")
	}
}

func byStart(a, b token.Item) int {
	return cmp.Compare(a.Span().Start, b.Span().Start)
}

func blockByStart(a, b *token.Block) int {
	return cmp.Compare(a.Start, b.Start)
}

// tokensWithin returns the loaded tokens lying entirely inside s.
func (p *Partition) tokensWithin(s token.Span) []token.Token {
	var out []token.Token
	for _, t := range p.tokens {
		if t.Start >= s.Start && t.End <= s.End {
			out = append(out, t)
		}
	}
	return out
}

func (p *Partition) addRejected(b *token.Block) {
	p.rejected = append(p.rejected, b)
	slices.SortStableFunc(p.rejected, blockByStart)
}
