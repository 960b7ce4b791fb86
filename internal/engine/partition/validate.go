package partition

import (
	"fmt"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// Validate checks that the items tile the loaded tokens: sorted by start,
// non-overlapping, every block non-empty with bounds matching its tokens,
// and the flattened token sequence equal to the tokenization.
func (p *Partition) Validate() error {
	var flat []token.Token
	prevEnd := 0
	for i, it := range p.items {
		sp := it.Span()
		if i > 0 && sp.Start <= prevEnd {
			return fmt.Errorf("item %d %s overlaps previous item ending at %d: %w", i, sp, prevEnd, ErrInvariant)
		}
		prevEnd = sp.End

		switch v := it.(type) {
		case token.Token:
			flat = append(flat, v)
		case *token.Block:
			if err := checkBlock(v); err != nil {
				return fmt.Errorf("item %d: %v: %w", i, err, ErrInvariant)
			}
			flat = append(flat, v.Tokens...)
		default:
			return fmt.Errorf("item %d: unknown item type %T: %w", i, it, ErrInvariant)
		}
	}

	if len(flat) != len(p.tokens) {
		return fmt.Errorf("tiling holds %d tokens, sentence has %d: %w", len(flat), len(p.tokens), ErrInvariant)
	}
	for i := range flat {
		if flat[i] != p.tokens[i] {
			return fmt.Errorf("token %d is %s, want %s: %w", i, flat[i], p.tokens[i], ErrInvariant)
		}
	}

	for _, b := range p.rejected {
		if err := checkBlock(b); err != nil {
			return fmt.Errorf("rejected block: %v: %w", err, ErrInvariant)
		}
	}
	return nil
}
