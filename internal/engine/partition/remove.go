package partition

import (
	"fmt"
	"slices"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// Remove deletes the tiled block starting at blockStart and returns a copy
// of it. With reintroduce set the block's tokens go back into the tiling at
// the block's position. Without it the tokens vanish, leaving a gap that
// the caller is expected to fill with Restore.
//
// Remove is a no-op when no tiled block starts at blockStart.
func (p *Partition) Remove(blockStart int, reintroduce bool) (*token.Block, bool) {
	var removed *token.Block
	out := make([]token.Item, 0, len(p.items))
	for _, it := range p.items {
		b, ok := it.(*token.Block)
		if !ok || b.Start != blockStart || removed != nil {
			out = append(out, it)
			continue
		}
		removed = b
		if reintroduce {
			for _, t := range b.Tokens {
				out = append(out, t)
			}
		}
	}
	if removed == nil {
		return nil, false
	}
	p.items = out
	return removed.Clone(), true
}

// Restore places b, with its own tokens, into the tiling. The block's
// range must not intersect any item: Restore fills the gap left by
// Remove(start, false).
func (p *Partition) Restore(b *token.Block) error {
	if err := checkBlock(b); err != nil {
		return err
	}
	sp := b.Span()
	for _, it := range p.items {
		if intersects(it.Span(), sp) {
			return fmt.Errorf("restore %s: %w", sp, ErrOverlap)
		}
	}
	p.items = append(p.items, b.Clone())
	slices.SortStableFunc(p.items, byStart)
	return nil
}

// Replace swaps the block starting at start for b and returns the previous
// block. b must cover exactly the same tokens; only its label, state,
// review flag and history may differ. Tiled blocks take precedence over
// rejected ones at the same start.
func (p *Partition) Replace(start int, b *token.Block) (*token.Block, error) {
	if err := checkBlock(b); err != nil {
		return nil, err
	}
	for i, it := range p.items {
		old, ok := it.(*token.Block)
		if !ok || old.Start != start {
			continue
		}
		if !sameExtent(old, b) {
			return nil, fmt.Errorf("replace block at %d: %w", start, ErrBlockChanged)
		}
		p.items[i] = b.Clone()
		return old.Clone(), nil
	}
	for i, old := range p.rejected {
		if old.Start != start {
			continue
		}
		if !sameExtent(old, b) {
			return nil, fmt.Errorf("replace rejected block at %d: %w", start, ErrBlockChanged)
		}
		p.rejected[i] = b.Clone()
		return old.Clone(), nil
	}
	return nil, fmt.Errorf("replace block at %d: %w", start, ErrBlockNotFound)
}

// DropRejected removes the first rejected block starting at blockStart.
func (p *Partition) DropRejected(blockStart int) (*token.Block, bool) {
	for i, b := range p.rejected {
		if b.Start == blockStart {
			p.rejected = slices.Delete(p.rejected, i, i+1)
			return b.Clone(), true
		}
	}
	return nil, false
}

// DropRejectedBlock removes the first rejected block equal to b.
func (p *Partition) DropRejectedBlock(b *token.Block) bool {
	for i, r := range p.rejected {
		if r.Equal(b) {
			p.rejected = slices.Delete(p.rejected, i, i+1)
			return true
		}
	}
	return false
}

// RestoreRejected puts a copy of b back into the rejected overlay.
func (p *Partition) RestoreRejected(b *token.Block) error {
	if err := checkBlock(b); err != nil {
		return err
	}
	p.addRejected(b.Clone())
	return nil
}

func checkBlock(b *token.Block) error {
	if b == nil || len(b.Tokens) == 0 {
		return ErrInvalidBlock
	}
	if b.Start != b.Tokens[0].Start || b.End != b.Tokens[len(b.Tokens)-1].End {
		return fmt.Errorf("block %s: bounds do not match tokens: %w", b.Span(), ErrInvalidBlock)
	}
	return nil
}

func sameExtent(a, b *token.Block) bool {
	return a.Start == b.Start && a.End == b.End && slices.Equal(a.Tokens, b.Tokens)
}

func intersects(a, b token.Span) bool {
	return a.Start <= b.End && b.Start <= a.End
}
