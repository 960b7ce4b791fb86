package partition

import (
	"slices"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// RemoveDuplicateBlocks sorts both layers by start and drops every item
// that is structurally equal to an earlier one. Items that merely share a
// start are kept. Returns the number of items removed.
func (p *Partition) RemoveDuplicateBlocks() int {
	return p.RemoveDuplicateBlocksFunc(token.Equal)
}

// RemoveDuplicateBlocksFunc is RemoveDuplicateBlocks with a custom notion
// of equality. eq is only consulted for items with the same start.
//
// Passing token.SameStart collapses co-located items regardless of their
// content, which can drop labels; it exists for comparing the two readings
// of duplicate removal and should not be used to clean real data.
func (p *Partition) RemoveDuplicateBlocksFunc(eq func(a, b token.Item) bool) int {
	slices.SortStableFunc(p.items, byStart)
	slices.SortStableFunc(p.rejected, blockByStart)

	var removed int
	p.items, removed = dedup(p.items, eq)

	overlay := make([]token.Item, len(p.rejected))
	for i, b := range p.rejected {
		overlay[i] = b
	}
	overlay, n := dedup(overlay, eq)
	removed += n
	p.rejected = p.rejected[:0]
	for _, it := range overlay {
		p.rejected = append(p.rejected, it.(*token.Block))
	}
	return removed
}

// dedup removes duplicates from items sorted by start. Equal items share a
// start, so only runs with the same start are compared.
func dedup(items []token.Item, eq func(a, b token.Item) bool) ([]token.Item, int) {
	out := make([]token.Item, 0, len(items))
	runStart := 0
	for _, it := range items {
		start := it.Span().Start
		if len(out) > 0 && out[runStart].Span().Start != start {
			runStart = len(out)
		}
		dup := false
		for _, kept := range out[runStart:] {
			if eq(kept, it) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return out, len(items) - len(out)
}
