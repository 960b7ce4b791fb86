package partition

import (
	"github.com/theSKAILab/TART/internal/engine/token"
)

// FindOverlapping returns copies of every block, tiled or rejected, whose
// range intersects [start, end]. The endpoints may be given in either
// order. Returns nil when nothing overlaps.
func (p *Partition) FindOverlapping(start, end int) []*token.Block {
	q := token.NewSpan(start, end)
	var out []*token.Block
	for _, b := range p.overlappingTiled(q) {
		out = append(out, b.Clone())
	}
	for _, b := range p.rejected {
		if intersects(b.Span(), q) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func (p *Partition) overlappingTiled(q token.Span) []*token.Block {
	var out []*token.Block
	for _, it := range p.items {
		if b, ok := it.(*token.Block); ok && intersects(b.Span(), q) {
			out = append(out, b)
		}
	}
	return out
}

// BlockByStart returns a copy of the block starting at start. Tiled blocks
// are preferred over rejected ones.
func (p *Partition) BlockByStart(start int) (*token.Block, bool) {
	for _, it := range p.items {
		if b, ok := it.(*token.Block); ok && b.Start == start {
			return b.Clone(), true
		}
	}
	for _, b := range p.rejected {
		if b.Start == start {
			return b.Clone(), true
		}
	}
	return nil, false
}

// ItemAt returns a copy of the tiled item covering offset.
func (p *Partition) ItemAt(offset int) (token.Item, bool) {
	for _, it := range p.items {
		if it.Span().Contains(offset) {
			return cloneItem(it), true
		}
	}
	return nil, false
}
