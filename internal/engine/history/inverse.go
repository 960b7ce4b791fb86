package history

import (
	"fmt"
	"time"

	"github.com/theSKAILab/TART/internal/engine/partition"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// Kind identifies what an Inverse does.
type Kind int

const (
	// KindRemove removes the block starting at Start.
	KindRemove Kind = iota
	// KindCreate re-inserts Blocks[0].
	KindCreate
	// KindUpdate puts Blocks[0] back in place of the block at Start.
	KindUpdate
	// KindOverlapping removes the block at Start, drops Demoted from the
	// rejected overlay and re-inserts Blocks.
	KindOverlapping
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRemove:
		return "remove"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindOverlapping:
		return "overlapping"
	default:
		return "unknown"
	}
}

// Inverse describes how to reverse one edit.
type Inverse struct {
	Kind Kind

	// Start locates the block created by the edit (KindRemove,
	// KindOverlapping) or changed by it (KindUpdate). It is -1 when the edit
	// created nothing.
	Start int

	// Blocks holds full copies of the blocks to put back.
	Blocks []*token.Block

	// Demoted holds the Rejected copies a review-mode edit added.
	Demoted []*token.Block

	// Rejected is set when Blocks belong to the rejected overlay.
	Rejected bool

	// Timestamp records when the edit happened.
	Timestamp time.Time
}

// ForInsert builds the inverse of an insertion.
func ForInsert(res partition.Result) Inverse {
	start := -1
	if res.Created != nil {
		start = res.Created.Start
	}
	if len(res.Displaced) == 0 {
		return Inverse{Kind: KindRemove, Start: start, Timestamp: time.Now()}
	}
	return Inverse{
		Kind:      KindOverlapping,
		Start:     start,
		Blocks:    cloneBlocks(res.Displaced),
		Demoted:   cloneBlocks(res.Demoted),
		Timestamp: time.Now(),
	}
}

// ForRemove builds the inverse of removing b. rejected tells whether b was
// taken from the rejected overlay.
func ForRemove(b *token.Block, rejected bool) Inverse {
	return Inverse{
		Kind:      KindCreate,
		Start:     b.Start,
		Blocks:    []*token.Block{b.Clone()},
		Rejected:  rejected,
		Timestamp: time.Now(),
	}
}

// ForUpdate builds the inverse of changing old in place.
func ForUpdate(old *token.Block) Inverse {
	return Inverse{
		Kind:      KindUpdate,
		Start:     old.Start,
		Blocks:    []*token.Block{old.Clone()},
		Timestamp: time.Now(),
	}
}

// Apply reverses an edit on p.
func Apply(p *partition.Partition, inv Inverse) error {
	switch inv.Kind {
	case KindRemove:
		if inv.Start < 0 {
			return nil
		}
		if _, ok := p.Remove(inv.Start, true); !ok {
			return fmt.Errorf("undo create at %d: %w", inv.Start, partition.ErrBlockNotFound)
		}
		return nil

	case KindCreate:
		if len(inv.Blocks) == 0 {
			return nil
		}
		b := inv.Blocks[0]
		if inv.Rejected {
			return p.RestoreRejected(b)
		}
		if res := p.InsertBlock(b, token.ModeAnnotate); res.Created == nil {
			return fmt.Errorf("undo remove at %d: %w", b.Start, partition.ErrInvalidBlock)
		}
		return nil

	case KindUpdate:
		if len(inv.Blocks) == 0 {
			return nil
		}
		if _, err := p.Replace(inv.Start, inv.Blocks[0]); err != nil {
			return fmt.Errorf("undo update: %w", err)
		}
		return nil

	case KindOverlapping:
		if inv.Start >= 0 {
			if _, ok := p.Remove(inv.Start, true); !ok {
				return fmt.Errorf("undo overlapping insert at %d: %w", inv.Start, partition.ErrBlockNotFound)
			}
		}
		for _, d := range inv.Demoted {
			p.DropRejectedBlock(d)
		}
		for _, b := range inv.Blocks {
			p.InsertBlock(b, token.ModeAnnotate)
		}
		return nil

	default:
		return fmt.Errorf("unknown inverse kind %d", inv.Kind)
	}
}

func cloneBlocks(in []*token.Block) []*token.Block {
	if len(in) == 0 {
		return nil
	}
	out := make([]*token.Block, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}
