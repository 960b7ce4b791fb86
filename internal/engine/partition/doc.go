// Package partition implements the range engine: the live tiling of one
// sentence into plain tokens and labeled blocks.
//
// A Partition starts as one Item per token. Insert labels a selection by
// sweeping the items once, left to right, accumulating the tokens that
// overlap the selection and flushing them into a new Block at the first
// item past the selection. Blocks overlapping the selection are dissolved
// into their tokens, which the same sweep then classifies, so the items
// always tile the sentence.
//
// Overlapping blocks are handled according to the insertion mode:
//
//   - token.ModeAnnotate discards them; the newest selection wins.
//   - token.ModeReview demotes a copy to token.StateRejected, remembering
//     the old state in PreviousState, and keeps it in the rejected overlay.
//
// The rejected overlay is a second layer of blocks that does not take part
// in the tiling. Items returns the tiling only; Blocks returns the labeled
// blocks of both layers, which is what gets exported.
//
// A Partition is not safe for concurrent use. Every value it returns is a
// copy, so callers cannot bypass the tiling invariant.
package partition
