// Package history provides undo/redo for partition edits.
//
// The history system uses the Command pattern. Every edit is captured as a
// command that knows how to execute itself against a partition and how to
// reverse itself through an Inverse descriptor.
//
// # Inverses
//
// An Inverse is the smallest description of how to reverse one edit,
// carrying full block payloads rather than deltas:
//   - KindRemove: a block was created; remove the block at Start.
//   - KindCreate: a block was removed; re-insert the stored block.
//   - KindUpdate: a block's label changed; put the stored block back.
//   - KindOverlapping: a selection displaced blocks; remove the block at
//     Start, drop the Rejected copies and restore the displaced blocks.
//
// Inverses can be handed to an external undo stack or applied with Apply.
//
// # Commands
//
// Built-in commands:
//   - LabelCommand: insert a labeled selection
//   - UnlabelCommand: remove a block, restoring its tokens
//   - UpdateCommand: change a block's class, state or history in place
//   - CompoundCommand: group multiple commands as one undo unit
//
// # History Stack
//
//	h := NewHistory(1000) // Max 1000 undo entries
//
//	h.Execute(NewLabelCommand(3, 8, person), p)
//	h.Undo(p)
//	h.Redo(p)
//
// Commands executed between BeginGroup and EndGroup undo together.
//
// A History is not safe for concurrent use; it belongs to the single editor
// of one sentence.
package history
