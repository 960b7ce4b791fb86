// Package annotation converts labeled blocks to and from their persisted
// forms.
//
// Three representations are involved:
//
//   - Entry: the in-memory export record of one block, produced by Export
//     in start order.
//   - Entity: the Rich Entity Format tuple stored in annotation files,
//     [className, start, end, history]. Each history element is itself a
//     tuple [className, state, timestamp, displayName]; the last one gives
//     the block's current state.
//   - File: the versioned document schema holding classes and one row per
//     sentence.
//
// The package also fingerprints the source text with BLAKE3 so that a
// saved file can be matched against the text it annotates, and renders
// change reports between two annotation sets.
package annotation
