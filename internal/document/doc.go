// Package document holds a multi-sentence annotation document.
//
// A document is opened from plain text or from a saved annotation file.
// Plain text is split into sentences by a separator and starts in annotate
// mode. Saved files keep their paragraph ids, classes and entities and
// start in review mode.
//
// Only one sentence is live at a time: its tokens and entities are loaded
// into an engine.Engine, and moving to another sentence commits the
// engine's export back into the sentence before loading the next one. The
// entities a sentence was opened with are kept so that it can be reset and
// so that change reports can be produced for the whole document.
//
// Token offsets are UTF-16 code units with inclusive ends, which matches
// the offsets stored in annotation files.
package document
