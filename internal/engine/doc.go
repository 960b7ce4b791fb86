// Package engine provides the annotation engine of one sentence.
//
// The engine package serves as the main facade, combining the token
// partition, undo/redo operations and change tracking into a unified,
// thread-safe API suitable for building annotation tools.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - token: tokens, blocks, label classes and review history
//   - partition: the ordered tiling of a sentence into tokens and blocks
//   - history: command-based undo/redo system
//   - tracking: edit log and snapshots of the annotation set
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// to allow concurrent reads while serializing writes. The sub-packages are
// not synchronized and must be guarded by their owner.
//
// # Offsets
//
// Token ends are inclusive. A selection [start, end) is half-open, so the
// selection covering tokens i..j is [tok[i].Start, tok[j].End+1).
//
// # Basic Usage
//
// Load a sentence and label part of it:
//
//	e := engine.New(engine.WithAnnotator("alice"))
//	e.Load([]engine.Token{
//		token.New(0, 1, "Hi"),
//		token.New(3, 6, "John"),
//		token.New(8, 8, "."),
//	}, nil)
//
//	person := &engine.LabelClass{ID: 1, Name: "PERSON", Color: "red-11"}
//	b, _ := e.Label(3, 7, person, engine.ModeAnnotate)
//	// b covers "John"
//
//	e.Undo() // "John" is a plain token again
//
// # Review Mode
//
// In annotate mode a new label dissolves every block it overlaps. In review
// mode overlapped blocks are kept as Rejected copies instead, so reviewers
// can see what they replaced:
//
//	e.Label(0, 7, org, engine.ModeReview)
//	e.Rejected() // the PERSON block, now Rejected
//
// Accept and Reject mark blocks as reviewed and record the decision in the
// block history.
//
// # Undo Groups
//
// Multiple operations can be grouped into a single undo unit:
//
//	e.BeginUndoGroup("Label names")
//	e.Label(0, 2, person, engine.ModeAnnotate)
//	e.Label(3, 7, person, engine.ModeAnnotate)
//	e.EndUndoGroup()
//
//	e.Undo() // removes both labels
//
// # Change Tracking
//
// Every edit advances the revision and is logged. Snapshots freeze the
// annotation set for later comparison:
//
//	id := e.CreateSnapshot("before-review")
//	// ... edits ...
//	report, _ := e.DiffSinceSnapshot(id)
//	fmt.Print(report)
//
// Load takes a snapshot automatically; DiffSinceLoad compares against it.
package engine
