// Package tracking records the revision history of a sentence's
// annotations and keeps named snapshots of them.
//
// A snapshot freezes the exported annotation set at some point, such as
// when the sentence was loaded or before a review pass. Later the current
// set can be compared against it to produce a change report:
//
//	tr := tracking.NewTracker()
//	id := tr.CreateSnapshot("loaded", entries)
//
//	// ... edits, each followed by tr.Bump() ...
//
//	report, err := tr.DiffSinceSnapshot(id, current)
//
// All Tracker and SnapshotManager operations are thread-safe. Snapshots are
// immutable once created.
package tracking
