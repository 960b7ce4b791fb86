package tracking

import (
	"sync"
	"time"

	"github.com/theSKAILab/TART/internal/annotation"
)

// DefaultMaxChanges is the default maximum number of changes to track.
const DefaultMaxChanges = 1000

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithMaxChanges sets the maximum number of changes to track.
// It must only be used during Tracker creation via NewTracker.
func WithMaxChanges(maxChanges int) TrackerOption {
	return func(t *Tracker) {
		if maxChanges > 0 {
			t.maxChanges = maxChanges
			t.changes = make([]Change, maxChanges)
		}
	}
}

// Change is one recorded edit.
type Change struct {
	// Revision is the revision the edit produced.
	Revision int

	// Description is the description of the command that made the edit.
	Description string

	// Timestamp is when the edit was recorded.
	Timestamp time.Time
}

// Tracker keeps a bounded log of edits and named snapshots of the
// annotation set. All operations are thread-safe.
type Tracker struct {
	mu sync.RWMutex

	revision int

	// Recent changes in a ring buffer
	changes    []Change
	head       int // Index of oldest entry
	count      int // Number of entries
	maxChanges int

	snapshots *SnapshotManager
}

// NewTracker creates a new change tracker with default settings.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		maxChanges: DefaultMaxChanges,
		changes:    make([]Change, DefaultMaxChanges),
		snapshots:  NewSnapshotManager(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Record logs an edit and advances the revision. It returns the new
// revision.
func (t *Tracker) Record(description string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.revision++
	idx := (t.head + t.count) % t.maxChanges
	if t.count < t.maxChanges {
		t.count++
	} else {
		// Ring buffer is full, advance head
		t.head = (t.head + 1) % t.maxChanges
	}

	t.changes[idx] = Change{
		Revision:    t.revision,
		Description: description,
		Timestamp:   time.Now(),
	}
	return t.revision
}

// Revision returns the current revision. It starts at zero.
func (t *Tracker) Revision() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision
}

// ChangesSince returns the recorded changes made after rev, oldest first.
func (t *Tracker) ChangesSince(rev int) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []Change
	for i := 0; i < t.count; i++ {
		c := t.changes[(t.head+i)%t.maxChanges]
		if c.Revision > rev {
			result = append(result, c)
		}
	}
	return result
}

// LatestChanges returns the most recent n changes, oldest first.
func (t *Tracker) LatestChanges(n int) []Change {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n = min(max(n, 0), t.count)
	result := make([]Change, 0, n)
	for i := t.count - n; i < t.count; i++ {
		result = append(result, t.changes[(t.head+i)%t.maxChanges])
	}
	return result
}

// ChangeCount returns the number of tracked changes.
func (t *Tracker) ChangeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// CreateSnapshot freezes entries under name at the current revision.
func (t *Tracker) CreateSnapshot(name string, entries []annotation.Entry) SnapshotID {
	return t.snapshots.Create(name, entries, t.Revision())
}

// GetSnapshot retrieves a snapshot by ID.
func (t *Tracker) GetSnapshot(id SnapshotID) (*Snapshot, error) {
	snap, ok := t.snapshots.Get(id)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// GetSnapshotByName retrieves a snapshot by name.
func (t *Tracker) GetSnapshotByName(name string) (*Snapshot, error) {
	snap, ok := t.snapshots.GetByName(name)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// DeleteSnapshot removes a snapshot.
func (t *Tracker) DeleteSnapshot(id SnapshotID) {
	t.snapshots.Delete(id)
}

// ListSnapshots returns all snapshots, oldest first.
func (t *Tracker) ListSnapshots() []*Snapshot {
	return t.snapshots.List()
}

// DiffSinceSnapshot compares the snapshot with the current entries.
func (t *Tracker) DiffSinceSnapshot(id SnapshotID, current []annotation.Entry) (annotation.Report, error) {
	snap, err := t.GetSnapshot(id)
	if err != nil {
		return annotation.Report{}, err
	}
	return annotation.Compare(snap.entries, current), nil
}

// Clear resets the revision and removes all changes and snapshots.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.revision = 0
	t.head = 0
	t.count = 0
	t.mu.Unlock()

	t.snapshots.Clear()
}
