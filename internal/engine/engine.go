package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/theSKAILab/TART/internal/annotation"
	"github.com/theSKAILab/TART/internal/engine/history"
	"github.com/theSKAILab/TART/internal/engine/partition"
	"github.com/theSKAILab/TART/internal/engine/token"
	"github.com/theSKAILab/TART/internal/engine/tracking"
)

// Re-export commonly used types for convenience.
type (
	// Token is an atomic unit of the sentence.
	Token = token.Token

	// Block is a labeled run of tokens.
	Block = token.Block

	// Item is a Token or a *Block.
	Item = token.Item

	// LabelClass is an annotation class.
	LabelClass = token.LabelClass

	// State is the review state of a block.
	State = token.State

	// Mode selects the overlap policy of a label operation.
	Mode = token.Mode

	// HistoryRecord is one entry of a block's review history.
	HistoryRecord = token.HistoryRecord

	// Entry is the export record of a block.
	Entry = annotation.Entry

	// Command is an undoable edit command.
	Command = history.Command

	// SnapshotID uniquely identifies a named snapshot.
	SnapshotID = tracking.SnapshotID

	// Change is a tracked edit.
	Change = tracking.Change

	// OperationInfo describes an undo or redo entry.
	OperationInfo = history.OperationInfo
)

// Re-export constants.
const (
	ModeAnnotate = token.ModeAnnotate
	ModeReview   = token.ModeReview

	StateCandidate = token.StateCandidate
	StateAccepted  = token.StateAccepted
	StateRejected  = token.StateRejected
)

// LoadedSnapshot names the snapshot taken by Load.
const LoadedSnapshot = "loaded"

// Engine is the annotation engine of one sentence. It combines the
// partition, undo/redo history and change tracking into a unified,
// thread-safe API.
type Engine struct {
	mu sync.RWMutex

	// Core components
	part    *partition.Partition
	history *history.History
	tracker *tracking.Tracker
	loaded  tracking.SnapshotID
	origin  history.Checkpoint

	// Configuration
	classes        partition.ClassLookup
	clock          func() time.Time
	annotator      string
	maxUndoEntries int
	maxChanges     int
	readOnly       bool
}

// New creates an engine over an empty sentence. Call Load to give it
// tokens.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:          time.Now,
		maxUndoEntries: DefaultMaxUndoEntries,
		maxChanges:     DefaultMaxChanges,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.part = partition.New(nil)
	e.history = history.NewHistory(e.maxUndoEntries)
	e.tracker = tracking.NewTracker(tracking.WithMaxChanges(e.maxChanges))
	e.loaded = e.tracker.CreateSnapshot(LoadedSnapshot, nil)

	return e
}

// Load replaces the sentence with tokens and replays the saved blocks on
// top of it. Undo history and tracked changes are reset, and the loaded
// annotation set is kept as the LoadedSnapshot.
func (e *Engine) Load(tokens []Token, saved []*Block) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.part.Load(tokens, saved, e.classes)
	e.history.Clear()
	e.origin = e.history.CreateCheckpoint()
	e.tracker.Clear()
	e.loaded = e.tracker.CreateSnapshot(LoadedSnapshot, e.exportLocked())
}

// ============================================================================
// Read Operations
// ============================================================================

// Tokens returns the tokens of the sentence.
func (e *Engine) Tokens() []Token {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Tokens()
}

// Len returns the number of items tiling the sentence.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Len()
}

// Items returns a copy of the tiling of the sentence.
func (e *Engine) Items() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Items()
}

// Blocks returns copies of all labeled blocks, rejected ones included,
// sorted by start.
func (e *Engine) Blocks() []*Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Blocks()
}

// Rejected returns copies of the blocks demoted by review-mode labels.
func (e *Engine) Rejected() []*Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Rejected()
}

// FindOverlapping returns copies of the blocks intersecting [start, end].
// Returns nil when none does.
func (e *Engine) FindOverlapping(start, end int) []*Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.FindOverlapping(start, end)
}

// BlockByStart returns a copy of the block starting at start.
func (e *Engine) BlockByStart(start int) (*Block, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.BlockByStart(start)
}

// ItemAt returns the token or block covering offset.
func (e *Engine) ItemAt(offset int) (Item, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.ItemAt(offset)
}

// Export returns the export records of all blocks, sorted by start.
func (e *Engine) Export() []Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.exportLocked()
}

func (e *Engine) exportLocked() []Entry {
	return annotation.Export(e.part.Blocks())
}

// Validate checks that the sentence is still exactly tiled.
func (e *Engine) Validate() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.part.Validate()
}

// ============================================================================
// Edit Operations
// ============================================================================

// Label labels the selection [start, end) with class and returns the new
// block. Overlapping blocks are resolved according to mode. A selection
// holding no token returns a nil block and no error.
func (e *Engine) Label(start, end int, class *LabelClass, mode Mode) (*Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.label(start, end, class, mode)
}

// label runs a LabelCommand. The caller holds e.mu.
func (e *Engine) label(start, end int, class *LabelClass, mode Mode) (*Block, error) {
	if class == nil {
		return nil, ErrNoClass
	}

	cmd := history.NewLabelCommand(start, end, class)
	cmd.Mode = mode
	cmd.History = []HistoryRecord{e.record(class, StateCandidate)}

	if err := e.execute(cmd); err != nil {
		if errors.Is(err, history.ErrNoChange) {
			return nil, nil
		}
		return nil, err
	}
	return cmd.Result().Created, nil
}

// Unlabel removes the block starting at start and returns it. The block's
// tokens go back into the sentence. Tiled blocks are removed before
// rejected ones. Returns a nil block when nothing starts at start.
func (e *Engine) Unlabel(start int) (*Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unlabel(start)
}

// unlabel runs an UnlabelCommand. The caller holds e.mu.
func (e *Engine) unlabel(start int) (*Block, error) {
	cmd := history.NewUnlabelCommand(start)
	if err := e.execute(cmd); err != nil {
		if errors.Is(err, history.ErrNoChange) {
			return nil, nil
		}
		return nil, err
	}
	return cmd.Removed(), nil
}

// Relabel gives the block starting at start a new class.
func (e *Engine) Relabel(start int, class *LabelClass) error {
	if class == nil {
		return ErrNoClass
	}
	name := fmt.Sprintf("Relabel %s at %d", class.Name, start)
	return e.update(start, name, func(b *Block) {
		b.Class = class
		b.History = append(b.History, e.record(class, b.CurrentState))
	})
}

// Accept marks the block starting at start as reviewed and Accepted.
func (e *Engine) Accept(start int) error {
	return e.review(start, StateAccepted)
}

// Reject marks the block starting at start as reviewed and Rejected. The
// block keeps its place in the sentence.
func (e *Engine) Reject(start int) error {
	return e.review(start, StateRejected)
}

// SetState moves the block starting at start to state, recording the
// transition in its history, without marking it reviewed.
func (e *Engine) SetState(start int, state State) error {
	name := fmt.Sprintf("Set %s at %d", state, start)
	return e.update(start, name, func(b *Block) {
		if b.CurrentState == state {
			return
		}
		b.PreviousState = b.CurrentState
		b.CurrentState = state
		b.History = append(b.History, e.record(b.Class, state))
	})
}

func (e *Engine) review(start int, state State) error {
	verb := "Accept"
	if state == StateRejected {
		verb = "Reject"
	}
	name := fmt.Sprintf("%s block at %d", verb, start)
	return e.update(start, name, func(b *Block) {
		if b.Reviewed && b.CurrentState == state {
			return
		}
		b.PreviousState = b.CurrentState
		b.CurrentState = state
		b.Reviewed = true
		b.History = append(b.History, e.record(b.Class, state))
	})
}

func (e *Engine) update(start int, name string, change func(*Block)) error {
	err := e.Execute(history.NewUpdateCommand(start, name, change))
	if errors.Is(err, history.ErrNoChange) {
		return nil
	}
	return err
}

// record builds a history record stamped with the engine clock and
// annotator.
func (e *Engine) record(class *LabelClass, state State) HistoryRecord {
	return HistoryRecord{
		ClassName:   token.ClassName(class),
		State:       state,
		Timestamp:   e.clock().UTC().Format(time.RFC3339),
		DisplayName: e.annotator,
	}
}

// RemoveDuplicateBlocks drops blocks structurally equal to another block
// with the same start. Returns the number removed. The removal is not
// undoable.
func (e *Engine) RemoveDuplicateBlocks() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.part.RemoveDuplicateBlocks()
	if n > 0 {
		e.tracker.Record(fmt.Sprintf("Remove %d duplicate blocks", n))
	}
	return n
}

// ============================================================================
// Command Execution
// ============================================================================

// Execute runs a command and adds it to undo history. Commands that change
// nothing return history.ErrNoChange and are not recorded.
func (e *Engine) Execute(cmd Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.execute(cmd)
}

// execute runs cmd through the history. The caller holds e.mu.
func (e *Engine) execute(cmd Command) error {
	if e.readOnly {
		return ErrReadOnly
	}

	if err := e.history.Execute(cmd, e.part); err != nil {
		return err
	}
	e.tracker.Record(cmd.Description())
	return nil
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo undoes the last operation.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}

	cmd, _ := e.history.PeekUndo()
	if err := e.history.Undo(e.part); err != nil {
		return err
	}
	e.tracker.Record("Undo " + cmd.Description())
	return nil
}

// Redo redoes the last undone operation.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}

	cmd, _ := e.history.PeekRedo()
	if err := e.history.Redo(e.part); err != nil {
		return err
	}
	e.tracker.Record("Redo " + cmd.Description())
	return nil
}

// UndoAll undoes every recorded operation, returning the sentence to its
// state after the last Load when the history is complete. Returns the
// number of operations undone.
func (e *Engine) UndoAll() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return 0, ErrReadOnly
	}

	before := e.history.UndoCount()
	err := e.history.UndoToCheckpoint(e.origin, e.part)
	n := before - e.history.UndoCount()
	if n > 0 {
		e.tracker.Record(fmt.Sprintf("Undo %d operations", n))
	}
	return n, err
}

// RedoAll redoes every undone operation. Returns the number of operations
// redone.
func (e *Engine) RedoAll() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return 0, ErrReadOnly
	}

	before := e.history.UndoCount()
	err := e.history.RedoToCheckpoint(e.history.LatestCheckpoint(), e.part)
	n := e.history.UndoCount() - before
	if n > 0 {
		e.tracker.Record(fmt.Sprintf("Redo %d operations", n))
	}
	return n, err
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanRedo()
}

// UndoCount returns the number of available undo operations.
func (e *Engine) UndoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.UndoCount()
}

// RedoCount returns the number of available redo operations.
func (e *Engine) RedoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.RedoCount()
}

// UndoInfo describes the available undo operations, oldest first.
func (e *Engine) UndoInfo() []OperationInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.UndoInfo()
}

// RedoInfo describes the available redo operations, oldest first.
func (e *Engine) RedoInfo() []OperationInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.RedoInfo()
}

// Tx edits the sentence inside Engine.Transaction.
type Tx struct {
	e *Engine
}

// Label labels the selection [start, end) like Engine.Label.
func (tx *Tx) Label(start, end int, class *LabelClass, mode Mode) (*Block, error) {
	return tx.e.label(start, end, class, mode)
}

// Unlabel removes the block starting at start like Engine.Unlabel.
func (tx *Tx) Unlabel(start int) (*Block, error) {
	return tx.e.unlabel(start)
}

// Transaction runs fn with the engine locked. The edits fn makes through tx
// are undone as a single unit. If fn returns an error they are rolled back
// and nothing is added to the undo history.
func (e *Engine) Transaction(name string, fn func(tx *Tx) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}

	tx := &Tx{e: e}
	err := e.history.Transaction(name, e.part, func() error { return fn(tx) })
	if err != nil {
		e.tracker.Record("Roll back " + name)
	}
	return err
}

// BeginUndoGroup starts a new undo group.
// All operations until EndUndoGroup will be undone as a single unit.
func (e *Engine) BeginUndoGroup(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.BeginGroup(name)
}

// EndUndoGroup ends the current undo group.
func (e *Engine) EndUndoGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.EndGroup()
}

// CancelUndoGroup ends the current undo group without recording it. The
// grouped operations stay applied.
func (e *Engine) CancelUndoGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.CancelGroup()
}

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Clear()
}

// ============================================================================
// Snapshot and Tracking Operations
// ============================================================================

// Revision returns the number of edits recorded since the last Load.
func (e *Engine) Revision() int {
	return e.tracker.Revision()
}

// ChangesSince returns the edits recorded after rev.
func (e *Engine) ChangesSince(rev int) []Change {
	return e.tracker.ChangesSince(rev)
}

// LatestChanges returns the n most recent edits, oldest first.
func (e *Engine) LatestChanges(n int) []Change {
	return e.tracker.LatestChanges(n)
}

// CreateSnapshot freezes the current annotation set under name.
func (e *Engine) CreateSnapshot(name string) SnapshotID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.CreateSnapshot(name, e.exportLocked())
}

// SnapshotEntries returns the annotation set frozen in a snapshot.
func (e *Engine) SnapshotEntries(id SnapshotID) ([]Entry, error) {
	snap, err := e.tracker.GetSnapshot(id)
	if err != nil {
		return nil, err
	}
	return snap.Entries(), nil
}

// DiffSinceSnapshot compares a snapshot with the current annotation set.
func (e *Engine) DiffSinceSnapshot(id SnapshotID) (annotation.Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.DiffSinceSnapshot(id, e.exportLocked())
}

// DiffSinceLoad compares the annotation set at the last Load with the
// current one.
func (e *Engine) DiffSinceLoad() annotation.Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	report, _ := e.tracker.DiffSinceSnapshot(e.loaded, e.exportLocked())
	return report
}

// ============================================================================
// Configuration
// ============================================================================

// IsReadOnly returns true if the engine is read-only.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// Annotator returns the display name written into history records.
func (e *Engine) Annotator() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.annotator
}

// SetAnnotator changes the display name written into history records.
func (e *Engine) SetAnnotator(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.annotator = name
}
