package engine

import (
	"errors"

	"github.com/theSKAILab/TART/internal/engine/history"
	"github.com/theSKAILab/TART/internal/engine/partition"
	"github.com/theSKAILab/TART/internal/engine/tracking"
)

// Errors returned by engine operations.
var (
	// ErrNoClass indicates a label operation without a class.
	ErrNoClass = errors.New("no label class")

	// ErrBlockNotFound indicates no block starts at the given offset.
	ErrBlockNotFound = partition.ErrBlockNotFound

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrSnapshotNotFound indicates a snapshot was not found.
	ErrSnapshotNotFound = tracking.ErrSnapshotNotFound

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)
