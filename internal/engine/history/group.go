package history

import (
	"github.com/theSKAILab/TART/internal/engine/partition"
)

// BeginGroup starts a command group.
// Commands pushed while grouping are combined into a single undo unit.
// Nested calls are ignored.
func (h *History) BeginGroup(name string) {
	if h.grouping {
		return
	}

	h.grouping = true
	h.groupName = name
	h.groupCmds = nil
}

// EndGroup finishes a command group.
// All commands since BeginGroup are combined into a CompoundCommand.
func (h *History) EndGroup() {
	if !h.grouping {
		return
	}

	h.grouping = false
	cmds := h.groupCmds
	h.groupCmds = nil

	if len(cmds) == 0 {
		return
	}

	h.Push(&CompoundCommand{
		Name:     h.groupName,
		Commands: cmds,
	})
}

// CancelGroup ends a command group without recording it and returns the
// commands that were executed inside it. They still affect the partition.
func (h *History) CancelGroup() []Command {
	cmds := h.groupCmds
	h.grouping = false
	h.groupCmds = nil
	return cmds
}

// IsGrouping returns true if currently in a command group.
func (h *History) IsGrouping() bool {
	return h.grouping
}

// Transaction executes fn within a grouped undo context. If fn returns an
// error the commands it executed are undone and nothing is recorded.
// Inside an open group fn simply joins that group.
func (h *History) Transaction(name string, p *partition.Partition, fn func() error) error {
	if h.grouping {
		return fn()
	}
	h.BeginGroup(name)

	if err := fn(); err != nil {
		cmds := h.CancelGroup()
		for i := len(cmds) - 1; i >= 0; i-- {
			_ = cmds[i].Undo(p)
		}
		return err
	}

	h.EndGroup()
	return nil
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint creates a checkpoint at the current history position.
func (h *History) CreateCheckpoint() Checkpoint {
	return Checkpoint{undoDepth: len(h.undoStack)}
}

// LatestCheckpoint returns the checkpoint reached by redoing every undone
// operation.
func (h *History) LatestCheckpoint() Checkpoint {
	return Checkpoint{undoDepth: len(h.undoStack) + len(h.redoStack)}
}

// UndoToCheckpoint undoes all operations since the checkpoint.
func (h *History) UndoToCheckpoint(cp Checkpoint, p *partition.Partition) error {
	for h.UndoCount() > cp.undoDepth {
		if err := h.Undo(p); err != nil {
			return err
		}
	}
	return nil
}

// RedoToCheckpoint redoes operations until the undo depth of cp is reached
// or nothing is left to redo.
func (h *History) RedoToCheckpoint(cp Checkpoint, p *partition.Partition) error {
	for h.UndoCount() < cp.undoDepth && h.CanRedo() {
		if err := h.Redo(p); err != nil {
			return err
		}
	}
	return nil
}
