package engine

import (
	"time"

	"github.com/theSKAILab/TART/internal/engine/partition"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 1000
	DefaultMaxChanges     = 1000
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithMaxChanges sets the maximum number of tracked changes.
func WithMaxChanges(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxChanges = max
		}
	}
}

// WithClasses sets the registry saved class names are resolved against.
func WithClasses(classes partition.ClassLookup) Option {
	return func(e *Engine) {
		e.classes = classes
	}
}

// WithClock sets the time source used to stamp history records.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithAnnotator sets the display name written into history records.
func WithAnnotator(name string) Option {
	return func(e *Engine) {
		e.annotator = name
	}
}

// WithReadOnly creates a read-only engine.
// Edit operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
