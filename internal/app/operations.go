package app

import (
	"context"
	"fmt"
	"io"

	"github.com/theSKAILab/TART/internal/annotation"
	"github.com/theSKAILab/TART/internal/classes"
	"github.com/theSKAILab/TART/internal/document"
	"github.com/theSKAILab/TART/internal/engine"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// ============================================================================
// Annotation
// ============================================================================

// TokenRange selects tokens First..Last of a sentence.
type TokenRange struct {
	First, Last int
}

// Label labels tokens first..last of a sentence with the class named
// className, or with the current class when className is empty. The label
// mode follows the document: annotate for text, review for saved files.
// A label that changes nothing returns a nil block.
func (app *Application) Label(path string, sentence, first, last int, className string) (*token.Block, error) {
	blocks, err := app.LabelRanges(path, sentence, []TokenRange{{First: first, Last: last}}, className)
	if err != nil {
		return nil, err
	}
	return blocks[0], nil
}

// LabelRanges labels several token ranges of a sentence with one class as
// a single undoable edit. Ranges are applied in order; if any fails, none
// is kept. The returned blocks line up with ranges, nil where a label
// changed nothing.
func (app *Application) LabelRanges(path string, sentence int, ranges []TokenRange, className string) ([]*token.Block, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("label", path)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, NewOperationError("label", path, ErrNoSelection)
	}
	class, err := app.class(className)
	if err != nil {
		return nil, NewOperationError("label", path, err)
	}
	if err := doc.Goto(sentence); err != nil {
		return nil, NewOperationError("label", path, err)
	}
	s, err := doc.Current()
	if err != nil {
		return nil, NewOperationError("label", path, err)
	}

	spans := make([][2]int, len(ranges))
	for i, r := range ranges {
		start, end, err := s.Selection(r.First, r.Last)
		if err != nil {
			return nil, NewOperationError("label", path, err).WithContext(fmt.Sprintf("sentence %d", sentence))
		}
		spans[i] = [2]int{start, end}
	}

	blocks := make([]*token.Block, len(spans))
	name := "Label " + class.Name
	if len(spans) > 1 {
		name = fmt.Sprintf("Label %d ranges as %s", len(spans), class.Name)
	}
	err = doc.Engine().Transaction(name, func(tx *engine.Tx) error {
		for i, sp := range spans {
			b, err := tx.Label(sp[0], sp[1], class, doc.Mode)
			if err != nil {
				return err
			}
			blocks[i] = b
		}
		return nil
	})
	if err != nil {
		return nil, NewOperationError("label", path, err)
	}
	doc.Commit()

	for _, b := range blocks {
		if b == nil {
			continue
		}
		app.Logger().WithFields(map[string]any{
			"class":    class.Name,
			"mode":     doc.Mode,
			"sentence": sentence,
		}).Debug("labeled %q", b.Text())
	}
	return blocks, nil
}

// Unlabel removes the block starting at offset start of a sentence.
func (app *Application) Unlabel(path string, sentence, start int) (*token.Block, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("unlabel", path)
	if err != nil {
		return nil, err
	}
	if err := doc.Goto(sentence); err != nil {
		return nil, NewOperationError("unlabel", path, err)
	}
	b, err := doc.Engine().Unlabel(start)
	if err != nil {
		return nil, NewOperationError("unlabel", path, err).WithContext(fmt.Sprintf("sentence %d", sentence))
	}
	doc.Commit()
	return b, nil
}

// Review accepts or rejects the block starting at offset start of a
// sentence.
func (app *Application) Review(path string, sentence, start int, accept bool) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	op := "reject"
	if accept {
		op = "accept"
	}
	doc, err := app.document(op, path)
	if err != nil {
		return err
	}
	if err := doc.Goto(sentence); err != nil {
		return NewOperationError(op, path, err)
	}

	e := doc.Engine()
	if accept {
		err = e.Accept(start)
	} else {
		err = e.Reject(start)
	}
	if err != nil {
		return NewOperationError(op, path, err).WithContext(fmt.Sprintf("sentence %d", sentence))
	}
	doc.Commit()
	return nil
}

// Check validates the document: every saved entity must fit the tokens
// of its sentence, and the partition of the live sentence must hold.
// All violations are returned.
func (app *Application) Check(path string) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("check", path)
	if err != nil {
		return err
	}

	errs := NewErrorList()
	if err := doc.Verify(); err != nil {
		errs.Add(NewOperationError("check", path, err))
	}
	if doc.Len() > 0 {
		if err := doc.Engine().Validate(); err != nil {
			errs.Add(NewOperationError("check", path, err).WithContext(fmt.Sprintf("sentence %d", doc.Index())))
		}
	}
	return errs.AsError()
}

// Diff reports the sentences whose annotations changed since the document
// was opened or last saved.
func (app *Application) Diff(path string) ([]document.SentenceReport, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("diff", path)
	if err != nil {
		return nil, err
	}
	return doc.Changes(), nil
}

// Compare reports the sentences whose annotations differ between two open
// documents over the same text.
func (app *Application) Compare(before, after string) ([]document.SentenceReport, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	a, err := app.document("compare", before)
	if err != nil {
		return nil, err
	}
	b, err := app.document("compare", after)
	if err != nil {
		return nil, err
	}
	if a.Len() != b.Len() {
		return nil, NewOperationError("compare", after, ErrInvalidOperation).
			WithContext(fmt.Sprintf("%d sentences, want %d", b.Len(), a.Len()))
	}

	var out []document.SentenceReport
	for i := 0; i < a.Len(); i++ {
		sa, err := a.Sentence(i)
		if err != nil {
			return nil, NewOperationError("compare", before, err)
		}
		sb, err := b.Sentence(i)
		if err != nil {
			return nil, NewOperationError("compare", after, err)
		}
		if sa.Text != sb.Text {
			return nil, NewOperationError("compare", after, ErrInvalidOperation).
				WithContext(fmt.Sprintf("sentence %d text differs", i))
		}
		if r := annotation.Compare(sa.Entries, sb.Entries); r.HasChanges() {
			out = append(out, document.SentenceReport{Index: i, ID: sb.ID, Text: sb.Text, Report: r})
		}
	}
	return out, nil
}

// ============================================================================
// History
// ============================================================================

// HistoryInfo describes the edit history of the live sentence.
type HistoryInfo struct {
	Sentence int
	Undo     []engine.OperationInfo
	Redo     []engine.OperationInfo
	Changes  []engine.Change
}

// Undo undoes the last edit of the live sentence.
func (app *Application) Undo(path string) error {
	return app.step("undo", path, func(e *engine.Engine) (int, error) {
		return 1, e.Undo()
	})
}

// Redo redoes the last undone edit of the live sentence.
func (app *Application) Redo(path string) error {
	return app.step("redo", path, func(e *engine.Engine) (int, error) {
		return 1, e.Redo()
	})
}

// UndoAll undoes every edit of the live sentence since it was loaded and
// returns how many were undone.
func (app *Application) UndoAll(path string) (int, error) {
	var n int
	err := app.step("undo all", path, func(e *engine.Engine) (int, error) {
		var err error
		n, err = e.UndoAll()
		return n, err
	})
	return n, err
}

// RedoAll redoes every undone edit of the live sentence and returns how
// many were redone.
func (app *Application) RedoAll(path string) (int, error) {
	var n int
	err := app.step("redo all", path, func(e *engine.Engine) (int, error) {
		var err error
		n, err = e.RedoAll()
		return n, err
	})
	return n, err
}

// step runs an undo or redo on the live sentence of the document at path
// and commits the result.
func (app *Application) step(op, path string, fn func(*engine.Engine) (int, error)) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document(op, path)
	if err != nil {
		return err
	}
	n, err := fn(doc.Engine())
	if err != nil {
		return NewOperationError(op, path, err).WithContext(fmt.Sprintf("sentence %d", doc.Index()))
	}
	doc.Commit()
	app.Logger().WithFields(map[string]any{
		"document": doc.Name,
		"sentence": doc.Index(),
	}).Debug("%s: %d operations", op, n)
	return nil
}

// History describes the undo and redo stacks of the live sentence and its
// n most recent edits.
func (app *Application) History(path string, n int) (HistoryInfo, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("history", path)
	if err != nil {
		return HistoryInfo{}, err
	}
	e := doc.Engine()
	return HistoryInfo{
		Sentence: doc.Index(),
		Undo:     e.UndoInfo(),
		Redo:     e.RedoInfo(),
		Changes:  e.LatestChanges(n),
	}, nil
}

// ============================================================================
// Label Classes
// ============================================================================

// Classes returns the registered label classes.
func (app *Application) Classes() []token.LabelClass {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.registry.Classes()
}

// CurrentClass returns the class selected for labeling, or nil.
func (app *Application) CurrentClass() *token.LabelClass {
	app.mu.Lock()
	defer app.mu.Unlock()
	if c := app.registry.Current(); c != nil {
		cc := *c
		return &cc
	}
	return nil
}

// SetCurrentClass selects the class used when Label gets no class name.
func (app *Application) SetCurrentClass(name string) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if err := app.registry.SetCurrentByName(name); err != nil {
		return NewOperationError("select class", name, err)
	}
	return nil
}

// AddClass registers a class and persists the registry. An existing class
// of the same name is returned unchanged with added false.
func (app *Application) AddClass(ctx context.Context, name string) (token.LabelClass, bool, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.checkOpen(); err != nil {
		return token.LabelClass{}, false, err
	}
	c, added, err := app.registry.Add(name)
	if err != nil {
		return token.LabelClass{}, false, NewOperationError("add class", name, err)
	}
	if added {
		if err := app.persistClasses(ctx); err != nil {
			return token.LabelClass{}, false, err
		}
		app.Logger().WithComponent("classes").Info("added %s (%s)", c.Name, c.Color)
	}
	return *c, added, nil
}

// RemoveClass deletes the class named name and persists the registry.
// Blocks already labeled with it keep the class by name.
func (app *Application) RemoveClass(ctx context.Context, name string) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.checkOpen(); err != nil {
		return err
	}
	if !app.registry.RemoveByName(name) {
		return NewOperationError("remove class", name, classes.ErrUnknownClass)
	}
	if err := app.persistClasses(ctx); err != nil {
		return err
	}
	app.Logger().WithComponent("classes").Info("removed %s", name)
	return nil
}

// ImportClasses merges the classes of a YAML class file into the registry
// and persists it. It returns the number of classes added.
func (app *Application) ImportClasses(ctx context.Context, r io.Reader) (int, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.checkOpen(); err != nil {
		return 0, err
	}
	list, err := classes.DecodeYAML(r)
	if err != nil {
		return 0, NewOperationError("import classes", "", err)
	}
	n := app.registry.Merge(list)
	if n > 0 {
		if err := app.persistClasses(ctx); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// ExportClasses writes the registry as a YAML class file.
func (app *Application) ExportClasses(w io.Writer) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := classes.EncodeYAML(w, app.registry.Classes()); err != nil {
		return NewOperationError("export classes", "", err)
	}
	return nil
}

// class resolves a class name, falling back to the current class. The
// caller holds app.mu.
func (app *Application) class(name string) (*token.LabelClass, error) {
	if name == "" {
		if c := app.registry.Current(); c != nil {
			return c, nil
		}
		return nil, ErrNoClass
	}
	c, ok := app.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("class %q: %w", name, classes.ErrUnknownClass)
	}
	return c, nil
}

// persistClasses writes the registry to the store. The caller holds
// app.mu.
func (app *Application) persistClasses(ctx context.Context) error {
	if app.store == nil {
		return nil
	}
	if err := app.store.Save(ctx, app.registry.Classes()); err != nil {
		return NewOperationError("persist classes", app.config.Classes.Store, err)
	}
	return nil
}
