package app

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/theSKAILab/TART/internal/document"
	"github.com/theSKAILab/TART/internal/engine"
)

// documentOptions builds the document and engine options from the
// settings.
func (app *Application) documentOptions() []document.Option {
	cfg := app.config
	engineOpts := []engine.Option{
		engine.WithClasses(app.registry),
		engine.WithAnnotator(cfg.Annotator),
		engine.WithMaxUndoEntries(cfg.History.MaxEntries),
		engine.WithMaxChanges(cfg.History.MaxChanges),
		engine.WithClock(app.opts.Clock),
	}
	if app.opts.ReadOnly {
		engineOpts = append(engineOpts, engine.WithReadOnly())
	}
	return []document.Option{
		document.WithSeparator(cfg.Separator),
		document.WithPrecision(document.ParsePrecision(cfg.Precision)),
		document.WithEngineOptions(engineOpts...),
	}
}

// OpenFile opens a .txt or .json file and makes it the active document.
// Classes saved in the file are merged into the registry.
func (app *Application) OpenFile(path string) (*document.Document, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if err := app.checkOpen(); err != nil {
		return nil, err
	}
	if doc, ok := app.documents.Get(path); ok {
		return doc, nil
	}

	doc, err := document.Open(path, app.documentOptions()...)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	if n := app.registry.Merge(doc.Classes()); n > 0 {
		app.Logger().WithComponent("classes").Info("merged %d classes from %s", n, filepath.Base(path))
		// Reload the live sentence so its blocks resolve against the
		// merged classes.
		if doc.Len() > 0 {
			doc.Reload()
		}
	}
	if err := doc.Verify(); err != nil {
		app.Logger().WithComponent("document").Warn("%s has entities that do not fit their tokens: %v", filepath.Base(path), err)
	}
	if err := app.documents.Add(path, doc); err != nil {
		return nil, err
	}

	app.Logger().WithFields(map[string]any{
		"document":  doc.Name,
		"mode":      doc.Mode,
		"sentences": doc.Len(),
		"session":   doc.Session,
	}).Info("opened")
	return doc, nil
}

// SaveDocument writes the document open at path as an annotation file to
// out, or back to path when out is empty. The registry classes are saved
// with it and persisted to the store.
func (app *Application) SaveDocument(ctx context.Context, path, out string) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("save", path)
	if err != nil {
		return err
	}
	if out == "" {
		out = path
	}
	if !strings.EqualFold(filepath.Ext(out), ".json") {
		return NewOperationError("save", out, document.ErrUnsupportedFormat).WithContext("annotations are saved as .json")
	}

	doc.SetClasses(app.registry.Classes())
	if err := doc.Save(out); err != nil {
		return NewOperationError("save", out, err)
	}
	if err := app.persistClasses(ctx); err != nil {
		return err
	}

	app.Logger().WithFields(map[string]any{
		"document": doc.Name,
		"session":  doc.Session,
	}).Info("saved %s", out)
	return nil
}

// ExportDocument writes the document open at path to w as an annotation
// file.
func (app *Application) ExportDocument(path string, w io.Writer) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("export", path)
	if err != nil {
		return err
	}
	doc.SetClasses(app.registry.Classes())
	if err := doc.Encode(w); err != nil {
		return NewOperationError("export", path, err)
	}
	return nil
}

// CloseDocument closes the document at path. A document with unsaved
// changes is only closed when force is set.
func (app *Application) CloseDocument(path string, force bool) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	doc, err := app.document("close", path)
	if err != nil {
		return err
	}
	if !force && doc.Modified() {
		return NewOperationError("close", path, ErrUnsavedChanges)
	}
	return app.documents.Close(path)
}

// document returns the document open at path. The caller holds app.mu.
func (app *Application) document(op, path string) (*document.Document, error) {
	if err := app.checkOpen(); err != nil {
		return nil, err
	}
	doc, ok := app.documents.Get(path)
	if !ok {
		return nil, NewOperationError(op, path, ErrDocumentNotFound)
	}
	return doc, nil
}
