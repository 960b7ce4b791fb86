package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theSKAILab/TART/internal/annotation"
	"github.com/theSKAILab/TART/internal/classes"
	"github.com/theSKAILab/TART/internal/config"
	"github.com/theSKAILab/TART/internal/document"
	"github.com/theSKAILab/TART/internal/engine"
	"github.com/theSKAILab/TART/internal/engine/token"
)

const classFile = `classes:
  - id: 1
    name: PER
    color: red-11
  - id: 2
    name: ORG
    color: blue-11
`

const corpus = "Alice met Bob .\n\nHi John ."

const savedCorpus = `{
	"version": 2,
	"classes": [{"id": 7, "name": "LOC", "color": "teal-11"}],
	"annotations": [
		[0, "Paris is big .", {"entities": [
			["LOC", 0, 4, [["LOC", "Candidate", "2024-01-01T00:00:00Z", "ann"]]]
		]}]
	]
}`

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// newTestApp starts an application on an in-memory class store.
func newTestApp(t *testing.T, mutate func(*config.Config)) (*Application, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Classes.Store = memoryStore
	cfg.Annotator = "tester"
	if mutate != nil {
		mutate(cfg)
	}

	var logs bytes.Buffer
	app, err := New(context.Background(), Options{Config: cfg, LogOutput: &logs, Clock: fixedClock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, &logs
}

// newClassApp starts an application with PER and ORG registered.
func newClassApp(t *testing.T) (*Application, string) {
	t.Helper()
	dir := t.TempDir()
	yml := writeFile(t, dir, "classes.yaml", classFile)
	app, _ := newTestApp(t, func(c *config.Config) { c.Classes.File = yml })
	return app, dir
}

// ============================================================================
// Bootstrap
// ============================================================================

func TestNew_Defaults(t *testing.T) {
	app, _ := newTestApp(t, nil)

	if len(app.Classes()) != 0 {
		t.Errorf("Classes() = %v, want none", app.Classes())
	}
	if app.CurrentClass() != nil {
		t.Error("expected no current class")
	}
	if app.Config().Annotator != "tester" {
		t.Errorf("Config() = %+v", app.Config())
	}
}

func TestNew_ImportsClassFile(t *testing.T) {
	dir := t.TempDir()
	yml := writeFile(t, dir, "classes.yaml", classFile)

	app, logs := newTestApp(t, func(c *config.Config) { c.Classes.File = yml })

	got := app.Classes()
	if len(got) != 2 || got[0].Name != "PER" || got[1].Name != "ORG" {
		t.Fatalf("Classes() = %v", got)
	}
	if c := app.CurrentClass(); c == nil || c.Name != "PER" {
		t.Errorf("CurrentClass() = %v, want PER", c)
	}
	if !strings.Contains(logs.String(), "imported 2 classes") {
		t.Errorf("logs = %q", logs.String())
	}
}

func TestNew_MissingClassFile(t *testing.T) {
	app, logs := newTestApp(t, func(c *config.Config) {
		c.Classes.File = filepath.Join(t.TempDir(), "missing.yaml")
	})

	if len(app.Classes()) != 0 {
		t.Errorf("Classes() = %v", app.Classes())
	}
	if !strings.Contains(logs.String(), "[WARN]") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestNew_InvalidClassFile(t *testing.T) {
	cfg := config.Default()
	cfg.Classes.Store = memoryStore
	cfg.Classes.File = writeFile(t, t.TempDir(), "classes.yaml", "classes: [unterminated")

	_, err := New(context.Background(), Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Component != "classes" {
		t.Fatalf("New error = %v, want a classes InitError", err)
	}
}

func TestNew_StorePersistsClasses(t *testing.T) {
	store := filepath.Join(t.TempDir(), "data", "classes.db")
	ctx := context.Background()

	first, _ := newTestApp(t, func(c *config.Config) { c.Classes.Store = store })
	if _, added, err := first.AddClass(ctx, "PER"); err != nil || !added {
		t.Fatalf("AddClass = %v, %v", added, err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, _ := newTestApp(t, func(c *config.Config) { c.Classes.Store = store })
	got := second.Classes()
	if len(got) != 1 || got[0].Name != "PER" || got[0].Color != classes.Palette[0] {
		t.Errorf("Classes() = %v", got)
	}
}

func TestClose(t *testing.T) {
	app, _ := newTestApp(t, nil)

	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, _, err := app.AddClass(context.Background(), "PER"); !errors.Is(err, ErrClosed) {
		t.Errorf("AddClass after Close = %v, want ErrClosed", err)
	}
	if _, err := app.OpenFile("corpus.txt"); !errors.Is(err, ErrClosed) {
		t.Errorf("OpenFile after Close = %v, want ErrClosed", err)
	}
}

// ============================================================================
// Documents
// ============================================================================

func TestOpenFile(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)

	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if doc.Len() != 2 || doc.Mode != token.ModeAnnotate {
		t.Errorf("opened %d sentences in %v", doc.Len(), doc.Mode)
	}

	again, err := app.OpenFile(path)
	if err != nil || again != doc {
		t.Errorf("second OpenFile = %p, %v; want the open document", again, err)
	}
	if app.Documents().Count() != 1 || app.Documents().Active() != doc {
		t.Error("expected one active document")
	}

	if _, err := app.OpenFile(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	bad := writeFile(t, dir, "corpus.csv", "a,b")
	if _, err := app.OpenFile(bad); !errors.Is(err, document.ErrUnsupportedFormat) {
		t.Errorf("csv error = %v", err)
	}
}

func TestOpenFile_MergesSavedClasses(t *testing.T) {
	app, _ := newTestApp(t, nil)
	path := writeFile(t, t.TempDir(), "saved.json", savedCorpus)

	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if doc.Mode != token.ModeReview {
		t.Errorf("Mode = %v, want review", doc.Mode)
	}
	if got := app.Classes(); len(got) != 1 || got[0].Name != "LOC" || got[0].ID != 7 {
		t.Fatalf("Classes() = %v", got)
	}

	blocks := doc.Engine().Blocks()
	if len(blocks) != 1 {
		t.Fatalf("Blocks() = %v", blocks)
	}
	if blocks[0].Class.IsPlaceholder() || blocks[0].Class.Color != "teal-11" {
		t.Errorf("class = %+v, want the registered LOC", blocks[0].Class)
	}
}

func TestLabelDiffSave(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	out := filepath.Join(dir, "corpus.json")
	ctx := context.Background()

	if _, err := app.OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	b, err := app.Label(path, 0, 2, 2, "ORG")
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if b.Text() != "Bob" || b.Class.Name != "ORG" || b.CurrentState != token.StateCandidate {
		t.Errorf("block = %q %v %v", b.Text(), b.Class, b.CurrentState)
	}
	if len(b.History) != 1 || b.History[0].DisplayName != "tester" {
		t.Errorf("history = %+v", b.History)
	}

	b, err = app.Label(path, 1, 1, 1, "")
	if err != nil {
		t.Fatalf("Label with current class: %v", err)
	}
	if b.Text() != "John" || b.Class.Name != "PER" {
		t.Errorf("block = %q %v", b.Text(), b.Class)
	}

	reports, err := app.Diff(path)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(reports) != 2 || reports[0].Index != 0 || reports[1].Index != 1 {
		t.Fatalf("Diff() = %+v", reports)
	}
	if app.Documents().Modified() == nil {
		t.Error("expected a modified document")
	}

	if err := app.CloseDocument(path, false); !errors.Is(err, ErrUnsavedChanges) {
		t.Errorf("CloseDocument = %v, want ErrUnsavedChanges", err)
	}

	if err := app.SaveDocument(ctx, path, out); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if reports, _ := app.Diff(path); len(reports) != 0 {
		t.Errorf("Diff after save = %+v", reports)
	}
	if err := app.SaveDocument(ctx, path, filepath.Join(dir, "corpus.out.txt")); !errors.Is(err, document.ErrUnsupportedFormat) {
		t.Errorf("save as text = %v, want ErrUnsupportedFormat", err)
	}

	saved, err := app.OpenFile(out)
	if err != nil {
		t.Fatalf("OpenFile(saved): %v", err)
	}
	if saved.Mode != token.ModeReview {
		t.Errorf("Mode = %v", saved.Mode)
	}
	if got := saved.Classes(); len(got) != 2 {
		t.Errorf("saved classes = %v", got)
	}
	if err := app.Check(out); err != nil {
		t.Errorf("Check: %v", err)
	}

	if err := app.CloseDocument(path, false); err != nil {
		t.Errorf("CloseDocument after save: %v", err)
	}
	if _, err := app.Label(path, 0, 0, 0, "PER"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Label on closed document = %v", err)
	}
}

func TestLabelErrors(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	if _, err := app.OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	tests := []struct {
		name     string
		sentence int
		first    int
		last     int
		class    string
		want     error
	}{
		{"unknown class", 0, 0, 0, "LOC", classes.ErrUnknownClass},
		{"sentence out of range", 5, 0, 0, "PER", document.ErrSentenceOutOfRange},
		{"token out of range", 0, 0, 9, "PER", document.ErrTokenOutOfRange},
		{"reversed tokens", 0, 2, 1, "PER", document.ErrTokenOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.Label(path, tt.sentence, tt.first, tt.last, tt.class)
			if !errors.Is(err, tt.want) {
				t.Errorf("Label = %v, want %v", err, tt.want)
			}
			var op *OperationError
			if !errors.As(err, &op) || op.Op != "label" {
				t.Errorf("expected a label OperationError, got %T", err)
			}
		})
	}

	if _, err := app.Label("other.txt", 0, 0, 0, "PER"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("unopened document = %v", err)
	}
}

func TestLabelWithoutClasses(t *testing.T) {
	app, _ := newTestApp(t, nil)
	path := writeFile(t, t.TempDir(), "corpus.txt", corpus)
	if _, err := app.OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if _, err := app.Label(path, 0, 0, 0, ""); !errors.Is(err, ErrNoClass) {
		t.Errorf("Label = %v, want ErrNoClass", err)
	}
}

func TestUnlabel(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	if _, err := app.OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := app.Label(path, 0, 0, 0, "PER"); err != nil {
		t.Fatalf("Label: %v", err)
	}

	b, err := app.Unlabel(path, 0, 0)
	if err != nil {
		t.Fatalf("Unlabel: %v", err)
	}
	if b.Text() != "Alice" {
		t.Errorf("removed %q", b.Text())
	}
	if reports, _ := app.Diff(path); len(reports) != 0 {
		t.Errorf("Diff after unlabel = %+v", reports)
	}
}

func TestReview(t *testing.T) {
	app, _ := newTestApp(t, nil)
	path := writeFile(t, t.TempDir(), "saved.json", savedCorpus)
	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if err := app.Review(path, 0, 0, true); err != nil {
		t.Fatalf("Review accept: %v", err)
	}
	s, err := doc.Sentence(0)
	if err != nil {
		t.Fatalf("Sentence: %v", err)
	}
	e := s.Entries[0]
	if !e.Reviewed || e.CurrentState != token.StateAccepted {
		t.Errorf("entry = %+v, want reviewed and accepted", e)
	}
	last := e.History[len(e.History)-1]
	if last.DisplayName != "tester" || last.State != token.StateAccepted || last.Timestamp != "2024-01-02T03:04:05Z" {
		t.Errorf("last record = %+v", last)
	}

	if err := app.Review(path, 0, 6, false); !errors.Is(err, engine.ErrBlockNotFound) {
		t.Errorf("Review missing block = %v", err)
	}
}

func TestCheck(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := app.Label(path, 1, 0, 1, "PER"); err != nil {
		t.Fatalf("Label: %v", err)
	}
	if err := doc.Goto(0); err != nil {
		t.Fatalf("Goto: %v", err)
	}

	if err := app.Check(path); err != nil {
		t.Errorf("Check: %v", err)
	}
	if doc.Index() != 0 {
		t.Errorf("Check moved the live sentence to %d", doc.Index())
	}
}

func TestLabelRanges(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	blocks, err := app.LabelRanges(path, 0, []TokenRange{{0, 0}, {2, 2}}, "PER")
	if err != nil {
		t.Fatalf("LabelRanges: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Text() != "Alice" || blocks[1].Text() != "Bob" {
		t.Fatalf("LabelRanges() = %v", blocks)
	}
	if got := doc.Engine().UndoCount(); got != 1 {
		t.Errorf("UndoCount() = %d, want one edit for both ranges", got)
	}

	// A bad range keeps none of the others.
	if _, err := app.LabelRanges(path, 0, []TokenRange{{1, 1}, {2, 9}}, "ORG"); err == nil {
		t.Fatal("expected an error for token 9")
	}
	if _, err := app.LabelRanges(path, 0, nil, "ORG"); !errors.Is(err, ErrNoSelection) {
		t.Errorf("LabelRanges(nil) = %v, want ErrNoSelection", err)
	}
	if got := len(doc.Engine().Blocks()); got != 2 {
		t.Errorf("got %d blocks after failed labels, want 2", got)
	}
}

func TestUndoRedo(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if err := app.Undo(path); !errors.Is(err, engine.ErrNothingToUndo) {
		t.Errorf("Undo on a fresh sentence = %v", err)
	}
	for _, i := range []int{0, 2} {
		if _, err := app.Label(path, 0, i, i, "PER"); err != nil {
			t.Fatalf("Label: %v", err)
		}
	}

	if err := app.Undo(path); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !doc.Modified() {
		t.Error("one label should remain after a single undo")
	}
	if err := app.Redo(path); err != nil {
		t.Fatalf("Redo: %v", err)
	}

	n, err := app.UndoAll(path)
	if err != nil || n != 2 {
		t.Fatalf("UndoAll() = %d, %v, want 2", n, err)
	}
	if doc.Modified() {
		t.Error("UndoAll should return the sentence to its loaded state")
	}

	info, err := app.History(path, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if info.Sentence != 0 || len(info.Undo) != 0 || len(info.Redo) != 2 {
		t.Errorf("History() = %+v", info)
	}
	if len(info.Changes) == 0 || info.Changes[len(info.Changes)-1].Description != "Undo 2 operations" {
		t.Errorf("latest changes = %+v", info.Changes)
	}

	if n, err := app.RedoAll(path); err != nil || n != 2 {
		t.Fatalf("RedoAll() = %d, %v, want 2", n, err)
	}
	if got := len(doc.Engine().Blocks()); got != 2 {
		t.Errorf("got %d blocks after RedoAll, want 2", got)
	}
	if _, err := app.History(filepath.Join(dir, "missing.txt"), 1); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("History(missing) = %v", err)
	}
}

const overlappingCorpus = `{
	"version": 2,
	"classes": [{"id": 1, "name": "PER", "color": "red-11"}, {"id": 2, "name": "ORG", "color": "blue-11"}],
	"annotations": [
		[0, "Paris is big .", {"entities": [
			["PER", 0, 7, [["PER", "Candidate", "2024-01-01T00:00:00Z", "ann"]]],
			["ORG", 6, 11, [["ORG", "Candidate", "2024-01-01T00:00:00Z", "ann"]]]
		]}]
	]
}`

func TestCheckReportsInvalidEntities(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "overlap.json", overlappingCorpus)
	if _, err := app.OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	err := app.Check(path)
	if !errors.Is(err, document.ErrInvalidEntity) {
		t.Fatalf("Check = %v, want ErrInvalidEntity", err)
	}
	if !strings.Contains(err.Error(), "overlaps PER [0:7]") {
		t.Errorf("Check error %q does not name the overlap", err)
	}
}

func TestLabelKeepsSentenceHistory(t *testing.T) {
	app, dir := newClassApp(t)
	path := writeFile(t, dir, "corpus.txt", corpus)
	doc, err := app.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if _, err := app.Label(path, 0, 0, 0, "PER"); err != nil {
		t.Fatalf("Label: %v", err)
	}
	if _, err := app.Label(path, 0, 2, 2, "PER"); err != nil {
		t.Fatalf("Label: %v", err)
	}
	if got := doc.Engine().UndoCount(); got != 2 {
		t.Errorf("UndoCount() = %d, want 2", got)
	}
}

// ============================================================================
// Classes
// ============================================================================

func TestClassOperations(t *testing.T) {
	app, _ := newTestApp(t, nil)
	ctx := context.Background()

	c, added, err := app.AddClass(ctx, "PER")
	if err != nil || !added || c.ID != 1 {
		t.Fatalf("AddClass = %+v, %v, %v", c, added, err)
	}
	if _, added, _ := app.AddClass(ctx, "PER"); added {
		t.Error("expected a duplicate name to be ignored")
	}
	if _, _, err := app.AddClass(ctx, ""); !errors.Is(err, classes.ErrInvalidClass) {
		t.Errorf("AddClass(\"\") = %v", err)
	}

	n, err := app.ImportClasses(ctx, strings.NewReader(classFile))
	if err != nil || n != 1 {
		t.Fatalf("ImportClasses = %d, %v; want 1 new class", n, err)
	}

	if err := app.SetCurrentClass("ORG"); err != nil {
		t.Fatalf("SetCurrentClass: %v", err)
	}
	if c := app.CurrentClass(); c == nil || c.Name != "ORG" {
		t.Errorf("CurrentClass() = %v", c)
	}
	if err := app.SetCurrentClass("LOC"); !errors.Is(err, classes.ErrUnknownClass) {
		t.Errorf("SetCurrentClass(LOC) = %v", err)
	}

	if err := app.RemoveClass(ctx, "ORG"); err != nil {
		t.Fatalf("RemoveClass: %v", err)
	}
	if err := app.RemoveClass(ctx, "ORG"); !errors.Is(err, classes.ErrUnknownClass) {
		t.Errorf("second RemoveClass = %v", err)
	}
	if c := app.CurrentClass(); c == nil || c.Name != "PER" {
		t.Errorf("CurrentClass() after removal = %v, want PER", c)
	}

	n, err = app.ImportClasses(ctx, strings.NewReader("classes:\n  - {id: 1, name: LOC, color: teal-11}\n"))
	if err != nil || n != 1 {
		t.Fatalf("ImportClasses(LOC) = %d, %v", n, err)
	}
	loc := app.Classes()[len(app.Classes())-1]
	if loc.Name != "LOC" || loc.ID == 1 {
		t.Errorf("imported LOC = %+v, want a fresh id", loc)
	}
	if err := app.RemoveClass(ctx, "LOC"); err != nil {
		t.Fatalf("RemoveClass(LOC): %v", err)
	}
	if cs := app.Classes(); len(cs) != 1 || cs[0].Name != "PER" {
		t.Errorf("Classes() after removing LOC = %+v, want [PER]", cs)
	}

	var buf bytes.Buffer
	if err := app.ExportClasses(&buf); err != nil {
		t.Fatalf("ExportClasses: %v", err)
	}
	if !strings.Contains(buf.String(), "name: PER") || strings.Contains(buf.String(), "ORG") {
		t.Errorf("exported:\n%s", buf.String())
	}
}

func TestCompare(t *testing.T) {
	app, dir := newClassApp(t)
	before := writeFile(t, dir, "before.txt", corpus)
	after := writeFile(t, dir, "after.txt", corpus)
	other := writeFile(t, dir, "other.txt", "Hi John .")
	for _, p := range []string{before, after, other} {
		if _, err := app.OpenFile(p); err != nil {
			t.Fatalf("OpenFile(%s): %v", p, err)
		}
	}

	if reports, err := app.Compare(before, after); err != nil || len(reports) != 0 {
		t.Fatalf("Compare identical = %+v, %v", reports, err)
	}

	if _, err := app.Label(after, 1, 1, 1, "PER"); err != nil {
		t.Fatalf("Label: %v", err)
	}
	reports, err := app.Compare(before, after)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(reports) != 1 || reports[0].Index != 1 || reports[0].Report.Count(annotation.Added) != 1 {
		t.Errorf("Compare() = %+v", reports)
	}

	if _, err := app.Compare(before, other); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Compare different texts = %v, want ErrInvalidOperation", err)
	}
}
