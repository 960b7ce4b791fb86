package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/theSKAILab/TART/internal/annotation"
	"github.com/theSKAILab/TART/internal/engine"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// DefaultSeparator splits plain text into sentences.
const DefaultSeparator = "\n"

// blankRuns matches runs of two or more line breaks.
var blankRuns = regexp.MustCompile(`(\r\n|\n|\r){2,}`)

// Option configures a Document during creation.
type Option func(*options)

type options struct {
	separator  string
	precision  Precision
	engineOpts []engine.Option
}

// WithSeparator sets the separator plain text is split on.
func WithSeparator(sep string) Option {
	return func(o *options) {
		if sep != "" {
			o.separator = sep
		}
	}
}

// WithPrecision sets the tokenizer precision.
func WithPrecision(p Precision) Option {
	return func(o *options) {
		o.precision = p
	}
}

// WithEngineOptions sets the options of the sentence engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// Document is an ordered collection of sentences with one live sentence.
type Document struct {
	mu sync.RWMutex

	// Name is the file name the document was opened from.
	Name string

	// Mode is the label mode the document was opened in: annotate for
	// plain text, review for saved files.
	Mode token.Mode

	// Session identifies the annotation session.
	Session uuid.UUID

	classes   []token.LabelClass
	separator string
	sentences []*Sentence
	index     int
	engine    *engine.Engine

	// issues holds the entity problems found when the file was read,
	// keyed by sentence index.
	issues map[int]error
}

// Open reads and parses the file at path.
func Open(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.Base(path), data, opts...)
}

// Parse builds a document from the contents of a file called name. The
// extension selects the format: .txt is plain text, .json an annotation
// file.
func Parse(name string, data []byte, opts ...Option) (*Document, error) {
	o := options{separator: DefaultSeparator}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Document{
		Name:      name,
		separator: o.separator,
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		d.Mode = token.ModeAnnotate
		d.Session = uuid.New()
		for i, text := range splitText(string(data), o.separator) {
			d.sentences = append(d.sentences, newSentence(i, text, o.precision, nil))
		}

	case ".json":
		f, err := annotation.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		d.Mode = token.ModeReview
		d.Session = sessionOf(f.Session)
		d.classes = f.Classes
		for i, row := range f.Annotations {
			s := newSentence(row.ID, row.Text, o.precision, entriesOf(row.Entities))
			if err := s.Check(); err != nil {
				if d.issues == nil {
					d.issues = make(map[int]error)
				}
				d.issues[i] = err
			}
			d.sentences = append(d.sentences, s)
		}

	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}

	d.engine = engine.New(o.engineOpts...)
	if len(d.sentences) > 0 {
		d.load(0)
	}
	return d, nil
}

// splitText collapses blank lines and splits text into sentences. A
// trailing separator does not start an empty sentence.
func splitText(text, sep string) []string {
	text = blankRuns.ReplaceAllString(text, "\n")
	text = strings.TrimSuffix(text, sep)
	if text == "" {
		return nil
	}
	return strings.Split(text, sep)
}

func sessionOf(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return uuid.New()
}

// load makes sentence i live. The caller holds the lock.
func (d *Document) load(i int) {
	s := d.sentences[i]
	d.engine.Load(s.Tokens, annotation.SavedEntries(s.Entries))
	d.index = i
}

// commit stores the live annotation set in the current sentence. The
// caller holds the lock.
func (d *Document) commit() {
	if len(d.sentences) == 0 {
		return
	}
	d.sentences[d.index].Entries = d.engine.Export()
}

// Engine returns the engine of the live sentence.
func (d *Document) Engine() *engine.Engine {
	return d.engine
}

// Len returns the number of sentences.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sentences)
}

// Index returns the index of the live sentence.
func (d *Document) Index() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index
}

// Current returns a copy of the live sentence with its committed entries.
// Edits made since the last commit are only visible through Engine.
func (d *Document) Current() (Sentence, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.sentences) == 0 {
		return Sentence{}, ErrEmptyDocument
	}
	return d.sentences[d.index].clone(), nil
}

// Sentence returns a copy of sentence i.
func (d *Document) Sentence(i int) (Sentence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i < 0 || i >= len(d.sentences) {
		return Sentence{}, fmt.Errorf("sentence %d of %d: %w", i, len(d.sentences), ErrSentenceOutOfRange)
	}
	d.commit()
	return d.sentences[i].clone(), nil
}

// Commit stores the live annotation set in the current sentence.
func (d *Document) Commit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commit()
}

// ============================================================================
// Navigation
// ============================================================================

// Next commits the live sentence and moves to the next one. Returns false
// at the last sentence.
func (d *Document) Next() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index >= len(d.sentences)-1 {
		return false
	}
	d.commit()
	d.load(d.index + 1)
	return true
}

// Previous commits the live sentence and moves to the previous one.
// Returns false at the first sentence.
func (d *Document) Previous() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index == 0 || len(d.sentences) == 0 {
		return false
	}
	d.commit()
	d.load(d.index - 1)
	return true
}

// Goto commits the live sentence and moves to sentence i. Going to the
// live sentence keeps its engine and undo history.
func (d *Document) Goto(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i < 0 || i >= len(d.sentences) {
		return fmt.Errorf("sentence %d of %d: %w", i, len(d.sentences), ErrSentenceOutOfRange)
	}
	d.commit()
	if i != d.index {
		d.load(i)
	}
	return nil
}

// Reload commits the live sentence and loads it again, resolving its
// classes anew. Its undo history is cleared.
func (d *Document) Reload() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.sentences) == 0 {
		return
	}
	d.commit()
	d.load(d.index)
}

// First commits the live sentence and moves back to the first one.
func (d *Document) First() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.sentences) == 0 {
		return
	}
	d.commit()
	d.load(0)
}

// ResetSentence discards every change made to the live sentence and
// reloads the annotation set it was opened or last saved with.
func (d *Document) ResetSentence() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.sentences) == 0 {
		return ErrEmptyDocument
	}
	s := d.sentences[d.index]
	s.Entries = append([]annotation.Entry(nil), s.Original...)
	d.load(d.index)
	return nil
}

// ============================================================================
// Reports and Encoding
// ============================================================================

// SentenceReport is the change report of one sentence.
type SentenceReport struct {
	Index  int
	ID     int
	Text   string
	Report annotation.Report
}

// Changes commits the live sentence and reports every sentence whose
// annotation set differs from the one it was opened or last saved with.
func (d *Document) Changes() []SentenceReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commit()
	var out []SentenceReport
	for i, s := range d.sentences {
		r := s.Changes()
		if !r.HasChanges() {
			continue
		}
		out = append(out, SentenceReport{Index: i, ID: s.ID, Text: s.Text, Report: r})
	}
	return out
}

// MarkSaved commits the live sentence and makes the committed annotation
// sets the new baseline for change reports and ResetSentence.
func (d *Document) MarkSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commit()
	for _, s := range d.sentences {
		s.Original = slices.Clone(s.Entries)
	}
	d.issues = nil
}

// Verify reports the entities that do not fit the tokens of their
// sentence or overlap another live entity. Problems found when the file
// was read are reported even after the engine has repaired the live
// sentence.
func (d *Document) Verify() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commit()
	var errs []error
	for i, s := range d.sentences {
		err, ok := d.issues[i]
		if !ok {
			err = s.Check()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sentence %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Modified returns true if any sentence differs from its baseline.
func (d *Document) Modified() bool {
	return len(d.Changes()) > 0
}

// Classes returns the label classes saved with the document.
func (d *Document) Classes() []token.LabelClass {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]token.LabelClass(nil), d.classes...)
}

// SetClasses replaces the label classes saved with the document.
func (d *Document) SetClasses(classes []token.LabelClass) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.classes = append([]token.LabelClass(nil), classes...)
}

// Text returns the sentences joined by the separator.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	texts := make([]string, len(d.sentences))
	for i, s := range d.sentences {
		texts[i] = s.Text
	}
	return strings.Join(texts, d.separator)
}

// File commits the live sentence and returns the document in its persisted
// form.
func (d *Document) File() *annotation.File {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.commit()
	f := &annotation.File{
		Version: annotation.CurrentVersion,
		Session: d.Session.String(),
		Classes: append([]token.LabelClass(nil), d.classes...),
	}
	for _, s := range d.sentences {
		f.Annotations = append(f.Annotations, annotation.Row{
			ID:       s.ID,
			Text:     s.Text,
			Entities: annotation.Entities(s.Entries),
		})
	}
	return f
}

// Encode writes the document as an annotation file.
func (d *Document) Encode(w io.Writer) error {
	return annotation.Encode(w, d.File())
}

// Save writes the document as an annotation file at path and marks it
// saved.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	d.MarkSaved()
	return nil
}
