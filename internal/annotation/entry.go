package annotation

import (
	"cmp"
	"slices"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// Entry is the export record of one labeled block.
type Entry struct {
	Start        int                   `json:"start"`
	End          int                   `json:"end"`
	History      []token.HistoryRecord `json:"history"`
	CurrentState token.State           `json:"currentState"`
	LabelClass   *token.LabelClass     `json:"labelClass"`
	Reviewed     bool                  `json:"reviewed"`
}

// FromBlock projects a block onto its export record.
func FromBlock(b *token.Block) Entry {
	h := token.CloneHistory(b.History)
	if h == nil {
		h = []token.HistoryRecord{}
	}
	var class *token.LabelClass
	if b.Class != nil {
		c := *b.Class
		class = &c
	}
	return Entry{
		Start:        b.Start,
		End:          b.End,
		History:      h,
		CurrentState: b.CurrentState,
		LabelClass:   class,
		Reviewed:     b.Reviewed,
	}
}

// Export projects blocks onto export records sorted by start. Blocks with
// the same start keep their relative order, so the result is deterministic
// for a given input.
func Export(blocks []*token.Block) []Entry {
	out := make([]Entry, 0, len(blocks))
	for _, b := range blocks {
		if b == nil {
			continue
		}
		out = append(out, FromBlock(b))
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Start, b.Start)
	})
	return out
}

// ClassName returns the name of the entry's class.
func (e Entry) ClassName() string {
	return token.ClassName(e.LabelClass)
}

// DisplayName returns the display name of the latest history record.
func (e Entry) DisplayName() string {
	if r, ok := token.Latest(e.History); ok {
		return r.DisplayName
	}
	return ""
}

// Entity converts the entry to its Rich Entity Format tuple.
func (e Entry) Entity() Entity {
	return Entity{
		ClassName: e.ClassName(),
		Start:     e.Start,
		End:       e.End,
		History:   token.CloneHistory(e.History),
		State:     e.CurrentState,
		Reviewed:  e.Reviewed,
	}
}

// Entities converts entries to Rich Entity Format tuples.
func Entities(entries []Entry) []Entity {
	out := make([]Entity, len(entries))
	for i, e := range entries {
		out[i] = e.Entity()
	}
	return out
}

// Saved returns the entry as a saved block for replay. Its tokens are left
// for the partition to derive.
func (e Entry) Saved() *token.Block {
	var class *token.LabelClass
	if e.LabelClass != nil {
		c := *e.LabelClass
		class = &c
	}
	state := e.CurrentState
	if state == "" {
		state = token.StateCandidate
	}
	h := token.CloneHistory(e.History)
	if h == nil {
		h = []token.HistoryRecord{}
	}
	return &token.Block{
		Start:        e.Start,
		End:          e.End,
		Class:        class,
		CurrentState: state,
		Reviewed:     e.Reviewed,
		History:      h,
	}
}

// SavedEntries converts entries into saved blocks.
func SavedEntries(entries []Entry) []*token.Block {
	out := make([]*token.Block, len(entries))
	for i, e := range entries {
		out[i] = e.Saved()
	}
	return out
}
