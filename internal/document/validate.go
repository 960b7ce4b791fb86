package document

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/theSKAILab/TART/internal/annotation"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// CheckEntries reports the entries that cannot be replayed onto tokens
// unchanged. Every entry must start on a token start and end on a token
// end within the sentence. Entries that are not Rejected must not overlap
// each other; rejected entries live beside the tiling and may.
func CheckEntries(tokens []token.Token, entries []annotation.Entry) error {
	starts := make(map[int]bool, len(tokens))
	ends := make(map[int]bool, len(tokens))
	last := -1
	for _, t := range tokens {
		starts[t.Start] = true
		ends[t.End] = true
		last = t.End
	}

	var errs []error
	var live []annotation.Entry
	for _, e := range entries {
		switch {
		case e.Start > e.End:
			errs = append(errs, entityError(e, "reversed span"))
		case e.Start < 0 || e.End > last:
			errs = append(errs, entityError(e, fmt.Sprintf("past the sentence end at %d", last)))
		case !starts[e.Start] || !ends[e.End]:
			errs = append(errs, entityError(e, "not on token boundaries"))
		case !e.CurrentState.IsRejected():
			live = append(live, e)
		}
	}

	slices.SortStableFunc(live, func(a, b annotation.Entry) int {
		return cmp.Compare(a.Start, b.Start)
	})
	// reach is the entry reaching furthest right so far.
	var reach annotation.Entry
	for i, e := range live {
		if i > 0 && e.Start <= reach.End {
			errs = append(errs, entityError(e, fmt.Sprintf("overlaps %s [%d:%d]", reach.ClassName(), reach.Start, reach.End)))
		}
		if i == 0 || e.End > reach.End {
			reach = e
		}
	}
	return errors.Join(errs...)
}

func entityError(e annotation.Entry, msg string) error {
	return fmt.Errorf("%s [%d:%d]: %s: %w", e.ClassName(), e.Start, e.End, msg, ErrInvalidEntity)
}
