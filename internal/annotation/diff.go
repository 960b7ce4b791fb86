package annotation

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind categorizes a line of a change report.
type ChangeKind int

const (
	// Unchanged entries appear in both sets.
	Unchanged ChangeKind = iota
	// Added entries appear only in the newer set.
	Added
	// Removed entries appear only in the older set.
	Removed
)

// String returns the diff marker of the kind.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "+"
	case Removed:
		return "-"
	default:
		return " "
	}
}

// Change is one entry line of a change report.
type Change struct {
	Kind ChangeKind
	Line string
}

// Report lists the differences between two annotation sets of a sentence.
type Report struct {
	Changes []Change
}

// FormatEntry renders an entry as a single report line.
func FormatEntry(e Entry) string {
	line := fmt.Sprintf("[%d:%d] %s %s", e.Start, e.End, e.ClassName(), e.CurrentState)
	if e.Reviewed {
		line += " reviewed"
	}
	return line
}

// Compare diffs two annotation sets line by line, one line per entry.
func Compare(before, after []Entry) Report {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(render(before), render(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var r Report
	for _, d := range diffs {
		kind := Unchanged
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = Added
		case diffmatchpatch.DiffDelete:
			kind = Removed
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			if line == "" {
				continue
			}
			r.Changes = append(r.Changes, Change{Kind: kind, Line: line})
		}
	}
	return r
}

func render(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(FormatEntry(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// HasChanges returns true if any entry was added or removed.
func (r Report) HasChanges() bool {
	for _, c := range r.Changes {
		if c.Kind != Unchanged {
			return true
		}
	}
	return false
}

// Count returns the number of lines of the given kind.
func (r Report) Count(kind ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// String renders the report with one marked line per entry.
func (r Report) String() string {
	var sb strings.Builder
	for _, c := range r.Changes {
		sb.WriteString(c.Kind.String())
		sb.WriteByte(' ')
		sb.WriteString(c.Line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
