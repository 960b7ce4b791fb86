package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// Entity is one labeled span in Rich Entity Format:
//
//	[className, start, end, [[className, state, timestamp, displayName], ...]]
//
// The current state of the span is the state of its last history record.
// When State disagrees with that record, or the span has been reviewed, a
// trailing object {"state": ..., "reviewed": ...} is appended to the tuple.
// Readers that only look at the first four elements ignore it.
type Entity struct {
	ClassName string
	Start     int
	End       int
	History   []token.HistoryRecord
	State     token.State
	Reviewed  bool
}

type entityMeta struct {
	State    token.State `json:"state,omitempty"`
	Reviewed bool        `json:"reviewed,omitempty"`
}

// historyState returns the state implied by the history alone.
func historyState(h []token.HistoryRecord) token.State {
	if r, ok := token.Latest(h); ok && r.State != "" {
		return r.State
	}
	return token.StateCandidate
}

// Label returns the class name the span resolves to: the class of the last
// history record, falling back to the entity's own class name.
func (e Entity) Label() string {
	if r, ok := token.Latest(e.History); ok && r.ClassName != "" {
		return r.ClassName
	}
	return e.ClassName
}

// DisplayName returns the display name of the last history record.
func (e Entity) DisplayName() string {
	if r, ok := token.Latest(e.History); ok {
		return r.DisplayName
	}
	return ""
}

// Saved returns the entity as a saved block for replay. The block carries
// its range, a placeholder class, state, review flag and history; its
// tokens are left for the partition to derive.
func (e Entity) Saved() *token.Block {
	state := e.State
	if state == "" {
		state = historyState(e.History)
	}
	h := token.CloneHistory(e.History)
	if h == nil {
		h = []token.HistoryRecord{}
	}
	return &token.Block{
		Start:        e.Start,
		End:          e.End,
		Class:        token.Placeholder(e.Label()),
		CurrentState: state,
		Reviewed:     e.Reviewed,
		History:      h,
	}
}

// SavedBlocks converts entities into saved blocks.
func SavedBlocks(entities []Entity) []*token.Block {
	out := make([]*token.Block, len(entities))
	for i, e := range entities {
		out[i] = e.Saved()
	}
	return out
}

// MarshalJSON encodes the entity as a tuple.
func (e Entity) MarshalJSON() ([]byte, error) {
	history := make([]json.RawMessage, 0, len(e.History))
	for _, r := range e.History {
		raw, err := marshalRecord(r)
		if err != nil {
			return nil, err
		}
		history = append(history, raw)
	}

	tuple := []any{e.ClassName, e.Start, e.End, history}
	state := e.State
	if state == "" {
		state = historyState(e.History)
	}
	if state != historyState(e.History) || e.Reviewed {
		meta := entityMeta{Reviewed: e.Reviewed}
		if state != historyState(e.History) {
			meta.State = state
		}
		tuple = append(tuple, meta)
	}
	return json.Marshal(tuple)
}

// UnmarshalJSON decodes an entity tuple. The history element is optional.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEntity, err)
	}
	if len(parts) < 3 {
		return fmt.Errorf("%w: %d elements, want at least 3", ErrMalformedEntity, len(parts))
	}

	var out Entity
	if err := json.Unmarshal(parts[0], &out.ClassName); err != nil {
		return fmt.Errorf("%w: class name: %v", ErrMalformedEntity, err)
	}
	if err := json.Unmarshal(parts[1], &out.Start); err != nil {
		return fmt.Errorf("%w: start: %v", ErrMalformedEntity, err)
	}
	if err := json.Unmarshal(parts[2], &out.End); err != nil {
		return fmt.Errorf("%w: end: %v", ErrMalformedEntity, err)
	}

	if len(parts) > 3 && !isNull(parts[3]) {
		var records []json.RawMessage
		if err := json.Unmarshal(parts[3], &records); err != nil {
			return fmt.Errorf("%w: history: %v", ErrMalformedEntity, err)
		}
		out.History = make([]token.HistoryRecord, 0, len(records))
		for i, raw := range records {
			r, err := unmarshalRecord(raw)
			if err != nil {
				return fmt.Errorf("%w: history record %d: %v", ErrMalformedEntity, i, err)
			}
			out.History = append(out.History, r)
		}
	}

	out.State = historyState(out.History)
	if len(parts) > 4 && !isNull(parts[4]) {
		var meta entityMeta
		if err := json.Unmarshal(parts[4], &meta); err != nil {
			return fmt.Errorf("%w: metadata: %v", ErrMalformedEntity, err)
		}
		if meta.State != "" {
			out.State = meta.State
		}
		out.Reviewed = meta.Reviewed
	}

	*e = out
	return nil
}

func marshalRecord(r token.HistoryRecord) (json.RawMessage, error) {
	return json.Marshal([]string{r.ClassName, string(r.State), r.Timestamp, r.DisplayName})
}

// unmarshalRecord decodes [className, state, timestamp, displayName]. The
// timestamp may be a string or a number; trailing elements may be missing.
func unmarshalRecord(data []byte) (token.HistoryRecord, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return token.HistoryRecord{}, err
	}
	if len(parts) < 2 {
		return token.HistoryRecord{}, fmt.Errorf("%d elements, want at least 2", len(parts))
	}

	var r token.HistoryRecord
	if err := json.Unmarshal(parts[0], &r.ClassName); err != nil {
		return r, fmt.Errorf("class name: %v", err)
	}
	var state string
	if err := json.Unmarshal(parts[1], &state); err != nil {
		return r, fmt.Errorf("state: %v", err)
	}
	r.State = token.State(state)

	if len(parts) > 2 {
		ts, err := scalarString(parts[2])
		if err != nil {
			return r, fmt.Errorf("timestamp: %v", err)
		}
		r.Timestamp = ts
	}
	if len(parts) > 3 && !isNull(parts[3]) {
		if err := json.Unmarshal(parts[3], &r.DisplayName); err != nil {
			return r, fmt.Errorf("display name: %v", err)
		}
	}
	return r, nil
}

// scalarString renders a JSON string, number or null as a string.
func scalarString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
