package token

// HistoryRecord is one state transition in a block's review history.
type HistoryRecord struct {
	ClassName   string `json:"className"`
	State       State  `json:"state"`
	Timestamp   string `json:"timestamp,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// CloneHistory returns a copy of the history slice. A nil input stays nil.
func CloneHistory(h []HistoryRecord) []HistoryRecord {
	if h == nil {
		return nil
	}
	out := make([]HistoryRecord, len(h))
	copy(out, h)
	return out
}

// Latest returns the most recent record, if any.
func Latest(h []HistoryRecord) (HistoryRecord, bool) {
	if len(h) == 0 {
		return HistoryRecord{}, false
	}
	return h[len(h)-1], true
}
