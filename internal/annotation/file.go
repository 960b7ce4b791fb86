package annotation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// CurrentVersion is the schema version written by Encode. Files without a
// version field are version 1.
const CurrentVersion = 2

// File is the persisted annotation document.
type File struct {
	Version     int                `json:"version"`
	Session     string             `json:"session,omitempty"`
	TextHash    string             `json:"textHash,omitempty"`
	Classes     []token.LabelClass `json:"classes"`
	Annotations []Row              `json:"annotations"`
}

// Row is one sentence and its entities, stored as
// [paragraphId, text, {"entities": [...]}].
type Row struct {
	ID       int
	Text     string
	Entities []Entity
}

type rowBody struct {
	Entities []Entity `json:"entities"`
}

// MarshalJSON encodes the row as a tuple.
func (r Row) MarshalJSON() ([]byte, error) {
	entities := r.Entities
	if entities == nil {
		entities = []Entity{}
	}
	return json.Marshal([]any{r.ID, r.Text, rowBody{Entities: entities}})
}

// UnmarshalJSON decodes [paragraphId, text, {entities}] as well as the
// [text, {entities}] layout of plain-text imports, which has no id.
func (r *Row) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	var out Row
	switch len(parts) {
	case 3:
		if err := json.Unmarshal(parts[0], &out.ID); err != nil {
			return fmt.Errorf("%w: paragraph id: %v", ErrMalformedRow, err)
		}
		parts = parts[1:]
	case 2:
	default:
		return fmt.Errorf("%w: %d elements", ErrMalformedRow, len(parts))
	}

	if err := json.Unmarshal(parts[0], &out.Text); err != nil {
		return fmt.Errorf("%w: text: %v", ErrMalformedRow, err)
	}
	var body rowBody
	if !isNull(parts[1]) {
		if err := json.Unmarshal(parts[1], &body); err != nil {
			return fmt.Errorf("%w: entities: %v", ErrMalformedRow, err)
		}
	}
	out.Entities = body.Entities
	*r = out
	return nil
}

// UnmarshalJSON decodes a file. Plain-text imports store classes as an
// empty object, which decodes to no classes.
func (f *File) UnmarshalJSON(data []byte) error {
	var raw struct {
		Version     int             `json:"version"`
		Session     string          `json:"session"`
		TextHash    string          `json:"textHash"`
		Classes     json.RawMessage `json:"classes"`
		Annotations []Row           `json:"annotations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := File{
		Version:     raw.Version,
		Session:     raw.Session,
		TextHash:    raw.TextHash,
		Annotations: raw.Annotations,
	}
	if out.Version == 0 {
		out.Version = 1
	}
	if len(raw.Classes) > 0 && raw.Classes[0] == '[' {
		if err := json.Unmarshal(raw.Classes, &out.Classes); err != nil {
			return fmt.Errorf("classes: %w", err)
		}
	}
	*f = out
	return nil
}

// Texts returns the sentence texts in order.
func (f *File) Texts() []string {
	out := make([]string, len(f.Annotations))
	for i, r := range f.Annotations {
		out[i] = r.Text
	}
	return out
}

// Decode reads a file and checks its version and text fingerprint.
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode annotation file: %w", err)
	}
	if f.Version > CurrentVersion {
		return nil, fmt.Errorf("version %d: %w", f.Version, ErrUnsupportedVersion)
	}
	if err := f.Verify(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Encode writes f as indented JSON at CurrentVersion, refreshing the text
// fingerprint.
func Encode(w io.Writer, f *File) error {
	out := *f
	out.Version = CurrentVersion
	out.TextHash = Fingerprint(f.Texts())
	if out.Classes == nil {
		out.Classes = []token.LabelClass{}
	}
	if out.Annotations == nil {
		out.Annotations = []Row{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode annotation file: %w", err)
	}
	return nil
}
