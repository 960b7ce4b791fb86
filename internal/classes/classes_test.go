package classes

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theSKAILab/TART/internal/engine/token"
)

func sampleClasses() []token.LabelClass {
	return []token.LabelClass{
		{ID: 1, Name: "PERSON", Color: "red-11"},
		{ID: 4, Name: "ORG", Color: "blue-11"},
	}
}

// ============================================================================
// Registry
// ============================================================================

func TestRegistryLoad(t *testing.T) {
	r, err := NewRegistry(sampleClasses()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if r.Current() == nil || r.Current().Name != "PERSON" {
		t.Errorf("Current() = %v, want PERSON", r.Current())
	}
	if c, ok := r.Lookup("ORG"); !ok || c.ID != 4 {
		t.Errorf("Lookup(ORG) = %v, %v", c, ok)
	}
	if _, ok := r.Lookup("LOC"); ok {
		t.Error("Lookup(LOC) should fail")
	}
}

func TestRegistryLoadInvalid(t *testing.T) {
	tests := map[string][]token.LabelClass{
		"missing name":   {{ID: 1, Color: "red-11"}},
		"missing colour": {{ID: 1, Name: "A"}},
		"duplicate name": {{ID: 1, Name: "A", Color: "red-11"}, {ID: 2, Name: "A", Color: "blue-11"}},
		"duplicate id":   {{ID: 1, Name: "A", Color: "red-11"}, {ID: 1, Name: "B", Color: "blue-11"}},
	}
	for name, classes := range tests {
		t.Run(name, func(t *testing.T) {
			r, _ := NewRegistry(sampleClasses()...)
			err := r.Load(classes)
			if !errors.Is(err, ErrInvalidClass) {
				t.Fatalf("err = %v, want ErrInvalidClass", err)
			}
			if r.Len() != 2 {
				t.Error("failed load changed the registry")
			}
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)
	if c := r.Resolve("PERSON"); c.IsPlaceholder() {
		t.Error("known class resolved to placeholder")
	}
	if c := r.Resolve("CITY"); !c.IsPlaceholder() || c.Name != "CITY" {
		t.Errorf("Resolve(CITY) = %+v", c)
	}
}

func TestRegistryAdd(t *testing.T) {
	r := &Registry{}

	first, added, err := r.Add("PERSON")
	if err != nil || !added {
		t.Fatalf("Add = %v, %v, %v", first, added, err)
	}
	if first.ID != 1 || first.Color != Palette[0] {
		t.Errorf("first class = %+v", first)
	}
	if r.Current() != first {
		t.Error("first class should become current")
	}

	second, _, _ := r.Add("ORG")
	if second.ID != 2 || second.Color != Palette[1] {
		t.Errorf("second class = %+v", second)
	}
	if r.Current() != first {
		t.Error("adding should not change the current class")
	}

	again, added, _ := r.Add("PERSON")
	if added || again != first || r.Len() != 2 {
		t.Error("duplicate name should return the existing class")
	}

	if _, _, err := r.Add(""); !errors.Is(err, ErrInvalidClass) {
		t.Errorf("Add(\"\") err = %v", err)
	}
}

func TestRegistryAddUsesMaxID(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)
	c, _, _ := r.Add("LOC")
	if c.ID != 5 {
		t.Errorf("ID = %d, want 5", c.ID)
	}
	if c.Color != Palette[4] {
		t.Errorf("Color = %q, want %q", c.Color, Palette[4])
	}
}

func TestRegistryPaletteWraps(t *testing.T) {
	r, _ := NewRegistry(token.LabelClass{ID: len(Palette), Name: "LAST", Color: "x"})
	c, _, _ := r.Add("NEXT")
	if c.Color != Palette[0] {
		t.Errorf("Color = %q, want palette to wrap", c.Color)
	}
}

func TestRegistryRemove(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)

	if r.Remove(99) {
		t.Error("Remove of unknown id should report false")
	}
	if !r.Remove(1) {
		t.Fatal("Remove(1) failed")
	}
	if r.Current() == nil || r.Current().Name != "ORG" {
		t.Errorf("Current() = %v, want ORG", r.Current())
	}
	r.Remove(4)
	if r.Current() != nil || r.Len() != 0 {
		t.Error("empty registry should have no current class")
	}
}

func TestRegistryRemoveKeepsCurrent(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)
	if err := r.SetCurrent(1); err != nil {
		t.Fatal(err)
	}
	r.Remove(1)
	if r.Current().Name != "ORG" {
		t.Errorf("Current() = %v", r.Current())
	}
}

func TestRegistrySetCurrent(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)
	if err := r.SetCurrent(5); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("SetCurrent(5) err = %v", err)
	}
	if err := r.SetCurrentByName("ORG"); err != nil || r.Current().Name != "ORG" {
		t.Errorf("SetCurrentByName(ORG) = %v, current %v", err, r.Current())
	}
	if err := r.SetCurrentByName("NONE"); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("SetCurrentByName(NONE) err = %v", err)
	}
}

func TestRegistryClassesAreCopies(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)
	cs := r.Classes()
	cs[0].Name = "CHANGED"
	if _, ok := r.Lookup("PERSON"); !ok {
		t.Error("Classes() exposes registry internals")
	}
}

func TestRegistryMerge(t *testing.T) {
	r := &Registry{}
	n := r.Merge([]token.LabelClass{
		{ID: 3, Name: "PERSON", Color: "teal-11"},
		{ID: 7, Name: "ORG"},
		{Name: ""},
	})
	if n != 2 {
		t.Fatalf("Merge added %d, want 2", n)
	}
	if c, _ := r.Lookup("PERSON"); c.ID != 3 || c.Color != "teal-11" {
		t.Errorf("PERSON = %+v", c)
	}
	if c, _ := r.Lookup("ORG"); c.Color == "" {
		t.Error("merged class without colour should get one")
	}
	if r.Current() == nil {
		t.Error("merge into empty registry should set current")
	}
	if r.Merge(sampleClasses()) != 0 {
		t.Error("known names should not be merged again")
	}
}

func TestRegistryMergeReassignsTakenIDs(t *testing.T) {
	r, _ := NewRegistry(token.LabelClass{ID: 1, Name: "PERSON", Color: "red-11"})
	n := r.Merge([]token.LabelClass{
		{ID: 1, Name: "ORG", Color: "blue-11"},
		{Name: "LOC", Color: "teal-11"},
		{ID: 9, Name: "MISC", Color: "lime-11"},
	})
	if n != 3 {
		t.Fatalf("Merge added %d, want 3", n)
	}

	want := map[string]int{"PERSON": 1, "ORG": 2, "LOC": 3, "MISC": 9}
	for name, id := range want {
		if c, ok := r.Lookup(name); !ok || c.ID != id {
			t.Errorf("Lookup(%s) = %+v, want id %d", name, c, id)
		}
	}

	org, _ := r.Lookup("ORG")
	if !r.Remove(org.ID) {
		t.Fatal("Remove(ORG) failed")
	}
	if _, ok := r.Lookup("PERSON"); !ok {
		t.Error("removing ORG deleted PERSON")
	}
	if _, ok := r.Lookup("ORG"); ok {
		t.Error("ORG still registered")
	}
}

func TestRegistryRemoveByName(t *testing.T) {
	r, _ := NewRegistry(sampleClasses()...)

	if r.RemoveByName("LOC") {
		t.Error("RemoveByName(LOC) should fail")
	}
	if !r.RemoveByName("PERSON") {
		t.Fatal("RemoveByName(PERSON) failed")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if c := r.Current(); c == nil || c.Name != "ORG" {
		t.Errorf("Current() = %v, want ORG", c)
	}
}

// ============================================================================
// YAML
// ============================================================================

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, sampleClasses()); err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	if !strings.Contains(buf.String(), "name: PERSON") {
		t.Errorf("unexpected YAML:\n%s", buf.String())
	}

	got, err := DecodeYAML(&buf)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if len(got) != 2 || got[1] != sampleClasses()[1] {
		t.Errorf("DecodeYAML = %+v", got)
	}
}

func TestDecodeYAML(t *testing.T) {
	in := `
classes:
  - id: 2
    name: LOC
    color: lime-11
`
	got, err := DecodeYAML(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "LOC" || got[0].ID != 2 {
		t.Errorf("DecodeYAML = %+v", got)
	}

	if got, err := DecodeYAML(strings.NewReader("")); err != nil || got != nil {
		t.Errorf("empty input = %v, %v", got, err)
	}
	if _, err := DecodeYAML(strings.NewReader("classes: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// ============================================================================
// SQLite store
// ============================================================================

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "classes.db")

	s, err := OpenStore(ctx, path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := s.Save(ctx, sampleClasses()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = OpenStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0] != sampleClasses()[0] || got[1] != sampleClasses()[1] {
		t.Errorf("Load = %+v", got)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Save(ctx, sampleClasses()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, sampleClasses()[1:]); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load(ctx)
	if len(got) != 1 || got[0].Name != "ORG" {
		t.Errorf("Load = %+v", got)
	}
}

func TestStoreRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Save(ctx, sampleClasses()); err != nil {
		t.Fatal(err)
	}
	dup := append(sampleClasses(), token.LabelClass{ID: 9, Name: "ORG", Color: "x"})
	if err := s.Save(ctx, dup); err == nil {
		t.Fatal("expected unique constraint error")
	}
	got, _ := s.Load(ctx)
	if len(got) != 2 {
		t.Errorf("failed save should roll back, got %+v", got)
	}
}

func TestStoreRejectsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	dup := append(sampleClasses(), token.LabelClass{ID: 4, Name: "LOC", Color: "teal-11"})
	if err := s.Save(ctx, dup); err == nil {
		t.Fatal("expected unique id constraint error")
	}
}

func TestStoreEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Errorf("Load on empty store = %v, %v", got, err)
	}
}
