package classes

import (
	"fmt"

	"github.com/theSKAILab/TART/internal/engine/token"
)

// Palette lists the colours assigned to new classes, in order.
var Palette = []string{
	"red-11", "blue-11", "light-green-11", "deep-orange-11", "pink-11",
	"light-blue-11", "lime-11", "brown-11", "purple-11", "cyan-11",
	"yellow-11", "grey-11", "deep-purple-11", "teal-11", "amber-11",
	"blue-grey-11", "indigo-11", "green-11", "orange-11",
}

// Registry is the ordered set of label classes of a session.
type Registry struct {
	classes []*token.LabelClass
	current *token.LabelClass
}

// NewRegistry creates a registry holding classes. The first class becomes
// current.
func NewRegistry(classes ...token.LabelClass) (*Registry, error) {
	r := &Registry{}
	if err := r.Load(classes); err != nil {
		return nil, err
	}
	return r, nil
}

// Load replaces the registry contents. Every class needs a name and a
// colour, and names and ids must be unique. On error the registry is unchanged.
func (r *Registry) Load(classes []token.LabelClass) error {
	seen := make(map[string]bool, len(classes))
	ids := make(map[int]string, len(classes))
	loaded := make([]*token.LabelClass, 0, len(classes))
	for i, c := range classes {
		if c.Name == "" || c.Color == "" {
			return fmt.Errorf("class %d: missing name or colour: %w", i, ErrInvalidClass)
		}
		if seen[c.Name] {
			return fmt.Errorf("class %q: duplicate name: %w", c.Name, ErrInvalidClass)
		}
		if other, ok := ids[c.ID]; ok {
			return fmt.Errorf("class %q: id %d already used by %q: %w", c.Name, c.ID, other, ErrInvalidClass)
		}
		seen[c.Name] = true
		ids[c.ID] = c.Name
		loaded = append(loaded, &c)
	}

	r.classes = loaded
	r.current = nil
	if len(loaded) > 0 {
		r.current = loaded[0]
	}
	return nil
}

// Lookup returns the class with the given name.
func (r *Registry) Lookup(name string) (*token.LabelClass, bool) {
	for _, c := range r.classes {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Resolve returns the class with the given name, or a name-only
// placeholder when the registry does not know it.
func (r *Registry) Resolve(name string) *token.LabelClass {
	if c, ok := r.Lookup(name); ok {
		return c
	}
	return token.Placeholder(name)
}

// Classes returns copies of the classes in registry order.
func (r *Registry) Classes() []token.LabelClass {
	out := make([]token.LabelClass, len(r.classes))
	for i, c := range r.classes {
		out[i] = *c
	}
	return out
}

// Len returns the number of classes.
func (r *Registry) Len() int {
	return len(r.classes)
}

// Add creates a class named name with the next free id and returns it.
// If the name is taken the existing class is returned and added is false.
// The first class added becomes current.
func (r *Registry) Add(name string) (class *token.LabelClass, added bool, err error) {
	if name == "" {
		return nil, false, fmt.Errorf("empty class name: %w", ErrInvalidClass)
	}
	if c, ok := r.Lookup(name); ok {
		return c, false, nil
	}

	maxID := r.maxID()
	c := &token.LabelClass{
		ID:    maxID + 1,
		Name:  name,
		Color: Palette[maxID%len(Palette)],
	}
	r.classes = append(r.classes, c)
	if len(r.classes) == 1 {
		r.current = c
	}
	return c, true, nil
}

// Remove deletes the class with the given id. Removing the current class
// makes the first remaining class current.
func (r *Registry) Remove(id int) bool {
	for i, c := range r.classes {
		if c.ID == id {
			r.removeAt(i)
			return true
		}
	}
	return false
}

// RemoveByName deletes the class named name. Removing the current class
// makes the first remaining class current.
func (r *Registry) RemoveByName(name string) bool {
	for i, c := range r.classes {
		if c.Name == name {
			r.removeAt(i)
			return true
		}
	}
	return false
}

func (r *Registry) removeAt(i int) {
	c := r.classes[i]
	r.classes = append(r.classes[:i:i], r.classes[i+1:]...)
	if r.current == c {
		r.current = nil
		if len(r.classes) > 0 {
			r.current = r.classes[0]
		}
	}
}

func (r *Registry) maxID() int {
	maxID := 0
	for _, c := range r.classes {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID
}

func (r *Registry) hasID(id int) bool {
	for _, c := range r.classes {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Current returns the class selected for labeling, or nil.
func (r *Registry) Current() *token.LabelClass {
	return r.current
}

// SetCurrent selects the class at index.
func (r *Registry) SetCurrent(index int) error {
	if index < 0 || index >= len(r.classes) {
		return fmt.Errorf("class index %d: %w", index, ErrUnknownClass)
	}
	r.current = r.classes[index]
	return nil
}

// SetCurrentByName selects the class named name.
func (r *Registry) SetCurrentByName(name string) error {
	c, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("class %q: %w", name, ErrUnknownClass)
	}
	r.current = c
	return nil
}

// Merge adds the classes whose names are not yet registered, keeping their
// colours. A class keeps its id unless the id is zero or already taken, in
// which case it gets the next free id. It returns the number of classes
// added.
func (r *Registry) Merge(classes []token.LabelClass) int {
	n := 0
	for _, c := range classes {
		if c.Name == "" {
			continue
		}
		if _, ok := r.Lookup(c.Name); ok {
			continue
		}
		if c.ID <= 0 || r.hasID(c.ID) {
			c.ID = r.maxID() + 1
		}
		if c.Color == "" {
			c.Color = Palette[len(r.classes)%len(Palette)]
		}
		r.classes = append(r.classes, &c)
		n++
	}
	if r.current == nil && len(r.classes) > 0 {
		r.current = r.classes[0]
	}
	return n
}
