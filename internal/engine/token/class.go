package token

// LabelClass is an annotation class owned by an external registry.
// Name is the identity used to match classes across sessions.
type LabelClass struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Placeholder returns a name-only class for names missing from the registry.
func Placeholder(name string) *LabelClass {
	return &LabelClass{Name: name}
}

// IsPlaceholder returns true if the class carries only a name.
func (c *LabelClass) IsPlaceholder() bool {
	return c != nil && c.ID == 0 && c.Color == ""
}

// ClassName returns the class name, or "" for a nil class.
func ClassName(c *LabelClass) string {
	if c == nil {
		return ""
	}
	return c.Name
}
