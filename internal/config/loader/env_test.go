package loader

import (
	"strings"
	"testing"
)

// getByPath returns the value at a dot-separated path.
func getByPath(data map[string]any, path string) (any, bool) {
	current := data
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	v, ok := current[parts[len(parts)-1]]
	return v, ok
}

func fixedEnv(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestEnvLoader_Load(t *testing.T) {
	loader := NewEnvLoader("TART_")
	loader.environ = fixedEnv(
		"TART_LOG_LEVEL=debug",
		"TART_SEPARATOR=|",
		"TART_MAX_UNDO=25",
		"TART_CONFIG_FILE=/etc/tart.toml",
		"HOME=/root",
	)

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if val, ok := getByPath(config, "logging.level"); !ok || val != "debug" {
		t.Errorf("logging.level = %v, want 'debug'", val)
	}
	if val, ok := getByPath(config, "separator"); !ok || val != "|" {
		t.Errorf("separator = %v, want '|'", val)
	}
	if val, ok := getByPath(config, "history.maxEntries"); !ok || val != int64(25) {
		t.Errorf("history.maxEntries = %v (%T), want 25", val, val)
	}
	if _, ok := config["config"]; ok {
		t.Error("TART_CONFIG_FILE should not become a setting")
	}
	if _, ok := config["home"]; ok {
		t.Error("unprefixed variables should be ignored")
	}
}

func TestEnvLoader_LoadUnmapped(t *testing.T) {
	loader := NewEnvLoader("TART_")
	loader.environ = fixedEnv("TART_HISTORY_MAX_CHANGES=9", "TART_CLASSES_STORE=tags.db")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if val, ok := getByPath(config, "history.maxChanges"); !ok || val != int64(9) {
		t.Errorf("history.maxChanges = %v, want 9", val)
	}
	if val, ok := getByPath(config, "classes.store"); !ok || val != "tags.db" {
		t.Errorf("classes.store = %v, want 'tags.db'", val)
	}
}

func TestEnvLoader_RealEnvironment(t *testing.T) {
	t.Setenv("TART_ANNOTATOR", "carol")

	config, err := NewEnvLoader("TART_").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config["annotator"] != "carol" {
		t.Errorf("annotator = %v, want 'carol'", config["annotator"])
	}
}

func TestEnvLoader_AddMapping(t *testing.T) {
	loader := NewEnvLoader("TART_")
	loader.AddMapping("TART_WHO", "annotator")
	loader.AddMapping("TART_SECRET", "")
	loader.environ = fixedEnv("TART_WHO=dave", "TART_SECRET=x")

	config, _ := loader.Load()
	if config["annotator"] != "dave" {
		t.Errorf("annotator = %v, want 'dave'", config["annotator"])
	}
	if _, ok := config["secret"]; ok {
		t.Error("ignored variable leaked into config")
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader("TART_")

	tests := []struct {
		env  string
		want string
	}{
		{"TART_ANNOTATOR", "annotator"},
		{"TART_LOGGING_LEVEL", "logging.level"},
		{"TART_HISTORY_MAX_ENTRIES", "history.maxEntries"},
		{"TART_CLASSES_FILE", "classes.file"},
	}

	for _, tt := range tests {
		if got := loader.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"Off", false},
		{"42", int64(42)},
		{"1", int64(1)},
		{"3.5", "3.5"},
		{"word", "word"},
	}

	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}

	list, ok := parseValue(`["a","b"]`).([]any)
	if !ok || len(list) != 2 {
		t.Errorf("parseValue(json) = %v", list)
	}
}
