package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/theSKAILab/TART/internal/config/loader"
)

// FileName is the name of user and project configuration files.
const FileName = "tart.toml"

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TART_"

// Config holds all TART settings.
type Config struct {
	// Separator splits plain text into sentences.
	Separator string `toml:"separator"`

	// Precision is the tokenizer precision, "word" or "char".
	Precision string `toml:"precision"`

	// Annotator is the display name written into history records.
	Annotator string `toml:"annotator"`

	Classes ClassesConfig `toml:"classes"`
	Logging LoggingConfig `toml:"logging"`
	History HistoryConfig `toml:"history"`

	// Sources lists the files that were loaded, lowest priority first.
	Sources []string `toml:"-"`
}

// ClassesConfig locates the label class sources.
type ClassesConfig struct {
	// File is a YAML class file imported at startup.
	File string `toml:"file"`

	// Store is the SQLite database classes persist in.
	Store string `toml:"store"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// HistoryConfig bounds the per-sentence undo history and change log.
type HistoryConfig struct {
	MaxEntries int `toml:"maxEntries"`
	MaxChanges int `toml:"maxChanges"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Separator: "\n",
		Precision: "word",
		Classes: ClassesConfig{
			Store: filepath.Join(defaultDataDir(), "classes.db"),
		},
		Logging: LoggingConfig{Level: "info"},
		History: HistoryConfig{MaxEntries: 1000, MaxChanges: 1000},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs         loader.FileSystem
	userDir    string
	projectDir string
	file       string
	environ    func() []string
}

// WithFS sets the file system configuration files are read from.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithUserConfigDir sets the user configuration directory.
func WithUserConfigDir(dir string) Option {
	return func(o *options) {
		o.userDir = dir
	}
}

// WithProjectConfigDir sets the project configuration directory.
func WithProjectConfigDir(dir string) Option {
	return func(o *options) {
		o.projectDir = dir
	}
}

// WithFile adds an explicit configuration file. Unlike the user and
// project files it must exist.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithEnviron sets the environment overrides are read from.
func WithEnviron(environ func() []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// Load reads every configuration source, merges them and validates the
// result.
func Load(opts ...Option) (*Config, error) {
	o := options{
		fs:         loader.DefaultFS(),
		userDir:    defaultUserConfigDir(),
		projectDir: ".",
		environ:    os.Environ,
	}
	for _, opt := range opts {
		opt(&o)
	}

	merged, err := toMap(Default())
	if err != nil {
		return nil, err
	}

	var sources []string
	for _, dir := range []string{o.userDir, o.projectDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, FileName)
		m, err := loader.NewTOMLLoaderWithFS(o.fs, path).Load()
		if err != nil {
			return nil, err
		}
		if m != nil {
			merged = loader.DeepMerge(merged, m)
			sources = append(sources, path)
		}
	}

	if o.file != "" {
		if _, err := o.fs.Stat(o.file); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", o.file, ErrFileNotFound)
		}
		m, err := loader.NewTOMLLoaderWithFS(o.fs, o.file).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
		sources = append(sources, o.file)
	}

	env, err := loader.NewEnvLoaderWithEnviron(EnvPrefix, o.environ).Load()
	if err != nil {
		return nil, err
	}
	merged = loader.DeepMerge(merged, env)

	cfg, err := fromMap(merged)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// toMap converts settings into a configuration map.
func toMap(cfg *Config) (map[string]any, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return m, nil
}

// fromMap decodes a merged configuration map.
func fromMap(m map[string]any) (*Config, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("merging settings: %w", err)
	}
	var cfg Config
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, &ValidationError{Path: strings.Join(derr.Key(), "."), Value: "", Message: derr.Error()}
		}
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &cfg, nil
}

// LogLevels lists the accepted logging levels.
var LogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks every setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Separator == "" {
		errs = append(errs, &ValidationError{Path: "separator", Value: `""`, Message: "must not be empty"})
	}
	if p := strings.ToLower(c.Precision); p != "word" && p != "char" {
		errs = append(errs, &ValidationError{Path: "precision", Value: c.Precision, Message: `must be "word" or "char"`})
	}
	if !slices.Contains(LogLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, &ValidationError{Path: "logging.level", Value: c.Logging.Level, Message: "unknown level"})
	}
	if c.History.MaxEntries <= 0 {
		errs = append(errs, &ValidationError{Path: "history.maxEntries", Value: c.History.MaxEntries, Message: "must be positive"})
	}
	if c.History.MaxChanges <= 0 {
		errs = append(errs, &ValidationError{Path: "history.maxChanges", Value: c.History.MaxChanges, Message: "must be positive"})
	}
	return errors.Join(errs...)
}

// defaultUserConfigDir returns the default user config directory.
func defaultUserConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tart")
	}
	return ""
}

// defaultDataDir returns the directory the class store lives in.
func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "tart")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "tart")
	}
	return "."
}
