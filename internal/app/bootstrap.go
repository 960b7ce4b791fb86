package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/theSKAILab/TART/internal/classes"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// memoryStore is the SQLite name of a throwaway database.
const memoryStore = ":memory:"

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{
		app:       app,
		initOrder: make([]string, 0, 3),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	// 1. Logger
	b.initLogger()

	// 2. Class store
	if err := b.initStore(ctx); err != nil {
		b.cleanup()
		return err
	}

	// 3. Class registry
	if err := b.initClasses(ctx); err != nil {
		b.cleanup()
		return err
	}

	b.app.Logger().WithFields(map[string]any{
		"classes": b.app.registry.Len(),
		"sources": len(b.app.config.Sources),
	}).Debug("application ready")
	return nil
}

// initLogger creates the application logger at the configured level.
func (b *bootstrapper) initLogger() {
	cfg := DefaultLoggerConfig()
	cfg.Level = ParseLogLevel(b.app.config.Logging.Level)
	cfg.Clock = b.app.opts.Clock
	if b.app.opts.LogOutput != nil {
		cfg.Output = b.app.opts.LogOutput
	}
	b.app.logger = NewLogger(cfg)
	b.initOrder = append(b.initOrder, "logger")
}

// initStore opens the SQLite class store. An empty path runs without one.
func (b *bootstrapper) initStore(ctx context.Context) error {
	path := b.app.config.Classes.Store
	if path == "" {
		return nil
	}
	if path != memoryStore {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &InitError{Component: "class store", Err: err}
		}
	}

	store, err := classes.OpenStore(ctx, path)
	if err != nil {
		return &InitError{Component: "class store", Err: err}
	}
	b.app.store = store
	b.initOrder = append(b.initOrder, "store")
	b.app.Logger().WithComponent("store").Debug("opened %s", path)
	return nil
}

// initClasses fills the registry from the store, then merges the classes
// of the configured YAML file.
func (b *bootstrapper) initClasses(ctx context.Context) error {
	registry, err := classes.NewRegistry()
	if err != nil {
		return &InitError{Component: "classes", Err: err}
	}

	if b.app.store != nil {
		loaded, err := b.app.store.Load(ctx)
		if err != nil {
			return &InitError{Component: "classes", Err: err}
		}
		if err := registry.Load(loaded); err != nil {
			return &InitError{Component: "classes", Err: err}
		}
	}

	if file := b.app.config.Classes.File; file != "" {
		imported, err := readClassFile(file)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			b.app.Logger().WithComponent("classes").Warn("class file %s not found", file)
		case err != nil:
			return &InitError{Component: "classes", Err: err}
		default:
			if n := registry.Merge(imported); n > 0 {
				b.app.Logger().WithComponent("classes").Info("imported %d classes from %s", n, file)
			}
		}
	}

	b.app.registry = registry
	b.initOrder = append(b.initOrder, "classes")
	return nil
}

// cleanup releases components in reverse initialization order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "store":
			if b.app.store != nil {
				if err := b.app.store.Close(); err != nil {
					b.app.logComponentError("store", err)
				}
				b.app.store = nil
			}
		case "classes":
			b.app.registry = nil
		}
	}
	b.initOrder = b.initOrder[:0]
}

// readClassFile decodes a YAML class file.
func readClassFile(path string) ([]token.LabelClass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	list, err := classes.DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}
