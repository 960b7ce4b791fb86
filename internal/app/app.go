// Package app wires configuration, the label-class registry and its store,
// and annotation documents into the operations the tart command runs.
package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/theSKAILab/TART/internal/classes"
	"github.com/theSKAILab/TART/internal/config"
)

// Application is the central coordinator for TART components.
type Application struct {
	mu sync.Mutex

	config *config.Config
	logger *Logger

	registry *classes.Registry
	store    *classes.Store

	documents *DocumentManager

	closed bool
	opts   Options
}

// Options configures the application.
type Options struct {
	// Config holds the settings. Defaults are used when nil.
	Config *config.Config

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Clock stamps history records and log lines. Defaults to time.Now.
	Clock func() time.Time

	// ReadOnly opens documents with read-only engines.
	ReadOnly bool
}

// New creates an Application and initializes its components in order. On
// failure every component already started is shut down again.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	app := &Application{
		config:    opts.Config,
		documents: NewDocumentManager(),
		opts:      opts,
	}

	if err := newBootstrapper(app).bootstrap(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Config returns the settings the application runs with.
func (app *Application) Config() *config.Config {
	return app.config
}

// Documents returns the open documents.
func (app *Application) Documents() *DocumentManager {
	return app.documents
}

// Close shuts the class store down. Documents that were not saved are
// dropped.
func (app *Application) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil
	}
	app.closed = true

	var errs []error
	for _, d := range app.documents.All() {
		if d.Modified() {
			app.Logger().WithField("document", d.Name).Warn("closing with unsaved changes")
		}
	}
	app.documents.CloseAll()

	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logComponentError("store", err)
			errs = append(errs, NewOperationError("close", "class store", err))
		}
		app.store = nil
	}
	app.Logger().Debug("application closed")
	return errors.Join(errs...)
}

// checkOpen returns ErrClosed after Close. The caller holds app.mu.
func (app *Application) checkOpen() error {
	if app.closed {
		return ErrClosed
	}
	return nil
}
