// Package app implements the application layer for quire.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/engine/hooks"
)

const serviceName = "Build"

// Mode names what a run was started for.
type Mode string

const (
	// ModeBuild is a single build.
	ModeBuild Mode = "build"
	// ModeWatch is a build followed by incremental rebuilds.
	ModeWatch Mode = "watch"
	// ModeInspect opens a session only to query it.
	ModeInspect Mode = "inspect"
)

// Hooks are the extension points of the build driver.
type Hooks struct {
	// Config may rewrite the assembled configuration before a session opens.
	Config *hooks.Waterfall[*domain.Config, Mode]
	// BeforeRun fires when a build starts, with its session.
	BeforeRun *hooks.Parallel[*Session]
	// AfterRun fires with the result of a build that got past loading.
	AfterRun *hooks.Parallel[*Result]
}

func newHooks() *Hooks {
	return &Hooks{
		Config:    hooks.NewWaterfall[*domain.Config, Mode](serviceName, "Config"),
		BeforeRun: hooks.NewParallel[*Session](serviceName, "BeforeRun"),
		AfterRun:  hooks.NewParallel[*Result](serviceName, "AfterRun"),
	}
}

// App represents the main application logic.
type App struct {
	logger    ports.Logger
	files     ports.FileContextFactory
	hasher    ports.Hasher
	metrics   ports.Metrics
	telemetry ports.Telemetry
	openStore ports.StateStoreOpener
	watcher   ports.Watcher

	hooks   hooks.Set[Hooks]
	plugins []func(*Session)
}

// New creates a new App instance.
func New(
	log ports.Logger,
	files ports.FileContextFactory,
	hasher ports.Hasher,
	metrics ports.Metrics,
	telemetry ports.Telemetry,
	openStore ports.StateStoreOpener,
	watcher ports.Watcher,
) *App {
	return &App{
		logger:    log,
		files:     files,
		hasher:    hasher,
		metrics:   metrics,
		telemetry: telemetry,
		openStore: openStore,
		watcher:   watcher,
	}
}

// Hooks returns the driver's extension points.
func (a *App) Hooks() *Hooks {
	return a.hooks.Get(newHooks)
}

// Use registers fn to run on every new session before anything is loaded.
// Plugins tap the session's service hooks from here.
func (a *App) Use(fn func(*Session)) *App {
	a.plugins = append(a.plugins, fn)
	return a
}

// Build runs one full build.
func (a *App) Build(ctx context.Context, cfg *domain.Config) (*Result, error) {
	session, err := a.Open(ctx, cfg, ModeBuild)
	if err != nil {
		return nil, err
	}
	return session.Build(ctx)
}

// Vars returns the effective scope of path as presets file text. A relative path is taken relative to the
// working directory.
func (a *App) Vars(ctx context.Context, cfg *domain.Config, path string) (string, error) {
	session, err := a.Open(ctx, cfg, ModeInspect)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve path")
	}
	rel, err := session.Input.Rel(abs)
	if err != nil {
		return "", err
	}
	if rel.Escapes() {
		return "", zerr.With(domain.ErrInsecureAccess, "path", path)
	}

	scope, err := session.Vars.Load(ctx, rel)
	if err != nil {
		return "", err
	}
	return session.Vars.Dump(scope)
}

// Graph returns the graph of dim recorded by the last build.
func (a *App) Graph(_ context.Context, cfg *domain.Config, dim domain.GraphDimension) (domain.SerializedGraph, error) {
	store, err := a.openStore(cfg.StateFile)
	if err != nil {
		return domain.SerializedGraph{}, err
	}
	state, err := store.Load()
	if err != nil {
		return domain.SerializedGraph{}, err
	}
	g, ok := state.Graphs[dim]
	if !ok {
		return domain.SerializedGraph{}, zerr.With(zerr.With(domain.ErrNoBuildState, "graph", string(dim)), "state", cfg.StateFile)
	}
	return g, nil
}

// Clean removes the output tree and the build state.
func (a *App) Clean(_ context.Context, cfg *domain.Config) error {
	output := filepath.Clean(cfg.Output)
	input := filepath.Clean(cfg.Input)
	if rel, err := filepath.Rel(output, input); err == nil && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return zerr.With(zerr.With(domain.ErrUnsafeClean, "output", output), "input", input)
	}

	var errs error
	remove := func(path, name string) {
		if path == "" {
			return
		}
		a.logger.Info("removing "+name, "path", path)
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
		}
	}
	remove(output, "output tree")
	remove(cfg.StateFile, "build state")
	return errs
}
