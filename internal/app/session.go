package app

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/engine/entry"
	"go.trai.ch/quire/internal/engine/scheduler"
	"go.trai.ch/quire/internal/engine/toc"
	"go.trai.ch/quire/internal/engine/vars"
)

var _ ports.BuildDriver = (*Session)(nil)

// Result summarizes one build.
type Result struct {
	Config *domain.Config
	// Tocs are the discovered toc files.
	Tocs []domain.NormalizedPath
	// Built, Cached and Failed partition the entries referenced by the root tocs.
	Built  []domain.NormalizedPath
	Cached []domain.NormalizedPath
	Failed []domain.NormalizedPath
	// Warnings counts warnings logged during the build.
	Warnings int
	Duration time.Duration
}

// Session holds the services of one configured run. A watch run keeps its session across rebuilds.
type Session struct {
	Config *domain.Config
	Input  domain.PathSpace
	Output domain.PathSpace
	Files  ports.FileContext
	Vars   *vars.Service
	Tocs   *toc.Service
	Pool   *scheduler.Pool

	app          *App
	store        ports.StateStore
	previous     *domain.BuildState
	fingerprints map[domain.NormalizedPath]string
	entryTaps    []func(*entry.Service)
}

// Open runs the Config hook and builds a session for the resulting configuration.
func (a *App) Open(ctx context.Context, cfg *domain.Config, mode Mode) (*Session, error) {
	cfg, err := a.Hooks().Config.Call(ctx, cfg, mode)
	if err != nil {
		return nil, err
	}

	input, err := domain.NewPathSpace(cfg.Input)
	if err != nil {
		return nil, err
	}
	output, err := domain.NewPathSpace(cfg.Output)
	if err != nil {
		return nil, err
	}
	files, err := a.files.Open(input.Root(), output.Root())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open file context")
	}
	store, err := a.openStore(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	previous, err := store.Load()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load build state")
	}

	s := &Session{
		Config:       cfg,
		Input:        input,
		Output:       output,
		Files:        files,
		app:          a,
		store:        store,
		previous:     previous,
		fingerprints: make(map[domain.NormalizedPath]string),
	}
	s.Vars = vars.NewService(input, files, a.logger, a.metrics, vars.Options{
		Preset:    cfg.VarsPreset,
		Overrides: cfg.Vars,
	})
	s.Tocs = toc.NewService(input, files, a.logger, a.metrics)
	s.Pool = scheduler.NewPool(s.newProcessor, cfg.Parallelism, a.telemetry, a.metrics)

	for _, plugin := range a.plugins {
		plugin(s)
	}
	return s, nil
}

// OnEntryService registers fn to run on every entry service the pool creates, so plugins can tap its hooks.
func (s *Session) OnEntryService(fn func(*entry.Service)) {
	s.entryTaps = append(s.entryTaps, fn)
}

func (s *Session) newProcessor(int) (scheduler.Processor, error) {
	svc := entry.NewService(s.Input, s.Output, s.Files, s.Vars, s.app.logger, s.app.metrics)
	for _, tap := range s.entryTaps {
		tap(svc)
	}
	return svc, nil
}

// Build loads every toc, builds their entries, copies assets and persists the state for the next run.
func (s *Session) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	warnings := s.app.logger.Warnings()
	if err := s.app.Hooks().BeforeRun.Call(ctx, s); err != nil {
		return nil, err
	}

	res := &Result{Config: s.Config}
	tocs, err := s.discover()
	if err != nil {
		return nil, err
	}
	res.Tocs = tocs

	var errs error
	if err := s.loadTocs(ctx, tocs); err != nil {
		errs = errors.Join(errs, err)
	}
	entries, err := s.entries(ctx)
	if err != nil {
		errs = errors.Join(errs, err)
	}

	pending := s.skipUnchanged(ctx, entries, res)
	report, err := s.Pool.Run(ctx, pending)
	if err != nil {
		errs = errors.Join(errs, domain.ErrBuildFailed, err)
	}
	res.Built = slices.Sorted(maps.Keys(report.Artifacts))
	res.Failed = report.Failed
	s.record(ctx, res.Built)

	if err := s.copyAssets(ctx); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := s.finish(); err != nil {
		errs = errors.Join(errs, err)
	}

	res.Duration = time.Since(start)
	s.app.metrics.ObserveBuildDuration(res.Duration)
	res.Warnings = s.app.logger.Warnings() - warnings
	if s.Config.Strict && res.Warnings > 0 {
		errs = errors.Join(errs, zerr.With(domain.ErrStrictWarnings, "warnings", strconv.Itoa(res.Warnings)))
	}

	if err := s.app.Hooks().AfterRun.Call(ctx, res); err != nil {
		errs = errors.Join(errs, err)
	}
	s.app.logger.Info("build finished",
		"tocs", len(res.Tocs),
		"built", len(res.Built),
		"cached", len(res.Cached),
		"failed", len(res.Failed),
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, errs
}

// ignores lists the globs excluded from discovery and asset copying: the configured ones plus the output
// tree when it lives inside the input tree.
func (s *Session) ignores() []string {
	ignore := slices.Clone(s.Config.Ignore)
	if rel, err := s.Input.Rel(s.Output.Root()); err == nil && !rel.Escapes() && !rel.IsRoot() {
		ignore = append(ignore, rel.String())
	}
	return ignore
}

func (s *Session) discover() ([]domain.NormalizedPath, error) {
	found, err := s.Files.Glob("**/"+domain.TocFileName, ports.GlobOptions{
		Cwd:    s.Input.Root(),
		Ignore: s.ignores(),
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to discover tocs")
	}
	out := make([]domain.NormalizedPath, len(found))
	for i, f := range found {
		out[i] = domain.Normalize(f)
	}
	return out, nil
}

// loadTocs loads tocs one at a time; includes between them resolve through the toc cache.
func (s *Session) loadTocs(ctx context.Context, paths []domain.NormalizedPath) error {
	var errs error
	for _, path := range paths {
		if err := s.loadToc(ctx, path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "toc failed"), "toc", path.String()))
		}
	}
	return errors.Join(errs, s.writeTocs(ctx))
}

func (s *Session) loadToc(ctx context.Context, path domain.NormalizedPath) error {
	vctx, vertex := s.app.telemetry.Record(ctx, "toc "+path.String())
	_, err := s.Tocs.Load(vctx, path)
	vertex.Complete(err)
	return err
}

// ProcessToc loads the toc at path and writes every root toc, with includes resolved, to the output tree.
func (s *Session) ProcessToc(ctx context.Context, path domain.NormalizedPath) error {
	if !s.Files.Exists(s.Input.Abs(path)) {
		s.app.logger.Info("toc removed", "toc", path.String())
		return s.writeTocs(ctx)
	}
	if err := s.loadToc(ctx, path); err != nil {
		return err
	}
	return s.writeTocs(ctx)
}

func (s *Session) writeTocs(ctx context.Context) error {
	for _, root := range s.Tocs.Roots() {
		t, err := s.Tocs.Load(ctx, root)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(t)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to encode toc"), "toc", root.String())
		}
		if err := s.Files.Write(s.Output.Abs(root), data, true); err != nil {
			return err
		}
	}
	return nil
}

// entries returns the sorted entries referenced by the root tocs.
func (s *Session) entries(ctx context.Context) ([]domain.NormalizedPath, error) {
	seen := make(map[domain.NormalizedPath]struct{})
	for _, root := range s.Tocs.Roots() {
		t, err := s.Tocs.Load(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, e := range s.Tocs.Entries(t) {
			seen[e] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// ProcessEntry rebuilds one entry. An entry whose source is gone is forgotten rather than failed.
func (s *Session) ProcessEntry(ctx context.Context, path domain.NormalizedPath) error {
	if !s.Files.Exists(s.Input.Abs(path)) {
		s.app.logger.Info("entry removed", "entry", path.String())
		delete(s.fingerprints, path)
		return nil
	}
	report, err := s.Pool.Run(ctx, []domain.NormalizedPath{path})
	if err != nil {
		return err
	}
	s.record(ctx, slices.Collect(maps.Keys(report.Artifacts)))
	return nil
}
