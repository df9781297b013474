package app

import (
	"context"
	"errors"

	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/adapters/watcher" //nolint:depguard // debouncing is wired in the app layer
	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/engine/watch"
)

// Watch builds once, then rebuilds whatever each debounced batch of file changes invalidates,
// until ctx is done.
func (a *App) Watch(ctx context.Context, cfg *domain.Config) error {
	session, err := a.Open(ctx, cfg, ModeWatch)
	if err != nil {
		return err
	}
	if _, err := session.Build(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Error(err)
	}

	state := watch.New(session.Input, session.Tocs, session.Vars, session.Pool, session, a.metrics)

	a.watcher.Exclude(session.Output.Root())
	if err := a.watcher.Start(ctx, session.Input.Root()); err != nil {
		return zerr.Wrap(err, "failed to start watcher")
	}
	defer func() { _ = a.watcher.Stop() }()

	batches := make(chan []string)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})
	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info("watching for changes", "input", session.Input.Root())
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			state.Change(paths...)
			plan := state.Plan()
			if plan.Empty() {
				continue
			}
			if err := session.Apply(ctx, state, plan); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// Apply reprocesses a watch plan: changed tocs first, then invalidated entries and entries that
// reloaded tocs newly reference, then changed assets. The state is persisted afterwards.
func (s *Session) Apply(ctx context.Context, state *watch.State, plan watch.Plan) error {
	var errs error
	for _, path := range plan.Tocs {
		if err := state.ProcessToc(ctx, path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "toc failed"), "toc", path.String()))
		}
	}

	entries := plan.Entries
	planned := make(map[domain.NormalizedPath]bool, len(entries))
	for _, path := range entries {
		planned[path] = true
	}
	if len(plan.Tocs) > 0 {
		refs := make([]watch.TocRef, 0)
		for _, root := range s.Tocs.Roots() {
			refs = append(refs, watch.TocRef{Path: root})
		}
		referenced, err := state.GetEntries(ctx, refs...)
		if err != nil {
			errs = errors.Join(errs, err)
		}
		for _, path := range referenced {
			if planned[path] || s.Pool.Relations().HasNode(path) || s.Pool.Status(path) == domain.VertexStatusFailed {
				continue
			}
			planned[path] = true
			entries = append(entries, path)
		}
	}

	for _, path := range entries {
		if err := state.ProcessEntry(ctx, path); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	for _, path := range plan.Assets {
		if err := s.copyAsset(ctx, path); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if err := s.finish(); err != nil {
		errs = errors.Join(errs, err)
	}

	s.app.logger.Info("rebuilt",
		"tocs", len(plan.Tocs),
		"entries", len(entries),
		"assets", len(plan.Assets),
	)
	return errs
}
