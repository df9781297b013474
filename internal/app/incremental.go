package app

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/engine/entry"
)

// documentGlobs are never copied as assets.
var documentGlobs = []string{
	"**/*.md",
	"**/" + domain.TocFileName,
	"**/" + domain.PresetsFileName,
	domain.ConfigFileName,
	".env",
}

// skipUnchanged returns the entries that need processing. An entry is skipped when its fingerprint matches
// the previous run and its output still exists; its previous subgraph is then adopted as is.
func (s *Session) skipUnchanged(ctx context.Context, entries []domain.NormalizedPath, res *Result) []domain.NormalizedPath {
	serialized, ok := s.previous.Graphs[domain.GraphEntry]
	if !ok {
		return entries
	}
	previous, err := domain.Deserialize(serialized)
	if err != nil {
		s.app.logger.Warn("discarding unreadable entry graph", "error", err)
		return entries
	}

	var pending []domain.NormalizedPath
	for _, path := range entries {
		stored, known := s.previous.Fingerprints[path]
		if !known || !s.outputExists(previous, path) {
			pending = append(pending, path)
			continue
		}
		fp, err := s.fingerprint(ctx, previous, path)
		if err != nil {
			s.app.logger.Debug("fingerprint failed", "entry", path.String(), "error", err)
			pending = append(pending, path)
			continue
		}
		if fp != stored {
			pending = append(pending, path)
			continue
		}

		if err := s.Pool.Relations().Consume(previous.Extract(path)); err != nil {
			pending = append(pending, path)
			continue
		}
		s.Pool.MarkCached(path)
		s.fingerprints[path] = fp
		res.Cached = append(res.Cached, path)

		_, vertex := s.app.telemetry.Record(ctx, "entry "+path.String())
		vertex.Cached()
		vertex.Complete(nil)
	}
	return pending
}

func (s *Session) outputExists(g *domain.Graph, path domain.NormalizedPath) bool {
	data, err := g.NodeData(path)
	if err != nil {
		return false
	}
	out, _ := data[entry.OutputKey].(string)
	return out != "" && s.Files.Exists(s.Output.Abs(domain.Normalize(out)))
}

// fingerprint hashes the entry, every file it transitively inlines according to g, and its effective scope.
func (s *Session) fingerprint(ctx context.Context, g *domain.Graph, path domain.NormalizedPath) (string, error) {
	scope, err := s.Vars.Load(ctx, path)
	if err != nil {
		return "", err
	}
	dump, err := s.Vars.Dump(scope)
	if err != nil {
		return "", err
	}

	files := []string{s.Input.Abs(path)}
	for _, node := range g.Extract(path).Nodes() {
		files = append(files, s.Input.Abs(node))
	}
	return s.app.hasher.Fingerprint(s.Files, files, dump)
}

// record stores fingerprints of freshly built entries against the current entry graph.
func (s *Session) record(ctx context.Context, built []domain.NormalizedPath) {
	for _, path := range built {
		fp, err := s.fingerprint(ctx, s.Pool.Relations(), path)
		if err != nil {
			s.app.logger.Debug("fingerprint failed", "entry", path.String(), "error", err)
			delete(s.fingerprints, path)
			continue
		}
		s.fingerprints[path] = fp
	}
}

// copyAssets hardlinks every non-document file of the input tree into the output tree.
func (s *Session) copyAssets(ctx context.Context) error {
	ignore := append(s.ignores(), documentGlobs...)
	if err := s.Files.Copy(ctx, s.Input.Root(), s.Output.Root(), ignore); err != nil {
		return zerr.Wrap(err, "failed to copy assets")
	}
	return nil
}

// copyAsset hardlinks one changed asset. A removed asset is skipped.
func (s *Session) copyAsset(ctx context.Context, path domain.NormalizedPath) error {
	src := s.Input.Abs(path)
	if !s.Files.Exists(src) {
		s.app.logger.Debug("asset removed", "asset", path.String())
		return nil
	}
	for _, pattern := range append(s.ignores(), documentGlobs...) {
		if matchGlob(pattern, path.String()) {
			return nil
		}
	}
	if err := s.Files.Copy(ctx, src, s.Output.Abs(path), nil); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to copy asset"), "asset", path.String())
	}
	return nil
}

// finish persists graphs and fingerprints and flushes metrics.
func (s *Session) finish() error {
	state := domain.NewBuildState()
	graphs := map[domain.GraphDimension]*domain.Graph{
		domain.GraphToc:   s.Tocs.Relations(),
		domain.GraphVars:  s.Vars.Relations(),
		domain.GraphEntry: s.Pool.Relations(),
	}
	for dim, g := range graphs {
		serialized, err := g.Serialize()
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to serialize graph"), "graph", string(dim))
		}
		state.Graphs[dim] = serialized
	}
	for path, fp := range s.fingerprints {
		state.Fingerprints[path] = fp
	}
	if err := s.store.Save(state); err != nil {
		return zerr.Wrap(err, "failed to save build state")
	}
	s.previous = state

	if err := s.app.metrics.Flush(s.Config.MetricsFile); err != nil {
		return zerr.Wrap(err, "failed to write metrics")
	}
	return nil
}

// matchGlob reports whether rel matches pattern or lies below a directory matching it.
func matchGlob(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	ok, _ := doublestar.Match(pattern+"/**", rel)
	return ok
}
