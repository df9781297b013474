// Package watch tracks what must be rebuilt after files change.
package watch

import (
	"context"
	"slices"
	"sync"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

// TocRef names a toc either by path or by an already loaded toc.
type TocRef struct {
	Path domain.NormalizedPath
	Toc  *domain.Toc
}

// Plan is the work collected since the previous Plan call.
type Plan struct {
	Tocs    []domain.NormalizedPath
	Entries []domain.NormalizedPath
	// Assets are changed files that are neither tocs, presets nor known entries.
	Assets []domain.NormalizedPath
}

// Empty reports whether there is nothing to do.
func (p Plan) Empty() bool {
	return len(p.Tocs) == 0 && len(p.Entries) == 0 && len(p.Assets) == 0
}

// State follows the toc, vars and entry graphs of their owning subsystems, plus a locally owned
// graph of entry subgraphs detached while their anchor is reprocessed.
type State struct {
	space   domain.PathSpace
	tocs    ports.TocIndex
	vars    ports.VarsIndex
	entries ports.EntryIndex
	driver  ports.BuildDriver
	metrics ports.Metrics

	mu       sync.Mutex
	detached *domain.Graph
	changed  map[domain.NormalizedPath]struct{}
	invalid  map[domain.NormalizedPath]struct{}
	assets   map[domain.NormalizedPath]struct{}
}

// New creates a State. metrics may be nil.
func New(
	space domain.PathSpace,
	tocs ports.TocIndex,
	vars ports.VarsIndex,
	entries ports.EntryIndex,
	driver ports.BuildDriver,
	metrics ports.Metrics,
) *State {
	return &State{
		space:    space,
		tocs:     tocs,
		vars:     vars,
		entries:  entries,
		driver:   driver,
		metrics:  metrics,
		detached: domain.NewGraph(),
		changed:  make(map[domain.NormalizedPath]struct{}),
		invalid:  make(map[domain.NormalizedPath]struct{}),
		assets:   make(map[domain.NormalizedPath]struct{}),
	}
}

// Detached returns the graph of entry subgraphs awaiting reprocessing.
func (s *State) Detached() *domain.Graph {
	return s.detached
}

func (s *State) graph(dim domain.GraphDimension) *domain.Graph {
	switch dim {
	case domain.GraphToc:
		return s.tocs.Relations()
	case domain.GraphVars:
		return s.vars.Relations()
	case domain.GraphEntry:
		return s.entries.Relations()
	case domain.GraphDetached:
		return s.detached
	default:
		return nil
	}
}

// InvalidateToc marks a toc as changed.
func (s *State) InvalidateToc(path domain.NormalizedPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed[path] = struct{}{}
	s.observe(domain.GraphToc)
}

// InvalidateEntry marks path dirty. Its connected entry subgraph moves to the detached graph so
// files it depends on stay tracked while it is reprocessed, and every entry depending on it is
// marked dirty too.
func (s *State) InvalidateEntry(path domain.NormalizedPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateEntry(path)
}

func (s *State) invalidateEntry(path domain.NormalizedPath) {
	extract := s.entries.Relations().Extract(path)
	_ = s.detached.Consume(extract)

	isEntry := s.isKnown(path, domain.NodeTypeEntry)
	if data, err := extract.NodeData(path); err == nil && data.Type() == domain.NodeTypeEntry {
		isEntry = true
	}
	if isEntry {
		s.invalid[path] = struct{}{}
	}
	for _, node := range extract.NodesOfType(domain.NodeTypeEntry) {
		if node != path && dependsOn(extract, node, path) {
			s.invalid[node] = struct{}{}
		}
	}
	s.entries.Release(path)
	s.observe(domain.GraphEntry)
}

// dependsOn reports whether from reaches to by following dependency edges.
func dependsOn(g *domain.Graph, from, to domain.NormalizedPath) bool {
	seen := map[domain.NormalizedPath]struct{}{}
	queue := []domain.NormalizedPath{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		deps, _ := g.DirectDependenciesOf(node)
		for _, dep := range deps {
			if dep == to {
				return true
			}
			if _, ok := seen[dep]; !ok {
				seen[dep] = struct{}{}
				queue = append(queue, dep)
			}
		}
	}
	return false
}

// InvalidateVars drops the cached scopes of a presets file's directory and below, and marks every
// document resolved through them dirty.
func (s *State) InvalidateVars(path domain.NormalizedPath) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vars.Release(path.Dir())
	s.observe(domain.GraphVars)

	// Documents of nested directories reach path through their own presets key.
	affected := s.vars.Relations().Extract(path)
	for _, node := range affected.NodesOfType(domain.NodeTypeEntry) {
		if dependsOn(affected, node, path) {
			s.invalidateEntry(node)
		}
	}
}

// ProcessToc has the build driver recompute the toc at path. Tocs including it, directly or
// through other includes, are released too and reloaded from their outermost toc.
func (s *State) ProcessToc(ctx context.Context, path domain.NormalizedPath) error {
	affected, roots := s.includers(path)
	for _, toc := range affected {
		s.tocs.Release(toc)
	}
	for _, root := range roots {
		if err := s.driver.ProcessToc(ctx, root); err != nil {
			return err
		}
	}
	s.mu.Lock()
	for _, toc := range affected {
		delete(s.changed, toc)
	}
	s.mu.Unlock()
	return nil
}

// includers returns path followed by every toc including it transitively, and the subset of
// those nothing includes.
func (s *State) includers(path domain.NormalizedPath) (affected, roots []domain.NormalizedPath) {
	seen := map[domain.NormalizedPath]struct{}{path: {}}
	queue := []domain.NormalizedPath{path}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		affected = append(affected, current)

		parents := s.GetParents(domain.GraphToc, current)
		if len(parents) == 0 {
			roots = append(roots, current)
		}
		for _, parent := range parents {
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}
	slices.Sort(roots)
	return affected, roots
}

// ProcessEntry has the build driver rebuild the entry at path, then drops its detached subgraph.
func (s *State) ProcessEntry(ctx context.Context, path domain.NormalizedPath) error {
	if err := s.driver.ProcessEntry(ctx, path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached.Release(path)
	delete(s.invalid, path)
	return nil
}

// IsKnownEntry reports whether a toc references path as a document.
func (s *State) IsKnownEntry(path domain.NormalizedPath) bool {
	return s.isKnown(path, domain.NodeTypeEntry)
}

// IsKnownToc reports whether path is a loaded toc.
func (s *State) IsKnownToc(path domain.NormalizedPath) bool {
	return s.isKnown(path, domain.NodeTypeToc) || s.isKnown(path, domain.NodeTypeSource)
}

// IsKnownTocGenerator reports whether path is the target of a generator include.
func (s *State) IsKnownTocGenerator(path domain.NormalizedPath) bool {
	return s.isKnown(path, domain.NodeTypeGenerator)
}

func (s *State) isKnown(path domain.NormalizedPath, typ string) bool {
	data, err := s.tocs.Relations().NodeData(path)
	return err == nil && data.Type() == typ
}

// IsToc reports whether path is named like a toc file.
func (s *State) IsToc(path domain.NormalizedPath) bool {
	return domain.IsTocFile(path)
}

// IsPreset reports whether path is named like a presets file.
func (s *State) IsPreset(path domain.NormalizedPath) bool {
	return domain.IsPresetsFile(path)
}

// GetParents returns what depends on node in the selected graph; empty if node is absent.
func (s *State) GetParents(dim domain.GraphDimension, node domain.NormalizedPath) []domain.NormalizedPath {
	g := s.graph(dim)
	if g == nil {
		return []domain.NormalizedPath{}
	}
	parents, err := g.DirectDependentsOf(node)
	if err != nil {
		return []domain.NormalizedPath{}
	}
	return parents
}

// GetChilds returns what node depends on in the selected graph; empty if node is absent.
func (s *State) GetChilds(dim domain.GraphDimension, node domain.NormalizedPath) []domain.NormalizedPath {
	g := s.graph(dim)
	if g == nil {
		return []domain.NormalizedPath{}
	}
	children, err := g.DirectDependenciesOf(node)
	if err != nil {
		return []domain.NormalizedPath{}
	}
	return children
}

// GetEntries returns the deduplicated, sorted entries referenced by the given tocs.
func (s *State) GetEntries(ctx context.Context, refs ...TocRef) ([]domain.NormalizedPath, error) {
	seen := make(map[domain.NormalizedPath]struct{})
	for _, ref := range refs {
		toc := ref.Toc
		if toc == nil {
			var err error
			toc, err = s.tocs.Load(ctx, ref.Path)
			if err != nil {
				return nil, err
			}
		}
		for _, entry := range s.tocs.Entries(toc) {
			seen[entry] = struct{}{}
		}
	}
	out := make([]domain.NormalizedPath, 0, len(seen))
	for entry := range seen {
		out = append(out, entry)
	}
	slices.Sort(out)
	return out, nil
}

// Change routes raw filesystem notifications, given as absolute or root-relative paths.
// Paths outside the root are ignored.
func (s *State) Change(paths ...string) {
	for _, raw := range paths {
		path, err := s.space.Rel(raw)
		if err != nil || path.Escapes() || path.IsRoot() {
			continue
		}
		switch {
		case s.IsPreset(path):
			s.InvalidateVars(path)
		case s.IsToc(path):
			s.InvalidateToc(path)
		case s.IsKnownTocGenerator(path):
			for _, toc := range s.GetParents(domain.GraphToc, path) {
				s.InvalidateToc(toc)
			}
		case s.IsKnownEntry(path) || s.entries.Relations().HasNode(path):
			s.InvalidateEntry(path)
		default:
			s.mu.Lock()
			s.assets[path] = struct{}{}
			s.mu.Unlock()
		}
	}
}

// Plan returns the collected work and resets it.
func (s *State) Plan() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan := Plan{
		Tocs:    drain(s.changed),
		Entries: drain(s.invalid),
		Assets:  drain(s.assets),
	}
	return plan
}

func drain(set map[domain.NormalizedPath]struct{}) []domain.NormalizedPath {
	out := make([]domain.NormalizedPath, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	clear(set)
	slices.Sort(out)
	return out
}

func (s *State) observe(dim domain.GraphDimension) {
	if s.metrics != nil {
		s.metrics.IncInvalidation(string(dim))
	}
}
