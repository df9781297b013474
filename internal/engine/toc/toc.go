// Package toc loads table-of-contents files, resolves their includes and owns the toc dependency graph.
package toc

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/engine/demand"
	"go.trai.ch/quire/internal/engine/hooks"
)

const serviceName = "Toc"

var _ ports.TocIndex = (*Service)(nil)

// IncluderCall describes one generator include being expanded by an includer.
// Items produced by an includer carry hrefs relative to the including toc's directory.
type IncluderCall struct {
	// Toc is the toc containing the include.
	Toc *domain.Toc
	// Item is the toc item carrying the include.
	Item *domain.TocItem
	// Path is the normalized include target.
	Path domain.NormalizedPath
	// Options is the includer's configuration from the toc file.
	Options domain.IncluderSpec
}

// IncluderHook expands generator includes for one includer name.
type IncluderHook = hooks.Waterfall[*domain.Toc, IncluderCall]

// Hooks are the extension points of a Service.
type Hooks struct {
	// Loaded may rewrite a toc right after it was parsed, before includes are resolved.
	Loaded *hooks.Waterfall[*domain.Toc, domain.NormalizedPath]
	// Includer holds one waterfall per includer name.
	Includer *hooks.HookMap[*IncluderHook]
}

func newHooks() *Hooks {
	return &Hooks{
		Loaded: hooks.NewWaterfall[*domain.Toc, domain.NormalizedPath](serviceName, "Loaded"),
		Includer: hooks.NewHookMap(func(name string) *IncluderHook {
			return hooks.NewWaterfall[*domain.Toc, IncluderCall](serviceName, "Includer:"+name)
		}),
	}
}

// Service loads toc files once per path and records which tocs, entries and generators relate.
type Service struct {
	space  domain.PathSpace
	files  ports.FileContext
	logger ports.Logger

	tocs  *demand.Demand[*domain.Toc]
	graph *domain.Graph
	hooks hooks.Set[Hooks]
}

// NewService creates a Service reading tocs relative to space. metrics may be nil.
func NewService(space domain.PathSpace, files ports.FileContext, logger ports.Logger, metrics ports.Metrics) *Service {
	s := &Service{
		space:  space,
		files:  files,
		logger: logger,
		graph:  domain.NewGraph(),
	}
	s.tocs = demand.New("toc", s.resolve, metrics)
	return s
}

// Hooks returns the service's extension points.
func (s *Service) Hooks() *Hooks {
	return s.hooks.Get(newHooks)
}

// Relations returns the toc graph. Tocs depend on their entries, included tocs and generators.
func (s *Service) Relations() *domain.Graph {
	return s.graph
}

// Load returns the toc at path with every include resolved.
func (s *Service) Load(ctx context.Context, path domain.NormalizedPath) (*domain.Toc, error) {
	return s.load(ctx, path, nil)
}

func (s *Service) load(
	ctx context.Context, path domain.NormalizedPath, callers []domain.NormalizedPath,
) (*domain.Toc, error) {
	if slices.Contains(callers, path) {
		chain := append(slices.Clone(callers), path)
		return nil, zerr.With(domain.ErrIncludeCycle, "chain", joinChain(chain))
	}
	return s.tocs.OnDemand(ctx, path, callers)
}

func (s *Service) resolve(
	ctx context.Context, path domain.NormalizedPath, callers []domain.NormalizedPath,
) (*domain.Toc, error) {
	data, err := s.files.Read(s.space.Abs(path))
	if err != nil {
		return nil, err
	}

	toc := &domain.Toc{}
	if err := yaml.Unmarshal(data, toc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidToc.Error()), "path", path.String())
	}
	toc.Path = path

	toc, err = s.Hooks().Loaded.Call(ctx, toc, path)
	if err != nil {
		return nil, err
	}
	if toc == nil {
		return nil, zerr.With(domain.ErrInvalidToc, "path", path.String())
	}
	toc.Path = path

	if !s.graph.HasNode(path) {
		s.graph.AddNode(path, domain.TypedNode(domain.NodeTypeToc))
	}

	chain := append(slices.Clone(callers), path)
	toc.Items, err = s.expand(ctx, toc, toc.Items, chain)
	if err != nil {
		return nil, err
	}

	for _, entry := range s.Entries(toc) {
		if !s.graph.HasNode(entry) {
			s.graph.AddNode(entry, domain.TypedNode(domain.NodeTypeEntry))
		}
		_ = s.graph.AddDependency(path, entry)
	}
	return toc, nil
}

// expand resolves the includes of items. An unnamed item carrying a plain include is replaced by
// the included items; a named one receives them as children.
func (s *Service) expand(
	ctx context.Context, toc *domain.Toc, items []*domain.TocItem, chain []domain.NormalizedPath,
) ([]*domain.TocItem, error) {
	out := make([]*domain.TocItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		children, err := s.expand(ctx, toc, item.Items, chain)
		if err != nil {
			return nil, err
		}
		item.Items = children

		if item.Include == nil {
			out = append(out, item)
			continue
		}

		included, err := s.include(ctx, toc, item, chain)
		if err != nil {
			return nil, zerr.With(err, "toc", toc.Path.String())
		}
		if item.Name == "" && item.Href == "" {
			out = append(out, included...)
			continue
		}
		item.Items = append(item.Items, included...)
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) include(
	ctx context.Context, toc *domain.Toc, item *domain.TocItem, chain []domain.NormalizedPath,
) ([]*domain.TocItem, error) {
	dir := toc.Path.Dir()
	target := dir.Join(item.Include.Path)

	if len(item.Include.Includers) > 0 {
		s.graph.AddNode(target, domain.TypedNode(domain.NodeTypeGenerator))
		_ = s.graph.AddDependency(toc.Path, target)
		return s.generate(ctx, toc, item, target)
	}

	if !domain.IsTocFile(target) {
		target = target.Join(domain.TocFileName)
	}
	included, err := s.load(ctx, target, chain)
	if err != nil {
		return nil, err
	}
	s.graph.AddNode(target, domain.TypedNode(domain.NodeTypeSource))
	_ = s.graph.AddDependency(toc.Path, target)

	return rebaseItems(included.Items, target.Dir(), dir), nil
}

func (s *Service) generate(
	ctx context.Context, toc *domain.Toc, item *domain.TocItem, target domain.NormalizedPath,
) ([]*domain.TocItem, error) {
	generated := &domain.Toc{Path: target}
	for _, spec := range item.Include.Includers {
		hook, ok := s.Hooks().Includer.Get(spec.Name())
		if !ok || !hook.IsUsed() {
			s.logger.Warn("no includer registered", "includer", spec.Name(), "toc", toc.Path.String())
			continue
		}
		var err error
		generated, err = hook.Call(ctx, generated, IncluderCall{
			Toc:     toc,
			Item:    item,
			Path:    target,
			Options: spec,
		})
		if err != nil {
			return nil, err
		}
		if generated == nil {
			generated = &domain.Toc{Path: target}
		}
	}
	return generated.Items, nil
}

// Entries returns the normalized paths of every local document the toc references, sorted.
func (s *Service) Entries(toc *domain.Toc) []domain.NormalizedPath {
	return Entries(toc)
}

// Entries returns the normalized paths of every local document toc references, sorted.
func Entries(toc *domain.Toc) []domain.NormalizedPath {
	dir := toc.Path.Dir()
	seen := make(map[domain.NormalizedPath]struct{})
	add := func(href string) {
		if entry, ok := localEntry(dir, href); ok {
			seen[entry] = struct{}{}
		}
	}
	add(toc.Href)
	toc.Walk(func(item *domain.TocItem) {
		add(item.Href)
	})

	out := make([]domain.NormalizedPath, 0, len(seen))
	for entry := range seen {
		out = append(out, entry)
	}
	slices.Sort(out)
	return out
}

func localEntry(dir domain.NormalizedPath, href string) (domain.NormalizedPath, bool) {
	if domain.IsExternalHref(href) {
		return "", false
	}
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return "", false
	}
	if strings.HasSuffix(href, "/") {
		href += "index.md"
	}
	entry := dir.Join(href)
	if entry.Escapes() {
		return "", false
	}
	return entry, true
}

// rebaseItems deep-copies items, rewriting local hrefs written relative to from to be relative to to.
func rebaseItems(items []*domain.TocItem, from, to domain.NormalizedPath) []*domain.TocItem {
	out := make([]*domain.TocItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clone := *item
		clone.Href = rebase(item.Href, from, to)
		clone.Items = rebaseItems(item.Items, from, to)
		out = append(out, &clone)
	}
	return out
}

func rebase(href string, from, to domain.NormalizedPath) string {
	if domain.IsExternalHref(href) || from == to {
		return href
	}
	target := path.Join(from.String(), href)
	rel, err := filepath.Rel(filepath.FromSlash(to.String()), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(href, "/") && !strings.HasSuffix(rel, "/") {
		rel += "/"
	}
	return rel
}

// Roots returns every loaded toc that no other toc includes, sorted.
func (s *Service) Roots() []domain.NormalizedPath {
	var roots []domain.NormalizedPath
	for path := range s.tocs.Resolved() {
		dependents, err := s.graph.DirectDependentsOf(path)
		if err == nil && len(dependents) == 0 {
			roots = append(roots, path)
		}
	}
	slices.Sort(roots)
	return roots
}

// Release forgets the toc at path and prunes graph nodes only it kept alive.
func (s *Service) Release(path domain.NormalizedPath) {
	before := s.graph.Nodes()
	s.graph.Release(path)
	s.tocs.Drop(path)
	for _, node := range before {
		if !s.graph.HasNode(node) {
			s.tocs.Drop(node)
		}
	}
}

// IsEntry reports whether path is a document referenced by a toc.
func (s *Service) IsEntry(path domain.NormalizedPath) bool {
	return s.hasType(path, domain.NodeTypeEntry)
}

// IsToc reports whether path is a loaded toc, including tocs pulled in by includes.
func (s *Service) IsToc(path domain.NormalizedPath) bool {
	return s.hasType(path, domain.NodeTypeToc) || s.hasType(path, domain.NodeTypeSource)
}

// IsGenerator reports whether path is the target of a generator include.
func (s *Service) IsGenerator(path domain.NormalizedPath) bool {
	return s.hasType(path, domain.NodeTypeGenerator)
}

func (s *Service) hasType(path domain.NormalizedPath, typ string) bool {
	data, err := s.graph.NodeData(path)
	return err == nil && data.Type() == typ
}

func joinChain(chain []domain.NormalizedPath) string {
	parts := make([]string, len(chain))
	for i, p := range chain {
		parts[i] = p.String()
	}
	return strings.Join(parts, " -> ")
}
