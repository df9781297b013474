// Package entry turns source documents into output artifacts and owns the entry dependency graph.
package entry

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/engine/demand"
	"go.trai.ch/quire/internal/engine/hooks"
)

const serviceName = "Entry"

var _ ports.EntryIndex = (*Service)(nil)

var (
	includeDirective = regexp.MustCompile(`\{%\s*include\s+(?:\[[^\]]*\])?\(([^)\s]+)\)\s*%\}`)
	placeholder      = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)
)

// ScopeLoader resolves the variable scope for a document.
type ScopeLoader interface {
	Load(ctx context.Context, path domain.NormalizedPath) (*domain.Scope, error)
}

// OutputKey is the entry node data key holding the output path, relative to the output root.
const OutputKey = "output"

// Artifact is a processed entry on its way to the output tree.
type Artifact struct {
	// Path is the source entry.
	Path domain.NormalizedPath
	// Output is where the artifact is written, relative to the output root.
	Output domain.NormalizedPath
	// Content is the artifact body.
	Content []byte
	// Includes lists every file inlined into the entry, directly or transitively, sorted.
	Includes []domain.NormalizedPath
}

// Hooks are the extension points of a Service.
type Hooks struct {
	// Dump transforms an artifact before it is written. Renderers plug in here.
	Dump *hooks.Waterfall[*Artifact, *domain.Scope]
	// Resolved fires after an artifact was written.
	Resolved *hooks.Parallel[*Artifact]
}

func newHooks() *Hooks {
	return &Hooks{
		Dump:     hooks.NewWaterfall[*Artifact, *domain.Scope](serviceName, "Dump"),
		Resolved: hooks.NewParallel[*Artifact](serviceName, "Resolved"),
	}
}

type expansion struct {
	content  []byte
	includes []domain.NormalizedPath
}

// Service processes entries read from the input space into the output space.
type Service struct {
	input  domain.PathSpace
	output domain.PathSpace
	files  ports.FileContext
	scopes ScopeLoader
	logger ports.Logger

	includes *demand.Demand[expansion]
	graph    *domain.Graph
	hooks    hooks.Set[Hooks]
}

// NewService creates a Service. metrics may be nil.
func NewService(
	input, output domain.PathSpace,
	files ports.FileContext,
	scopes ScopeLoader,
	logger ports.Logger,
	metrics ports.Metrics,
) *Service {
	s := &Service{
		input:  input,
		output: output,
		files:  files,
		scopes: scopes,
		logger: logger,
		graph:  domain.NewGraph(),
	}
	s.includes = demand.New("include", s.resolveInclude, metrics)
	return s
}

// Hooks returns the service's extension points.
func (s *Service) Hooks() *Hooks {
	return s.hooks.Get(newHooks)
}

// Relations returns the entry graph: entries and includes depend on the files they inline.
func (s *Service) Relations() *domain.Graph {
	return s.graph
}

// Process builds the entry at path and writes it to the output tree.
func (s *Service) Process(ctx context.Context, path domain.NormalizedPath) (*Artifact, error) {
	data, err := s.files.Read(s.input.Abs(path))
	if err != nil {
		return nil, err
	}

	s.graph.AddNode(path, domain.TypedNode(domain.NodeTypeEntry))
	expanded, err := s.expand(ctx, path, data, []domain.NormalizedPath{path})
	if err != nil {
		return nil, zerr.With(err, "entry", path.String())
	}

	scope, err := s.scopes.Load(ctx, path)
	if err != nil {
		return nil, zerr.With(err, "entry", path.String())
	}

	artifact := &Artifact{
		Path:     path,
		Output:   path,
		Content:  s.substitute(path, expanded.content, scope),
		Includes: expanded.includes,
	}
	artifact, err = s.Hooks().Dump.Call(ctx, artifact, scope)
	if err != nil {
		return nil, err
	}

	if err := s.files.Write(s.output.Abs(artifact.Output), artifact.Content, true); err != nil {
		return nil, err
	}
	s.graph.AddNode(path, domain.NodeData{"type": domain.NodeTypeEntry, OutputKey: artifact.Output.String()})
	if err := s.Hooks().Resolved.Call(ctx, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

func (s *Service) resolveInclude(
	ctx context.Context, path domain.NormalizedPath, callers []domain.NormalizedPath,
) (expansion, error) {
	data, err := s.files.Read(s.input.Abs(path))
	if err != nil {
		return expansion{}, err
	}
	return s.expand(ctx, path, data, append(slices.Clone(callers), path))
}

// expand inlines every include directive of content, which was read from path.
// chain lists the files being expanded, outermost first, ending with path.
func (s *Service) expand(
	ctx context.Context, path domain.NormalizedPath, content []byte, chain []domain.NormalizedPath,
) (expansion, error) {
	matches := includeDirective.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return expansion{content: content}, nil
	}

	var (
		out      bytes.Buffer
		includes []domain.NormalizedPath
		last     int
	)
	for _, m := range matches {
		target := path.Dir().Join(string(content[m[2]:m[3]]))
		if slices.Contains(chain, target) {
			cycle := append(slices.Clone(chain), target)
			return expansion{}, zerr.With(domain.ErrIncludeCycle, "chain", joinChain(cycle))
		}

		if !s.graph.HasNode(target) {
			s.graph.AddNode(target, domain.TypedNode(domain.NodeTypeSource))
		}
		_ = s.graph.AddDependency(path, target)

		inlined, err := s.includes.OnDemand(ctx, target, chain)
		if err != nil {
			return expansion{}, err
		}

		out.Write(content[last:m[0]])
		out.Write(inlined.content)
		last = m[1]
		includes = append(includes, target)
		includes = append(includes, inlined.includes...)
	}
	out.Write(content[last:])

	slices.Sort(includes)
	return expansion{content: out.Bytes(), includes: slices.Compact(includes)}, nil
}

// substitute replaces {{ name }} placeholders with scope values. Unknown names are kept verbatim.
func (s *Service) substitute(path domain.NormalizedPath, content []byte, scope *domain.Scope) []byte {
	return placeholder.ReplaceAllFunc(content, func(match []byte) []byte {
		name := string(placeholder.FindSubmatch(match)[1])
		lookup := scope.Lookup(name)
		if !lookup.Found {
			s.logger.Debug("unresolved variable", "entry", path.String(), "name", name)
			return match
		}
		return []byte(fmt.Sprint(lookup.Value))
	})
}

// Release forgets path: its cached expansion and its place in the entry graph.
// Includes only path kept alive are forgotten too.
func (s *Service) Release(path domain.NormalizedPath) {
	before := s.graph.Nodes()
	s.graph.Release(path)
	s.includes.Drop(path)
	for _, node := range before {
		if !s.graph.HasNode(node) {
			s.includes.Drop(node)
		}
	}
}

func joinChain(chain []domain.NormalizedPath) string {
	parts := make([]string, len(chain))
	for i, p := range chain {
		parts[i] = p.String()
	}
	return strings.Join(parts, " -> ")
}
