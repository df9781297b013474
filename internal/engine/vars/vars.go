// Package vars resolves the cascading variable scope that applies to each document.
package vars

import (
	"context"
	"errors"
	"io/fs"

	"dario.cat/mergo"
	"go.trai.ch/zerr"
	yamlv2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/engine/demand"
	"go.trai.ch/quire/internal/engine/hooks"
)

const serviceName = "Vars"

// Resolution is handed to the Resolved hook once a presets key has a final scope.
type Resolution struct {
	Path  domain.NormalizedPath
	Scope *domain.Scope
}

// Hooks are the extension points of a Service.
type Hooks struct {
	// PresetsLoaded may rewrite a presets file right after it was parsed.
	PresetsLoaded *hooks.Waterfall[domain.Presets, domain.NormalizedPath]
	// Resolved fires once per presets key with its frozen scope.
	Resolved *hooks.Parallel[Resolution]
}

func newHooks() *Hooks {
	return &Hooks{
		PresetsLoaded: hooks.NewWaterfall[domain.Presets, domain.NormalizedPath](serviceName, "PresetsLoaded"),
		Resolved:      hooks.NewParallel[Resolution](serviceName, "Resolved"),
	}
}

// Options select which presets apply to a run.
type Options struct {
	// Preset names the scope layered over "default" at every level.
	Preset string
	// Overrides are run-level variables merged last, with the highest precedence.
	Overrides map[string]any
}

// Service loads and caches variable scopes. Scopes are cached per presets file path, which is
// the key both for the cascade and for the vars dependency graph.
type Service struct {
	space     domain.PathSpace
	files     ports.FileContext
	logger    ports.Logger
	preset    string
	overrides map[string]any

	// cascade holds the merged layers from the root down to a presets key, without overrides.
	cascade *demand.Demand[map[string]any]
	scopes  *demand.Demand[*domain.Scope]
	graph   *domain.Graph
	hooks   hooks.Set[Hooks]
}

// NewService creates a Service reading presets relative to space.
func NewService(
	space domain.PathSpace,
	files ports.FileContext,
	logger ports.Logger,
	metrics ports.Metrics,
	opts Options,
) *Service {
	preset := opts.Preset
	if preset == "" {
		preset = domain.DefaultScope
	}
	s := &Service{
		space:     space,
		files:     files,
		logger:    logger,
		preset:    preset,
		overrides: opts.Overrides,
		graph:     domain.NewGraph(),
	}
	s.cascade = demand.New("vars_cascade", s.resolveCascade, metrics)
	s.scopes = demand.New("vars", s.resolveScope, metrics)
	return s
}

// Hooks returns the service's extension points.
func (s *Service) Hooks() *Hooks {
	return s.hooks.Get(newHooks)
}

// Relations returns the vars graph: document to presets key, and child presets key to parent key.
func (s *Service) Relations() *domain.Graph {
	return s.graph
}

// PresetsKey returns the presets file path governing documents in dir.
func PresetsKey(dir domain.NormalizedPath) domain.NormalizedPath {
	return dir.Join(domain.PresetsFileName)
}

// Load returns the frozen scope for the directory of path.
func (s *Service) Load(ctx context.Context, path domain.NormalizedPath) (*domain.Scope, error) {
	key := PresetsKey(path.Dir())
	if path != key {
		s.graph.AddNode(key, domain.TypedNode(domain.NodeTypePreset))
		s.graph.AddNode(path, domain.TypedNode(domain.NodeTypeEntry))
		_ = s.graph.AddDependency(path, key)
	}
	return s.scopes.OnDemand(ctx, key, nil)
}

func (s *Service) resolveScope(
	ctx context.Context, key domain.NormalizedPath, _ []domain.NormalizedPath,
) (*domain.Scope, error) {
	cascade, err := s.cascade.OnDemand(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	merged, err := merge(cascade, s.overrides)
	if err != nil {
		return nil, zerr.With(err, "presets", key.String())
	}

	scope := domain.NewScope(merged)
	if err := s.Hooks().Resolved.Call(ctx, Resolution{Path: key, Scope: scope}); err != nil {
		return nil, err
	}
	return scope, nil
}

func (s *Service) resolveCascade(
	ctx context.Context, key domain.NormalizedPath, _ []domain.NormalizedPath,
) (map[string]any, error) {
	s.graph.AddNode(key, domain.TypedNode(domain.NodeTypePreset))

	base := map[string]any{}
	if dir := key.Dir(); !dir.IsRoot() {
		parent := PresetsKey(dir.Dir())
		s.graph.AddNode(parent, domain.TypedNode(domain.NodeTypePreset))
		_ = s.graph.AddDependency(key, parent)

		var err error
		base, err = s.cascade.OnDemand(ctx, parent, nil)
		if err != nil {
			return nil, err
		}
	}

	presets, err := s.readPresets(ctx, key)
	if err != nil {
		return nil, err
	}
	return merge(base, presets.Layers(s.preset)...)
}

func (s *Service) readPresets(ctx context.Context, key domain.NormalizedPath) (domain.Presets, error) {
	data, err := s.files.Read(s.space.Abs(key))
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no presets file", "path", key.String())
		return domain.Presets{}, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read presets"), "path", key.String())
	}

	presets := domain.Presets{}
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidPresets.Error()), "path", key.String())
	}
	return s.Hooks().PresetsLoaded.Call(ctx, presets, key)
}

// merge layers copies of each layer over a copy of base; later layers win.
func merge(base map[string]any, layers ...map[string]any) (map[string]any, error) {
	out, _ := domain.DeepCopy(base).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	for _, layer := range layers {
		src, _ := domain.DeepCopy(layer).(map[string]any)
		if len(src) == 0 {
			continue
		}
		if err := mergo.Merge(&out, src, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			return nil, zerr.Wrap(err, "failed to merge presets")
		}
	}
	return out, nil
}

// Dump renders scope as presets file text with sorted keys, folding long values.
func (s *Service) Dump(scope *domain.Scope) (string, error) {
	out, err := yamlv2.Marshal(map[string]any{domain.DefaultScope: scope.Map()})
	if err != nil {
		return "", zerr.Wrap(err, "failed to dump scope")
	}
	return string(out), nil
}

// Entries returns every resolved presets key with its scope.
func (s *Service) Entries() map[domain.NormalizedPath]*domain.Scope {
	return s.scopes.Resolved()
}

// Release forgets the cached scopes of dir and of every directory below it.
// Scopes of sibling and ancestor directories stay cached.
func (s *Service) Release(dir domain.NormalizedPath) {
	match := func(key domain.NormalizedPath) bool {
		return key.Dir().HasPrefixDir(dir)
	}
	s.cascade.DropFunc(match)
	s.scopes.DropFunc(match)
}
