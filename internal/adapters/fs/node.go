package fs

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/quire/internal/adapters/metrics"
	"go.trai.ch/quire/internal/core/ports"
)

const (
	WalkerNodeID   graft.ID = "adapter.fs.walker"
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	HasherNodeID   graft.ID = "adapter.fs.hasher"
	FactoryNodeID  graft.ID = "adapter.fs.factory"
)

// Factory opens ScopedFileContexts that share one resolver cache.
type Factory struct {
	resolver *Resolver
	walker   *Walker
	metrics  ports.Metrics
}

// NewFactory creates a Factory. metrics may be nil.
func NewFactory(resolver *Resolver, walker *Walker, metrics ports.Metrics) *Factory {
	return &Factory{resolver: resolver, walker: walker, metrics: metrics}
}

// Open creates a ScopedFileContext bounded by scopes.
func (f *Factory) Open(scopes ...string) (ports.FileContext, error) {
	return NewScopedFileContext(f.resolver, f.walker, f.metrics, scopes...)
}

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[*Resolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Resolver, error) {
			return NewResolver(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})

	graft.Register(graft.Node[ports.FileContextFactory]{
		ID:        FactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID, ResolverNodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.FileContextFactory, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			resolver, err := graft.Dep[*Resolver](ctx)
			if err != nil {
				return nil, err
			}
			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(resolver, walker, m), nil
		},
	})
}
