package hooks

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WaterfallFunc transforms value; arg is shared context every handler sees unchanged.
type WaterfallFunc[T, A any] func(ctx context.Context, value T, arg A) (T, error)

// Waterfall is a sequential asynchronous pipeline: each handler receives the previous handler's result.
type Waterfall[T, A any] struct {
	registry[WaterfallFunc[T, A]]
}

// NewWaterfall creates a waterfall hook owned by service.
func NewWaterfall[T, A any](service, name string) *Waterfall[T, A] {
	return &Waterfall[T, A]{registry[WaterfallFunc[T, A]]{service: service, name: name, kind: KindWaterfall}}
}

// Call threads value through every handler in registration order and returns the final value.
// The first failing handler stops the pipeline.
func (h *Waterfall[T, A]) Call(ctx context.Context, value T, arg A) (T, error) {
	for _, t := range h.snapshot() {
		if err := ctx.Err(); err != nil {
			return value, err
		}
		err := guard(func() error {
			next, err := t.fn(ctx, value, arg)
			if err == nil {
				value = next
			}
			return err
		})
		if err != nil {
			return value, h.annotate(t.name, err)
		}
	}
	return value, nil
}

// ParallelFunc handles one parallel hook invocation.
type ParallelFunc[A any] func(ctx context.Context, arg A) error

// Parallel runs every handler concurrently with the same argument. No output is passed between handlers.
type Parallel[A any] struct {
	registry[ParallelFunc[A]]
}

// NewParallel creates a parallel hook owned by service.
func NewParallel[A any](service, name string) *Parallel[A] {
	return &Parallel[A]{registry[ParallelFunc[A]]{service: service, name: name, kind: KindParallel}}
}

// Call runs all handlers and waits for them. The first failure cancels the context the others see.
func (h *Parallel[A]) Call(ctx context.Context, arg A) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range h.snapshot() {
		g.Go(func() error {
			return h.annotate(t.name, guard(func() error { return t.fn(ctx, arg) }))
		})
	}
	return g.Wait()
}

// SyncFunc handles one synchronous hook invocation.
type SyncFunc[A any] func(arg A) error

// Sync is a plain multicast event. It never suspends the caller beyond running the handlers.
type Sync[A any] struct {
	registry[SyncFunc[A]]
}

// NewSync creates a synchronous hook owned by service.
func NewSync[A any](service, name string) *Sync[A] {
	return &Sync[A]{registry[SyncFunc[A]]{service: service, name: name, kind: KindSync}}
}

// Call invokes every handler in registration order and stops at the first failure.
func (h *Sync[A]) Call(arg A) error {
	for _, t := range h.snapshot() {
		if err := guard(func() error { return t.fn(arg) }); err != nil {
			return h.annotate(t.name, err)
		}
	}
	return nil
}
