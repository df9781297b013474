// Package demand provides a compute-once cache whose pending results are shared by every concurrent caller.
package demand

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

// Resolver computes the value for key. callers is the chain of keys that led to this request,
// outermost first, so resolvers can detect recursion.
type Resolver[T any] func(ctx context.Context, key domain.NormalizedPath, callers []domain.NormalizedPath) (T, error)

type entry[T any] struct {
	done    chan struct{}
	settled bool
	value   T
	err     error
}

func (e *entry[T]) settle(value T, err error) {
	e.value, e.err = value, err
	e.settled = true
	close(e.done)
}

// Demand memoizes one resolution per key. The resolver runs at most once per key until the key
// is set or dropped; a failure is replayed to every later caller.
type Demand[T any] struct {
	name    string
	resolve Resolver[T]
	metrics ports.Metrics

	mu      sync.Mutex
	entries map[domain.NormalizedPath]*entry[T]
}

// New creates a Demand named name. metrics may be nil.
func New[T any](name string, resolve Resolver[T], metrics ports.Metrics) *Demand[T] {
	return &Demand[T]{
		name:    name,
		resolve: resolve,
		metrics: metrics,
		entries: make(map[domain.NormalizedPath]*entry[T]),
	}
}

// OnDemand returns the value for key, invoking the resolver only if no entry exists yet.
// Callers arriving while the resolver runs wait for its result. The resolver sees ctx values but
// not its cancellation.
func (d *Demand[T]) OnDemand(
	ctx context.Context, key domain.NormalizedPath, callers []domain.NormalizedPath,
) (T, error) {
	d.mu.Lock()
	e, ok := d.entries[key]
	if ok {
		d.mu.Unlock()
		d.observe("hit")
		return d.wait(ctx, e)
	}
	e = &entry[T]{done: make(chan struct{})}
	d.entries[key] = e
	d.mu.Unlock()
	d.observe("miss")

	// The result is shared with every later caller, so one caller's cancellation must not settle it.
	value, err := d.run(context.WithoutCancel(ctx), key, callers)

	d.mu.Lock()
	// Set may have settled the entry while the resolver was running.
	if !e.settled {
		e.settle(value, err)
	}
	value, err = e.value, e.err
	d.mu.Unlock()
	return value, err
}

func (d *Demand[T]) run(
	ctx context.Context, key domain.NormalizedPath, callers []domain.NormalizedPath,
) (value T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("resolver panicked: %v", p)
		}
	}()
	return d.resolve(ctx, key, slices.Clip(callers))
}

func (d *Demand[T]) wait(ctx context.Context, e *entry[T]) (T, error) {
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (d *Demand[T]) observe(outcome string) {
	if d.metrics != nil {
		d.metrics.IncDemand(d.name, outcome)
	}
}

// MapOnDemand resolves key through d and transforms the shared value with fn. fn runs once per
// caller, so each caller may post-process the common base value differently.
func MapOnDemand[T, R any](
	ctx context.Context,
	d *Demand[T],
	key domain.NormalizedPath,
	callers []domain.NormalizedPath,
	fn func(T) (R, error),
) (R, error) {
	value, err := d.OnDemand(ctx, key, callers)
	if err != nil {
		var zero R
		return zero, err
	}
	return fn(value)
}

// Set stores value for key. A pending entry is resolved and its waiters released; a failed entry is
// overridden. Setting a key that already resolved successfully returns ErrDemandOverride.
func (d *Demand[T]) Set(key domain.NormalizedPath, value T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[key]
	switch {
	case !ok:
		e = &entry[T]{done: make(chan struct{})}
		e.settle(value, nil)
		d.entries[key] = e
	case !e.settled:
		e.settle(value, nil)
	case e.err == nil:
		return zerr.With(domain.ErrDemandOverride, "key", key.String())
	default:
		resolved := &entry[T]{done: make(chan struct{})}
		resolved.settle(value, nil)
		d.entries[key] = resolved
	}
	return nil
}

// State describes what a Demand holds for a key.
type State int

// Entry states reported by Get.
const (
	StateMissing State = iota
	StatePending
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "missing"
	}
}

// Get reads whatever is cached for key without waiting. The value is only meaningful when the
// state is StateResolved; a pending entry reports the zero placeholder.
func (d *Demand[T]) Get(key domain.NormalizedPath) (T, State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	e, ok := d.entries[key]
	switch {
	case !ok:
		return zero, StateMissing
	case !e.settled:
		return zero, StatePending
	case e.err != nil:
		return zero, StateFailed
	default:
		return e.value, StateResolved
	}
}

// Pending reports whether a resolution for key is still in flight.
func (d *Demand[T]) Pending(key domain.NormalizedPath) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[key]
	return ok && !e.settled
}

// Drop forgets key so the next OnDemand resolves it again. Waiters of an in-flight resolution
// still receive its result.
func (d *Demand[T]) Drop(key domain.NormalizedPath) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, key)
}

// DropFunc forgets every key for which match returns true.
func (d *Demand[T]) DropFunc(match func(domain.NormalizedPath) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.entries {
		if match(key) {
			delete(d.entries, key)
		}
	}
}

// Resolved returns every successfully resolved key and value, keyed by path.
func (d *Demand[T]) Resolved() map[domain.NormalizedPath]T {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[domain.NormalizedPath]T, len(d.entries))
	for key, e := range d.entries {
		if e.settled && e.err == nil {
			out[key] = e.value
		}
	}
	return out
}
