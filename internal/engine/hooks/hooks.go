// Package hooks implements the typed extension points subsystems publish their pipeline events on.
//
// Every hook belongs to a service and carries a name. Handlers are registered with Tap under a
// handler name; any error a handler returns (or panic it raises) reaches the caller as a *HookError
// naming the service, the hook, the handler and the hook kind. Hooks never swallow handler errors.
package hooks

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Kind identifies the calling convention of a hook.
type Kind string

const (
	// KindWaterfall threads a value through every handler in registration order.
	KindWaterfall Kind = "waterfall"
	// KindParallel runs every handler concurrently with the same argument.
	KindParallel Kind = "parallel"
	// KindSync calls every handler in order on the caller's goroutine.
	KindSync Kind = "sync"
)

// Hook is the introspection surface shared by every hook kind.
type Hook interface {
	Service() string
	Name() string
	Kind() Kind
	// Taps returns the registered handler names in registration order.
	Taps() []string
}

// HookError annotates a handler failure with where it happened.
type HookError struct {
	Service string
	Hook    string
	Handler string
	Type    Kind
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s.%s: %s handler %q failed: %v", e.Service, e.Hook, e.Type, e.Handler, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

type tap[F any] struct {
	name string
	fn   F
}

// registry is the part every hook kind shares: identity plus the ordered handler list.
type registry[F any] struct {
	service string
	name    string
	kind    Kind

	mu   sync.RWMutex
	taps []tap[F]
}

func (r *registry[F]) Service() string { return r.service }
func (r *registry[F]) Name() string    { return r.name }
func (r *registry[F]) Kind() Kind      { return r.kind }

func (r *registry[F]) Taps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.taps))
	for i, t := range r.taps {
		names[i] = t.name
	}
	return names
}

// IsUsed reports whether any handler is registered.
func (r *registry[F]) IsUsed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.taps) > 0
}

// Tap registers a handler. Handlers run in registration order where the kind defines one.
func (r *registry[F]) Tap(name string, fn F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taps = append(r.taps, tap[F]{name: name, fn: fn})
}

func (r *registry[F]) snapshot() []tap[F] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.taps)
}

func (r *registry[F]) annotate(handler string, err error) error {
	if err == nil {
		return nil
	}
	// A nested hook already pinpointed the failing handler.
	var hookErr *HookError
	if errors.As(err, &hookErr) {
		return err
	}
	return &HookError{Service: r.service, Hook: r.name, Handler: handler, Type: r.kind, Err: err}
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return fn()
}
