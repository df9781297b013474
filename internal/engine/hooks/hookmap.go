package hooks

import (
	"slices"
	"sync"
)

// HookMap is a family of hooks addressed by a runtime key, such as one hook per includer name.
// Hooks are created by the factory on first access.
type HookMap[H any] struct {
	mu      sync.Mutex
	hooks   map[string]H
	factory func(key string) H
}

// NewHookMap creates a HookMap whose hooks are built by factory.
func NewHookMap[H any](factory func(key string) H) *HookMap[H] {
	return &HookMap[H]{
		hooks:   make(map[string]H),
		factory: factory,
	}
}

// For returns the hook for key, creating it if needed.
func (m *HookMap[H]) For(key string) H {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[key]
	if !ok {
		h = m.factory(key)
		m.hooks[key] = h
	}
	return h
}

// Get returns the hook for key without creating it.
func (m *HookMap[H]) Get(key string) (H, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hooks[key]
	return h, ok
}

// Keys returns the keys of every hook created so far, sorted.
func (m *HookMap[H]) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.hooks))
	for k := range m.hooks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Set holds an owner's hook collection and creates it on first access.
// Embed one per owning instance; the zero value is ready to use and must not be copied.
type Set[H any] struct {
	once  sync.Once
	hooks *H
}

// Get returns the hook collection, building it with init the first time.
func (s *Set[H]) Get(init func() *H) *H {
	s.once.Do(func() {
		s.hooks = init()
	})
	return s.hooks
}
