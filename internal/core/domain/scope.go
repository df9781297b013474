package domain

import (
	"slices"
	"strings"
)

// DefaultScope is the presets scope every document receives.
const DefaultScope = "default"

// Presets is the decoded content of a presets file: scope name to variables.
type Presets map[string]map[string]any

// Layers returns the variable layers selected by the given preset name, lowest precedence first.
// The default scope always applies; a named scope is layered on top when present.
func (p Presets) Layers(preset string) []map[string]any {
	var layers []map[string]any
	if scope, ok := p[DefaultScope]; ok && scope != nil {
		layers = append(layers, scope)
	}
	if preset != "" && preset != DefaultScope {
		if scope, ok := p[preset]; ok && scope != nil {
			layers = append(layers, scope)
		}
	}
	return layers
}

// Scope is an immutable mapping of variable name to value. The mapping is deep-copied on
// construction and every accessor hands out copies, so a *Scope can be shared freely.
type Scope struct {
	values map[string]any
}

// Lookup is the result of resolving a variable.
type Lookup struct {
	Value any
	Found bool
}

// NewScope freezes a copy of values into a Scope.
func NewScope(values map[string]any) *Scope {
	frozen, _ := DeepCopy(values).(map[string]any)
	if frozen == nil {
		frozen = map[string]any{}
	}
	return &Scope{values: frozen}
}

// Len returns the number of top-level variables.
func (s *Scope) Len() int {
	return len(s.values)
}

// Keys returns the top-level variable names, sorted.
func (s *Scope) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns a copy of a top-level variable.
func (s *Scope) Get(key string) (any, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return DeepCopy(v), true
}

// Lookup resolves a dotted variable path such as "product.name".
func (s *Scope) Lookup(name string) Lookup {
	var current any = s.values
	for part := range strings.SplitSeq(name, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return Lookup{}
		}
		current, ok = m[part]
		if !ok {
			return Lookup{}
		}
	}
	return Lookup{Value: DeepCopy(current), Found: true}
}

// Map returns a mutable deep copy of the scope's variables.
func (s *Scope) Map() map[string]any {
	out, _ := DeepCopy(s.values).(map[string]any)
	return out
}

// DeepCopy copies maps and slices recursively; other values are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if ks, ok := k.(string); ok {
				out[ks] = DeepCopy(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	default:
		return v
	}
}
