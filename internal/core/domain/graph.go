// Package domain contains the core domain models of the documentation build graph.
package domain

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// Node roles recorded in NodeData under the "type" key.
const (
	NodeTypeEntry     = "entry"
	NodeTypeToc       = "toc"
	NodeTypeGenerator = "generator"
	NodeTypeSource    = "source"
	NodeTypePreset    = "preset"
)

// NodeData is arbitrary node metadata. The "type" key tags the node's role.
type NodeData map[string]any

// TypedNode returns NodeData carrying only a type tag.
func TypedNode(typ string) NodeData {
	return NodeData{"type": typ}
}

// Type returns the role tag of the node, or "" if none was recorded.
func (d NodeData) Type() string {
	t, _ := d["type"].(string)
	return t
}

// Graph is a directed dependency graph over normalized paths.
// An edge (from, to) means "from depends on to". All methods are safe for concurrent use.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[NormalizedPath]NodeData
	outgoing map[NormalizedPath]map[NormalizedPath]struct{}
	incoming map[NormalizedPath]map[NormalizedPath]struct{}
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[NormalizedPath]NodeData),
		outgoing: make(map[NormalizedPath]map[NormalizedPath]struct{}),
		incoming: make(map[NormalizedPath]map[NormalizedPath]struct{}),
	}
}

// AddNode adds a node. Adding an existing node keeps its edges; non-nil data replaces the old data.
func (g *Graph) AddNode(name NormalizedPath, data NodeData) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNode(name, data)
}

func (g *Graph) addNode(name NormalizedPath, data NodeData) {
	if _, exists := g.nodes[name]; exists {
		if data != nil {
			g.nodes[name] = maps.Clone(data)
		}
		return
	}
	g.nodes[name] = maps.Clone(data)
	g.outgoing[name] = make(map[NormalizedPath]struct{})
	g.incoming[name] = make(map[NormalizedPath]struct{})
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(name NormalizedPath) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[name]
	return ok
}

// NodeData returns a copy of the node's metadata.
func (g *Graph) NodeData(name NormalizedPath) (NodeData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	data, ok := g.nodes[name]
	if !ok {
		return nil, zerr.With(ErrUnknownNode, "node", name.String())
	}
	return maps.Clone(data), nil
}

// SetNodeData replaces the metadata of an existing node.
func (g *Graph) SetNodeData(name NormalizedPath, data NodeData) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[name]; !ok {
		return zerr.With(ErrUnknownNode, "node", name.String())
	}
	g.nodes[name] = maps.Clone(data)
	return nil
}

// RemoveNode removes the node and every edge touching it. Removing an absent node is a no-op.
func (g *Graph) RemoveNode(name NormalizedPath) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeNode(name)
}

func (g *Graph) removeNode(name NormalizedPath) {
	if _, ok := g.nodes[name]; !ok {
		return
	}
	for to := range g.outgoing[name] {
		delete(g.incoming[to], name)
	}
	for from := range g.incoming[name] {
		delete(g.outgoing[from], name)
	}
	delete(g.nodes, name)
	delete(g.outgoing, name)
	delete(g.incoming, name)
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Nodes returns every node name in lexicographic order.
func (g *Graph) Nodes() []NormalizedPath {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.nodes)
}

// NodesOfType returns the names of nodes whose data carries the given type, sorted.
func (g *Graph) NodesOfType(typ string) []NormalizedPath {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []NormalizedPath
	for name, data := range g.nodes {
		if data.Type() == typ {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// AddDependency records that from depends on to. Both nodes must exist; repeated edges are idempotent.
func (g *Graph) AddDependency(from, to NormalizedPath) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addDependency(from, to)
}

func (g *Graph) addDependency(from, to NormalizedPath) error {
	if _, ok := g.nodes[from]; !ok {
		return zerr.With(ErrUnknownNode, "node", from.String())
	}
	if _, ok := g.nodes[to]; !ok {
		return zerr.With(ErrUnknownNode, "node", to.String())
	}
	g.outgoing[from][to] = struct{}{}
	g.incoming[to][from] = struct{}{}
	return nil
}

// RemoveDependency removes the edge between from and to if present.
func (g *Graph) RemoveDependency(from, to NormalizedPath) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if deps, ok := g.outgoing[from]; ok {
		delete(deps, to)
	}
	if deps, ok := g.incoming[to]; ok {
		delete(deps, from)
	}
}

// DirectDependenciesOf returns the nodes the given node depends on, sorted.
func (g *Graph) DirectDependenciesOf(name NormalizedPath) ([]NormalizedPath, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps, ok := g.outgoing[name]
	if !ok {
		return nil, zerr.With(ErrUnknownNode, "node", name.String())
	}
	return sortedKeys(deps), nil
}

// DirectDependentsOf returns the nodes that depend on the given node, sorted.
func (g *Graph) DirectDependentsOf(name NormalizedPath) ([]NormalizedPath, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps, ok := g.incoming[name]
	if !ok {
		return nil, zerr.With(ErrUnknownNode, "node", name.String())
	}
	return sortedKeys(deps), nil
}

// OverallOrder returns every node with dependencies ahead of their dependents.
// Ties are broken lexicographically so the order is deterministic.
func (g *Graph) OverallOrder() ([]NormalizedPath, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.overallOrder()
}

func (g *Graph) overallOrder() ([]NormalizedPath, error) {
	pending := make(map[NormalizedPath]int, len(g.nodes))
	var ready []NormalizedPath
	for name := range g.nodes {
		pending[name] = len(g.outgoing[name])
		if pending[name] == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	order := make([]NormalizedPath, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		var unlocked []NormalizedPath
		for dependent := range g.incoming[name] {
			pending[dependent]--
			if pending[dependent] == 0 {
				unlocked = append(unlocked, dependent)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			slices.Sort(ready)
		}
	}

	if len(order) != len(g.nodes) {
		return nil, g.buildCycleError(pending)
	}
	return order, nil
}

// buildCycleError walks the unresolved remainder of the graph to report one concrete cycle.
func (g *Graph) buildCycleError(pending map[NormalizedPath]int) error {
	var start NormalizedPath
	for _, name := range sortedKeys(g.nodes) {
		if pending[name] > 0 {
			start = name
			break
		}
	}

	seen := make(map[NormalizedPath]int)
	var path []NormalizedPath
	current := start
	for {
		if idx, ok := seen[current]; ok {
			path = append(path[idx:], current)
			break
		}
		seen[current] = len(path)
		path = append(path, current)
		for _, next := range sortedKeys(g.outgoing[current]) {
			if pending[next] > 0 {
				current = next
				break
			}
		}
	}

	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = p.String()
	}
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

// Extract returns a new graph holding name, everything it transitively depends on and everything that
// transitively depends on it, with the edges among them and their data. An absent node yields an empty graph.
func (g *Graph) Extract(name NormalizedPath) *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := NewGraph()
	if _, ok := g.nodes[name]; !ok {
		return out
	}

	keep := map[NormalizedPath]struct{}{name: {}}
	g.collect(name, g.outgoing, keep)
	g.collect(name, g.incoming, keep)

	for node := range keep {
		out.addNode(node, g.nodes[node])
	}
	for node := range keep {
		for to := range g.outgoing[node] {
			if _, ok := keep[to]; ok {
				_ = out.addDependency(node, to)
			}
		}
	}
	return out
}

func (g *Graph) collect(from NormalizedPath, edges map[NormalizedPath]map[NormalizedPath]struct{}, keep map[NormalizedPath]struct{}) {
	queue := []NormalizedPath{from}
	visited := map[NormalizedPath]struct{}{from: {}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for next := range edges[current] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			keep[next] = struct{}{}
			queue = append(queue, next)
		}
	}
}

// Release removes name and then, recursively, every direct dependency left without dependents.
func (g *Graph) Release(name NormalizedPath) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release(name)
	return g
}

func (g *Graph) release(name NormalizedPath) {
	deps, ok := g.outgoing[name]
	if !ok {
		return
	}
	orphans := sortedKeys(deps)
	g.removeNode(name)
	for _, dep := range orphans {
		if incoming, ok := g.incoming[dep]; ok && len(incoming) == 0 {
			g.release(dep)
		}
	}
}

func sortedKeys[V any](m map[NormalizedPath]V) []NormalizedPath {
	keys := make([]NormalizedPath, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
