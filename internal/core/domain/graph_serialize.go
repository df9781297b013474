package domain

import (
	"encoding/json"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// GraphKind marks a payload as a serialized dependency graph.
const GraphKind = "quire.dependency-graph/v1"

// graphMarkerKey is the JSON key carrying GraphKind.
const graphMarkerKey = "$graph"

// SerializedGraph is the canonical transfer form of a Graph: nodes sorted by name,
// dependencies sorted by (from, to).
type SerializedGraph struct {
	Kind         string           `json:"$graph"`
	Nodes        []SerializedNode `json:"nodes"`
	Dependencies []SerializedEdge `json:"dependencies"`
}

// SerializedNode is one node of a SerializedGraph.
type SerializedNode struct {
	Name NormalizedPath `json:"name"`
	Data NodeData       `json:"data,omitempty"`
}

// SerializedEdge is one dependency of a SerializedGraph.
type SerializedEdge struct {
	From NormalizedPath `json:"from"`
	To   NormalizedPath `json:"to"`
}

// Serialize returns the canonical form of the graph. A cyclic graph cannot be serialized.
func (g *Graph) Serialize() (SerializedGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, err := g.overallOrder(); err != nil {
		return SerializedGraph{}, err
	}

	out := SerializedGraph{
		Kind:         GraphKind,
		Nodes:        make([]SerializedNode, 0, len(g.nodes)),
		Dependencies: []SerializedEdge{},
	}
	for _, name := range sortedKeys(g.nodes) {
		out.Nodes = append(out.Nodes, SerializedNode{Name: name, Data: maps.Clone(g.nodes[name])})
		for _, to := range sortedKeys(g.outgoing[name]) {
			out.Dependencies = append(out.Dependencies, SerializedEdge{From: name, To: to})
		}
	}
	return out, nil
}

// MarshalJSON encodes the canonical serialized form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	s, err := g.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Deserialize builds a new graph from its serialized form.
func Deserialize(s SerializedGraph) (*Graph, error) {
	g := NewGraph()
	if err := g.Consume(s); err != nil {
		return nil, err
	}
	return g, nil
}

// Consume merges another graph into this one, adding missing nodes and edges. Consuming the same
// payload twice has no further effect. A payload with an edge to an unknown node is rejected before
// anything is merged. Accepted payloads: *Graph, SerializedGraph, *SerializedGraph,
// JSON bytes, and generic maps decoded from JSON.
func (g *Graph) Consume(src any) error {
	s, err := toSerialized(src)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	incoming := make(map[NormalizedPath]struct{}, len(s.Nodes))
	for _, node := range s.Nodes {
		incoming[node.Name] = struct{}{}
	}
	for _, edge := range s.Dependencies {
		for _, end := range []NormalizedPath{edge.From, edge.To} {
			_, known := g.nodes[end]
			if _, ok := incoming[end]; !ok && !known {
				return zerr.With(zerr.With(ErrUnknownNode, "node", end.String()),
					"edge", edge.From.String()+" -> "+edge.To.String())
			}
		}
	}

	for _, node := range s.Nodes {
		if _, exists := g.nodes[node.Name]; exists && node.Data == nil {
			continue
		}
		g.addNode(node.Name, node.Data)
	}
	for _, edge := range s.Dependencies {
		if err := g.addDependency(edge.From, edge.To); err != nil {
			return zerr.With(err, "edge", edge.From.String()+" -> "+edge.To.String())
		}
	}
	return nil
}

func toSerialized(src any) (SerializedGraph, error) {
	switch v := src.(type) {
	case *Graph:
		return v.Serialize()
	case SerializedGraph:
		return v, checkKind(v)
	case *SerializedGraph:
		if v == nil {
			return SerializedGraph{}, ErrInvalidGraphPayload
		}
		return *v, checkKind(*v)
	case []byte:
		return decodeSerialized(v)
	case json.RawMessage:
		return decodeSerialized(v)
	case map[string]any:
		if !Is(v) {
			return SerializedGraph{}, ErrInvalidGraphPayload
		}
		data, err := json.Marshal(v)
		if err != nil {
			return SerializedGraph{}, zerr.Wrap(err, "failed to re-encode graph payload")
		}
		return decodeSerialized(data)
	default:
		return SerializedGraph{}, ErrInvalidGraphPayload
	}
}

func decodeSerialized(data []byte) (SerializedGraph, error) {
	var s SerializedGraph
	if err := json.Unmarshal(data, &s); err != nil {
		return SerializedGraph{}, zerr.Wrap(err, "failed to decode graph payload")
	}
	return s, checkKind(s)
}

func checkKind(s SerializedGraph) error {
	if s.Kind != GraphKind {
		return zerr.With(ErrInvalidGraphPayload, "kind", s.Kind)
	}
	return nil
}

// Is reports whether value is a Graph or a serialized graph payload.
func Is(value any) bool {
	switch v := value.(type) {
	case *Graph:
		return v != nil
	case SerializedGraph:
		return v.Kind == GraphKind
	case *SerializedGraph:
		return v != nil && v.Kind == GraphKind
	case map[string]any:
		kind, _ := v[graphMarkerKey].(string)
		return kind == GraphKind
	default:
		return false
	}
}

// Equal reports whether two serialized graphs hold the same nodes, data and edges.
func (s SerializedGraph) Equal(other SerializedGraph) bool {
	if s.Kind != other.Kind || len(s.Nodes) != len(other.Nodes) {
		return false
	}
	if !slices.Equal(s.Dependencies, other.Dependencies) {
		return false
	}
	return slices.EqualFunc(s.Nodes, other.Nodes, func(a, b SerializedNode) bool {
		return a.Name == b.Name && maps.EqualFunc(a.Data, b.Data, func(x, y any) bool {
			return stringify(x) == stringify(y)
		})
	})
}

func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
