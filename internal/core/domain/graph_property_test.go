package domain_test

import (
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.trai.ch/quire/internal/core/domain"
)

const maxPropertyNodes = 8

type edge struct{ from, to int }

// buildDAG decodes edge codes into a graph over n nodes. Edges only point from a higher to a
// lower index so the result is always acyclic.
func buildDAG(n int, codes []int, reverse bool) (*domain.Graph, []edge) {
	var edges []edge
	for _, code := range codes {
		from, to := code/maxPropertyNodes, code%maxPropertyNodes
		if from < n && to < from {
			edges = append(edges, edge{from: from, to: to})
		}
	}

	g := domain.NewGraph()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if reverse {
		slices.Reverse(order)
		slices.Reverse(edges)
	}
	for _, i := range order {
		g.AddNode(nodeName(i), domain.NodeData{"type": domain.NodeTypeEntry, "index": i})
	}
	for _, e := range edges {
		_ = g.AddDependency(nodeName(e.from), nodeName(e.to))
	}
	return g, edges
}

func nodeName(i int) domain.NormalizedPath {
	return domain.NormalizedPath(fmt.Sprintf("docs/page-%d.md", i))
}

func TestGraphProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	nodes := gen.IntRange(1, maxPropertyNodes)
	codes := gen.SliceOf(gen.IntRange(0, maxPropertyNodes*maxPropertyNodes-1))

	properties.Property("serialize round-trips to an equal graph", prop.ForAll(
		func(n int, codes []int) bool {
			g, _ := buildDAG(n, codes, false)
			s, err := g.Serialize()
			if err != nil {
				return false
			}
			back, err := domain.Deserialize(s)
			if err != nil {
				return false
			}
			again, err := back.Serialize()
			return err == nil && s.Equal(again)
		},
		nodes, codes,
	))

	properties.Property("serialization ignores insertion order", prop.ForAll(
		func(n int, codes []int) bool {
			forward, _ := buildDAG(n, codes, false)
			backward, _ := buildDAG(n, codes, true)
			s1, err1 := forward.Serialize()
			s2, err2 := backward.Serialize()
			return err1 == nil && err2 == nil && s1.Equal(s2)
		},
		nodes, codes,
	))

	properties.Property("overall order respects every edge", prop.ForAll(
		func(n int, codes []int) bool {
			g, edges := buildDAG(n, codes, false)
			order, err := g.OverallOrder()
			if err != nil || len(order) != n {
				return false
			}
			for _, e := range edges {
				if slices.Index(order, nodeName(e.to)) > slices.Index(order, nodeName(e.from)) {
					return false
				}
			}
			return true
		},
		nodes, codes,
	))

	properties.Property("extract keeps the node and stays connected to it", prop.ForAll(
		func(n int, codes []int, pick int) bool {
			g, _ := buildDAG(n, codes, false)
			target := nodeName(pick % n)
			sub := g.Extract(target)
			if !sub.HasNode(target) {
				return false
			}
			// Extracting again from the extracted graph must reach every node.
			return sub.Extract(target).Size() == sub.Size()
		},
		nodes, codes, gen.IntRange(0, maxPropertyNodes-1),
	))

	properties.Property("release drops the node and its orphaned dependencies", prop.ForAll(
		func(n int, codes []int, pick int) bool {
			g, _ := buildDAG(n, codes, false)
			target := nodeName(pick % n)

			deps, _ := g.DirectDependenciesOf(target)
			var soleDependents []domain.NormalizedPath
			for _, dep := range deps {
				dependents, _ := g.DirectDependentsOf(dep)
				if len(dependents) == 1 {
					soleDependents = append(soleDependents, dep)
				}
			}

			g.Release(target)
			if g.HasNode(target) {
				return false
			}
			for _, dep := range soleDependents {
				if g.HasNode(dep) {
					return false
				}
			}
			return true
		},
		nodes, codes, gen.IntRange(0, maxPropertyNodes-1),
	))

	properties.TestingRun(t)
}
