package hierarchy

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ComputeClosure resolves the descendant set of every node. order must list
// every node after all of its children, as returned by CheckAcyclic. Each
// node's set is built exactly once from the already resolved sets of its
// children, so shared subtrees are never recomputed.
func ComputeClosure(g *Graph, order []string) (DescendantMap, error) {
	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("%w: got %d of %d nodes", ErrIncompleteOrder, len(order), len(g.nodes))
	}
	return closeOver(g, order)
}

// ComputeClosureParallel is ComputeClosure spread over weakly connected
// components, using at most workers goroutines. With workers <= 1 it is
// equivalent to ComputeClosure.
func ComputeClosureParallel(g *Graph, order []string, workers int) (DescendantMap, error) {
	if workers <= 1 {
		return ComputeClosure(g, order)
	}
	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("%w: got %d of %d nodes", ErrIncompleteOrder, len(order), len(g.nodes))
	}

	components := g.components(order)
	if len(components) == 1 {
		return closeOver(g, components[0])
	}

	p := pool.NewWithResults[DescendantMap]().WithErrors().WithMaxGoroutines(workers)
	for _, component := range components {
		p.Go(func() (DescendantMap, error) {
			return closeOver(g, component)
		})
	}

	parts, err := p.Wait()
	if err != nil {
		return nil, err
	}
	return Merge(parts...), nil
}

// closeOver resolves the nodes in order, which must be closed under children
func closeOver(g *Graph, order []string) (DescendantMap, error) {
	dm := make(DescendantMap, len(order))
	for _, id := range order {
		node, found := g.byID[id]
		if !found {
			return nil, fmt.Errorf("node %s not found", id)
		}

		descendants := sets.New[string]()
		for _, child := range node.Children {
			resolved, done := dm[child]
			if !done {
				return nil, fmt.Errorf("%w: %s visited before its child %s", ErrIncompleteOrder, id, child)
			}
			descendants.Insert(child)
			for d := range resolved {
				descendants.Insert(d)
			}
		}
		dm[id] = descendants
	}
	return dm, nil
}

// components splits order into weakly connected components. Each component
// keeps the relative order of its nodes, and components are ordered by the
// position of their first node.
func (g *Graph) components(order []string) [][]string {
	parent := make(map[string]string, len(g.nodes))
	var find func(id string) string
	find = func(id string) string {
		p, ok := parent[id]
		if !ok || p == id {
			parent[id] = id
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}

	for _, node := range g.nodes {
		for _, parentID := range node.Parents {
			a, b := find(node.ID), find(parentID)
			if a != b {
				parent[a] = b
			}
		}
	}

	index := make(map[string]int)
	var out [][]string
	for _, id := range order {
		root := find(id)
		i, seen := index[root]
		if !seen {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], id)
	}
	return out
}

// Merge unions several descendant maps key by key. The inputs are not modified.
func Merge(maps ...DescendantMap) DescendantMap {
	out := make(DescendantMap)
	for _, dm := range maps {
		for id, set := range dm {
			if existing, ok := out[id]; ok {
				out[id] = existing.Union(set)
				continue
			}
			out[id] = set.Clone()
		}
	}
	return out
}

// RootAncestors returns the roots that id transitively conforms to, sorted.
// A root is its own only root ancestor.
func RootAncestors(g *Graph, id string) []string {
	roots := sets.New[string]()
	visited := sets.New[string]()

	var climb func(current string)
	climb = func(current string) {
		if visited.Has(current) {
			return
		}
		visited.Insert(current)

		node, found := g.byID[current]
		if !found {
			return
		}
		if node.IsRoot() {
			roots.Insert(current)
			return
		}
		for _, parentID := range node.Parents {
			climb(parentID)
		}
	}
	climb(id)

	return sets.List(roots)
}
