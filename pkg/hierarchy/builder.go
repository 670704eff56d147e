package hierarchy

import (
	"errors"
	"fmt"
	"maps"

	"github.com/dominikbraun/graph"
)

// BuildGraph converts an ordered list of records into a validated Graph.
// Identifiers are collected first and parent references checked afterwards,
// so every record with undeclared parents is reported regardless of ordering.
func BuildGraph(records []Record) (*Graph, error) {
	g := &Graph{
		nodes: make([]*Node, 0, len(records)),
		byID:  make(map[string]*Node, len(records)),
	}

	for i, rec := range records {
		if rec.Identifier == "" {
			return nil, &EmptyIdentifierError{Index: i}
		}
		if _, exists := g.byID[rec.Identifier]; exists {
			return nil, &DuplicateIdentifierError{Identifier: rec.Identifier}
		}

		node := &Node{
			ID:       rec.Identifier,
			Parents:  uniqueInOrder(rec.Parents),
			Children: []string{},
			Metadata: maps.Clone(rec.Metadata),
		}
		g.nodes = append(g.nodes, node)
		g.byID[node.ID] = node
	}

	if err := g.checkReferences(); err != nil {
		return nil, err
	}

	// Appending in input order keeps each children list ordered by the
	// position of the declaring record
	for _, node := range g.nodes {
		for _, parentID := range node.Parents {
			parent := g.byID[parentID]
			parent.Children = append(parent.Children, node.ID)
			g.edges++
		}
	}

	directed, err := g.buildDirected()
	if err != nil {
		return nil, fmt.Errorf("failed to build directed graph: %w", err)
	}
	g.directed = directed

	return g, nil
}

// checkReferences verifies that every declared parent is itself a node
func (g *Graph) checkReferences() error {
	var errs []error
	for _, node := range g.nodes {
		var missing []string
		for _, parentID := range node.Parents {
			if _, found := g.byID[parentID]; !found {
				missing = append(missing, parentID)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, &UnknownParentError{Identifier: node.ID, MissingParents: missing})
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// buildDirected mirrors the graph into a dominikbraun/graph directed graph
func (g *Graph) buildDirected() (graph.Graph[string, string], error) {
	dg := graph.New(graph.StringHash, graph.Directed())

	for _, node := range g.nodes {
		opts := []func(*graph.VertexProperties){graph.VertexAttribute("label", node.ID)}
		if node.IsRoot() {
			opts = append(opts, graph.VertexAttribute("shape", "box"))
		}
		if err := dg.AddVertex(node.ID, opts...); err != nil {
			return nil, fmt.Errorf("failed to add vertex %s: %w", node.ID, err)
		}
	}

	for _, node := range g.nodes {
		for i, parentID := range node.Parents {
			var opts []func(*graph.EdgeProperties)
			if i > 0 {
				opts = append(opts, graph.EdgeAttribute("style", "dashed"))
			}
			if err := dg.AddEdge(parentID, node.ID, opts...); err != nil {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", parentID, node.ID, err)
			}
		}
	}

	return dg, nil
}

// uniqueInOrder drops repeated entries, keeping the first occurrence
func uniqueInOrder(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
