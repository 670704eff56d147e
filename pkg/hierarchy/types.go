package hierarchy

import (
	"github.com/dominikbraun/graph"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Record is a single row of a type identifier table
type Record struct {
	// Identifier is the unique name of the type, e.g. "public.jpeg"
	Identifier string `json:"identifier"`

	// Parents lists the identifiers this type conforms to, in declaration order
	Parents []string `json:"parents,omitempty"`

	// Metadata is carried through untouched (tags, description, ...)
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Node is a declared identifier within a Graph
type Node struct {
	// ID is the identifier of the node
	ID string

	// Parents are the declared parents in input order
	Parents []string

	// Children are the direct children, ordered by the position of the
	// record that declared them
	Children []string

	// Metadata is the passthrough metadata of the declaring record
	Metadata map[string]string
}

// FirstParent returns the parent the node is materialized under, or "" for roots
func (n *Node) FirstParent() string {
	if len(n.Parents) == 0 {
		return ""
	}
	return n.Parents[0]
}

// IsRoot reports whether the node declares no parents
func (n *Node) IsRoot() bool {
	return len(n.Parents) == 0
}

// Graph is the validated conformance graph. It is read-only once BuildGraph returns.
type Graph struct {
	// nodes holds every node in input order
	nodes []*Node

	// byID provides lookup of nodes by identifier
	byID map[string]*Node

	// edges is the number of parent -> child edges
	edges int

	// directed mirrors the hierarchy as parent -> child edges for rendering
	directed graph.Graph[string, string]
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of declared conformance edges
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Nodes returns all nodes in input order
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Node retrieves a node by identifier
func (g *Graph) Node(id string) (*Node, bool) {
	node, found := g.byID[id]
	return node, found
}

// Roots returns the identifiers of nodes without parents, in input order
func (g *Graph) Roots() []string {
	var roots []string
	for _, node := range g.nodes {
		if node.IsRoot() {
			roots = append(roots, node.ID)
		}
	}
	return roots
}

// MultiParent returns the identifiers of nodes declaring more than one parent
func (g *Graph) MultiParent() []string {
	var ids []string
	for _, node := range g.nodes {
		if len(node.Parents) > 1 {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

// Directed returns the hierarchy as a dominikbraun/graph directed graph with
// parent -> child edges. Edges to a node's secondary parents carry a
// "style=dashed" attribute.
func (g *Graph) Directed() graph.Graph[string, string] {
	return g.directed
}

// Stats summarizes the shape of a Graph
type Stats struct {
	Nodes       int
	Edges       int
	Roots       int
	MultiParent int
}

// Stats returns node, edge, root and multi-parent counts
func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:       len(g.nodes),
		Edges:       g.edges,
		Roots:       len(g.Roots()),
		MultiParent: len(g.MultiParent()),
	}
}

// DescendantMap maps every identifier to the identifiers that transitively
// conform to it. Leaves map to an empty set.
type DescendantMap map[string]sets.Set[string]

// Descendants returns the sorted descendants of id
func (dm DescendantMap) Descendants(id string) []string {
	return sets.List(dm[id])
}

// Has reports whether descendant transitively conforms to ancestor
func (dm DescendantMap) Has(ancestor, descendant string) bool {
	return dm[ancestor].Has(descendant)
}

// Lookup converts the map to identifier -> sorted descendant list
func (dm DescendantMap) Lookup() map[string][]string {
	out := make(map[string][]string, len(dm))
	for id, set := range dm {
		out[id] = sets.List(set)
	}
	return out
}

// TreeNode is a node of the materialized forest
type TreeNode struct {
	// Identifier is the type identifier
	Identifier string `json:"identifier"`

	// Children are the nodes whose first declared parent is this node
	Children []*TreeNode `json:"children"`

	// AlsoConformsTo lists the secondary parents of this node
	AlsoConformsTo []string `json:"also_conforms_to"`
}

// Forest is the ordered list of root TreeNodes
type Forest []*TreeNode

// Count returns the total number of TreeNodes in the forest
func (f Forest) Count() int {
	total := 0
	for _, root := range f {
		total += 1 + Forest(root.Children).Count()
	}
	return total
}

// Walk visits every TreeNode depth-first, parents before children
func (f Forest) Walk(fn func(node *TreeNode, depth int)) {
	var walk func(nodes []*TreeNode, depth int)
	walk = func(nodes []*TreeNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(f, 0)
}
