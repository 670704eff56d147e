package hierarchy

import "fmt"

// Materialize converts the graph into a forest. Every node is placed under its
// first declared parent only; further parents are listed in AlsoConformsTo, so
// the forest holds exactly one TreeNode per graph node.
//
// When dm is non-nil every tree edge is checked against it.
func Materialize(g *Graph, dm DescendantMap) (Forest, error) {
	count := 0

	var build func(node *Node) (*TreeNode, error)
	build = func(node *Node) (*TreeNode, error) {
		count++
		tn := &TreeNode{
			Identifier:     node.ID,
			Children:       []*TreeNode{},
			AlsoConformsTo: alsoConformsTo(node),
		}

		for _, childID := range node.Children {
			child := g.byID[childID]
			if child.FirstParent() != node.ID {
				continue
			}
			if dm != nil && !dm.Has(node.ID, childID) {
				return nil, &MaterializationError{
					Identifier: childID,
					Reason:     fmt.Sprintf("not a descendant of %q", node.ID),
				}
			}
			sub, err := build(child)
			if err != nil {
				return nil, err
			}
			tn.Children = append(tn.Children, sub)
		}
		return tn, nil
	}

	forest := Forest{}
	for _, node := range g.nodes {
		if !node.IsRoot() {
			continue
		}
		root, err := build(node)
		if err != nil {
			return nil, err
		}
		forest = append(forest, root)
	}

	if count != len(g.nodes) {
		return nil, &MaterializationError{
			Reason: fmt.Sprintf("forest holds %d nodes, graph has %d", count, len(g.nodes)),
		}
	}
	return forest, nil
}

func alsoConformsTo(node *Node) []string {
	if len(node.Parents) < 2 {
		return []string{}
	}
	out := make([]string, len(node.Parents)-1)
	copy(out, node.Parents[1:])
	return out
}
