package hierarchy

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CheckAcyclic walks the child edges depth-first from every node in input order
// and fails with a *CycleError as soon as a node on the current path is reached
// again. On success it returns the post-order of the walk: every node appears
// after all of its descendants, which is the order ComputeClosure expects.
func CheckAcyclic(g *Graph) ([]string, error) {
	states := make(map[string]visitState, len(g.nodes))
	order := make([]string, 0, len(g.nodes))
	stack := make([]string, 0, 16)

	var visit func(id string) error
	visit = func(id string) error {
		switch states[id] {
		case stateVisiting:
			return newCycleError(stack, id)
		case stateDone:
			return nil
		}

		states[id] = stateVisiting
		stack = append(stack, id)
		for _, child := range g.byID[id].Children {
			if err := visit(child); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[id] = stateDone
		order = append(order, id)
		return nil
	}

	for _, node := range g.nodes {
		if err := visit(node.ID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// newCycleError cuts the cycle out of the walk stack. The stack runs parent to
// child, so the path is reversed to read in conforms-to order.
func newCycleError(stack []string, revisited string) *CycleError {
	start := 0
	for i, id := range stack {
		if id == revisited {
			start = i
			break
		}
	}

	walked := append(append([]string{}, stack[start:]...), revisited)
	path := make([]string, len(walked))
	for i, id := range walked {
		path[len(walked)-1-i] = id
	}
	return &CycleError{Path: path}
}
