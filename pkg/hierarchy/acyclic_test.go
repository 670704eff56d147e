package hierarchy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheckAcyclic(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		wantPath []string
	}{
		{
			name:    "diamond",
			records: diamond(),
		},
		{
			name:    "forest",
			records: []Record{rec("A"), rec("B"), rec("C", "A"), rec("D", "B", "C")},
		},
		{
			name:     "two node cycle",
			records:  []Record{rec("A", "B"), rec("B", "A")},
			wantPath: []string{"A", "B", "A"},
		},
		{
			name:     "self reference",
			records:  []Record{rec("A", "A")},
			wantPath: []string{"A", "A"},
		},
		{
			name:     "three node cycle",
			records:  []Record{rec("A", "C"), rec("B", "A"), rec("C", "B")},
			wantPath: []string{"A", "C", "B", "A"},
		},
		{
			name: "cycle below a valid root",
			records: []Record{
				rec("root"),
				rec("X", "root", "Z"),
				rec("Y", "X"),
				rec("Z", "Y"),
			},
			wantPath: []string{"X", "Z", "Y", "X"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildGraph(tt.records)
			if err != nil {
				t.Fatalf("BuildGraph() error = %v", err)
			}

			order, err := CheckAcyclic(g)
			if tt.wantPath == nil {
				if err != nil {
					t.Fatalf("CheckAcyclic() error = %v", err)
				}
				assertReverseTopological(t, g, order)
				return
			}

			var cycle *CycleError
			if !errors.As(err, &cycle) {
				t.Fatalf("Expected CycleError, got %v", err)
			}
			if diff := cmp.Diff(tt.wantPath, cycle.Path); diff != "" {
				t.Errorf("cycle path mismatch (-want +got):\n%s", diff)
			}
			if order != nil {
				t.Errorf("Expected no order on failure, got %v", order)
			}
		})
	}
}

func TestCycleError_PathFollowsConformance(t *testing.T) {
	records := []Record{rec("A", "C"), rec("B", "A"), rec("C", "B")}
	g, err := BuildGraph(records)
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}

	_, err = CheckAcyclic(g)
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("Expected CycleError, got %v", err)
	}

	// Each step of the path must be a declared conformance
	for i := 0; i+1 < len(cycle.Path); i++ {
		node, _ := g.Node(cycle.Path[i])
		if !contains(node.Parents, cycle.Path[i+1]) {
			t.Errorf("%s does not conform to %s", cycle.Path[i], cycle.Path[i+1])
		}
	}
}

func TestCycleError_Message(t *testing.T) {
	err := &CycleError{Path: []string{"A", "B", "A"}}
	if got, want := err.Error(), "conformance cycle: A -> B -> A"; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// assertReverseTopological checks that every node appears exactly once and
// after all of its children
func assertReverseTopological(t *testing.T, g *Graph, order []string) {
	t.Helper()

	if len(order) != g.Len() {
		t.Fatalf("Expected %d nodes in order, got %d", g.Len(), len(order))
	}
	position := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := position[id]; dup {
			t.Fatalf("Node %s appears twice in order", id)
		}
		position[id] = i
	}
	for _, node := range g.Nodes() {
		for _, child := range node.Children {
			if position[child] > position[node.ID] {
				t.Errorf("Child %s ordered after parent %s", child, node.ID)
			}
		}
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
