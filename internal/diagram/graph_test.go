package diagram

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
)

func abcGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph(
		[]Node{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		[]Edge{
			{From: "A", To: "B", Kind: EdgeData},
			{From: "B", To: "C", Kind: EdgeControl},
		},
	)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	return g
}

func TestNewGraphDerivesEdgeIDs(t *testing.T) {
	g := abcGraph(t)

	edges := g.Edges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].ID != "A->B:data" {
		t.Errorf("expected derived id A->B:data, got %s", edges[0].ID)
	}
	if edges[1].ID != "B->C:control" {
		t.Errorf("expected derived id B->C:control, got %s", edges[1].ID)
	}
}

func TestNewGraphRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
		want  error
	}{
		{
			name:  "empty node id",
			nodes: []Node{{ID: ""}},
			want:  ErrInvalidNode,
		},
		{
			name:  "duplicate node",
			nodes: []Node{{ID: "A"}, {ID: "A"}},
			want:  ErrDuplicateNode,
		},
		{
			name:  "unknown endpoint",
			nodes: []Node{{ID: "A"}},
			edges: []Edge{{From: "A", To: "Z", Kind: EdgeData}},
			want:  ErrUnknownNode,
		},
		{
			name:  "unknown kind",
			nodes: []Node{{ID: "A"}, {ID: "B"}},
			edges: []Edge{{From: "A", To: "B", Kind: "telepathy"}},
			want:  ErrUnknownEdgeKind,
		},
		{
			name:  "duplicate edge",
			nodes: []Node{{ID: "A"}, {ID: "B"}},
			edges: []Edge{
				{From: "A", To: "B", Kind: EdgeData},
				{From: "A", To: "B", Kind: EdgeData},
			},
			want: ErrDuplicateEdge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.nodes, tt.edges)
			if !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParallelEdgesAreIndependent(t *testing.T) {
	g, err := NewGraph(
		[]Node{{ID: "A"}, {ID: "B"}},
		[]Edge{
			{From: "A", To: "B", Kind: EdgeData},
			{From: "A", To: "B", Kind: EdgeControl},
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ActiveEdges(g, Step{Active: "B"})
	want := []string{"A->B:data", "A->B:control"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestActiveEdgesABC(t *testing.T) {
	g := abcGraph(t)

	tests := []struct {
		name string
		step Step
		want []string
	}{
		{"active A", Step{Active: "A"}, []string{"A->B:data"}},
		{"active B highlight A", Step{Active: "B", Highlight: []string{"A"}}, []string{"A->B:data", "B->C:control"}},
		{"active C", Step{Active: "C"}, []string{"B->C:control"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveEdges(g, tt.step)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActiveEdgesSelfLoop(t *testing.T) {
	g, err := NewGraph(
		[]Node{{ID: "A"}, {ID: "B"}},
		[]Edge{{From: "A", To: "A", Kind: EdgeControl}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ActiveEdges(g, Step{Active: "A"}); len(got) != 1 {
		t.Errorf("expected self-loop once, got %v", got)
	}
	if got := ActiveEdges(g, Step{Active: "B"}); len(got) != 0 {
		t.Errorf("expected no edges for B, got %v", got)
	}
}

func TestGraphIsNotAliased(t *testing.T) {
	nodes := []Node{{ID: "A"}, {ID: "B"}}
	g, err := NewGraph(nodes, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nodes[0].ID = "mutated"
	if !g.HasNode("A") {
		t.Error("graph should not alias the caller's slice")
	}

	got := g.Nodes()
	got[1].Label = "mutated"
	if n, _ := g.Node("B"); n.Label != "" {
		t.Error("Nodes should return a copy")
	}
}

func TestValidateScenario(t *testing.T) {
	g := abcGraph(t)

	tests := []struct {
		name     string
		scenario *Scenario
		want     error
	}{
		{"nil", nil, ErrEmptyScenario},
		{"no steps", &Scenario{ID: "s"}, ErrEmptyScenario},
		{"zero duration", &Scenario{ID: "s", Steps: []Step{{Active: "A"}}}, ErrInvalidDuration},
		{"unknown active", &Scenario{ID: "s", Steps: []Step{{Active: "Z", DurationMS: 1}}}, ErrUnknownNode},
		{"unknown highlight", &Scenario{ID: "s", Steps: []Step{{Active: "A", Highlight: []string{"Z"}, DurationMS: 1}}}, ErrUnknownNode},
		{"valid", &Scenario{ID: "s", Steps: []Step{{Active: "A", Highlight: []string{"C"}, DurationMS: 1}}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateScenario(tt.scenario)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}
