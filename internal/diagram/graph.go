package diagram

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// EdgeKind classifies a connection between two components.
type EdgeKind string

const (
	EdgeData          EdgeKind = "data"
	EdgeControl       EdgeKind = "control"
	EdgeAPI           EdgeKind = "api"
	EdgeBidirectional EdgeKind = "bidirectional"
)

// Valid reports whether k is one of the known edge kinds.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeData, EdgeControl, EdgeAPI, EdgeBidirectional:
		return true
	}
	return false
}

// Node is a component of the client architecture diagram.
// Only ID carries behaviour; the rest is display metadata.
type Node struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label,omitempty" yaml:"label"`
	Layer       string `json:"layer,omitempty" yaml:"layer"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Edge is a labelled connection between two nodes.
// Several edges may join the same pair of nodes; each is independent.
type Edge struct {
	ID    string   `json:"id" yaml:"id"`
	From  string   `json:"from" yaml:"from"`
	To    string   `json:"to" yaml:"to"`
	Kind  EdgeKind `json:"kind" yaml:"kind"`
	Label string   `json:"label,omitempty" yaml:"label"`
}

// DefaultEdgeID is the identifier given to an edge declared without one.
func DefaultEdgeID(from, to string, kind EdgeKind) string {
	return fmt.Sprintf("%s->%s:%s", from, to, kind)
}

// Graph is the static set of nodes and edges being visualized.
// A Graph is never modified after NewGraph returns, so it may be shared
// between any number of playback engines.
type Graph struct {
	nodes     []Node
	edges     []Edge
	nodeIndex map[string]int
}

// NewGraph validates nodes and edges and builds a Graph.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes:     append([]Node(nil), nodes...),
		edges:     make([]Edge, 0, len(edges)),
		nodeIndex: make(map[string]int, len(nodes)),
	}

	for i, n := range g.nodes {
		if n.ID == "" {
			return nil, errors.Wrapf(ErrInvalidNode, "node %d has no id", i)
		}
		if _, dup := g.nodeIndex[n.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateNode, "node %q", n.ID)
		}
		g.nodeIndex[n.ID] = i
	}

	edgeIDs := make(map[string]struct{}, len(edges))
	for i, e := range edges {
		if _, ok := g.nodeIndex[e.From]; !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "edge %d: from %q", i, e.From)
		}
		if _, ok := g.nodeIndex[e.To]; !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "edge %d: to %q", i, e.To)
		}
		if !e.Kind.Valid() {
			return nil, errors.Wrapf(ErrUnknownEdgeKind, "edge %d: kind %q", i, e.Kind)
		}
		if e.ID == "" {
			e.ID = DefaultEdgeID(e.From, e.To, e.Kind)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return nil, errors.Wrapf(ErrDuplicateEdge, "edge %q", e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
		g.edges = append(g.edges, e)
	}

	return g, nil
}

// HasNode returns true if the graph contains a node with the given ID.
func (g *Graph) HasNode(nodeID string) bool {
	_, ok := g.nodeIndex[nodeID]
	return ok
}

// Node returns the node with the given ID.
func (g *Graph) Node(nodeID string) (Node, bool) {
	i, ok := g.nodeIndex[nodeID]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Nodes returns a copy of the graph's nodes in declaration order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Edges returns a copy of the graph's edges in declaration order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// MarshalJSON renders the graph for the viewer.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{g.nodes, g.edges})
}
