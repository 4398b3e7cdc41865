package diagram

// ActiveEdges returns the IDs of every edge touching the step's active node
// or any of its highlighted nodes, in graph declaration order.
//
// The result depends only on (step, graph). Callers recompute it on every
// transition instead of patching a previous set.
func ActiveEdges(g *Graph, step Step) []string {
	return EdgesTouching(g, append([]string{step.Active}, step.Highlight...)...)
}

// EdgesTouching returns the IDs of every edge with an endpoint in nodeIDs.
func EdgesTouching(g *Graph, nodeIDs ...string) []string {
	touched := make(map[string]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		if id != "" {
			touched[id] = struct{}{}
		}
	}

	ids := []string{}
	for _, e := range g.edges {
		_, from := touched[e.From]
		_, to := touched[e.To]
		if from || to {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
