package transform

import "github.com/matzehuels/layerank/pkg/dag"

// AssignLayers assigns each node the longest-path rank: sources go to row 0
// and every other node to the maximum over its incoming edges of
// parent.Row + minlen.
//
// AssignLayers is the quick alternative to [RankNetworkSimplex]. It satisfies
// every minlen constraint but does not minimize edge lengths: sources are
// pulled to the top even when their children sit far below.
//
// # Algorithm
//
// Nodes are visited in topological order (Kahn's algorithm) starting from the
// sources in insertion order, so the result is deterministic.
//
// # Cycles
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach
// in-degree zero and keep row 0. Run [BreakCycles] first.
//
// Existing row assignments in the DAG are overwritten.
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		rows[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	out := outEdges(g)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, e := range out[curr] {
			if row := rows[curr] + e.MinLen(); row > rows[e.To] {
				rows[e.To] = row
			}
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	g.SetRows(rows)
}

// outEdges groups the edges of g by source in insertion order.
func outEdges(g *dag.DAG) map[string][]dag.Edge {
	out := make(map[string][]dag.Edge, g.NodeCount())
	for _, e := range g.Edges() {
		out[e.From] = append(out[e.From], e)
	}
	return out
}
