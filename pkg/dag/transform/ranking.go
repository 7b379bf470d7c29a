package transform

import (
	"fmt"
	"time"

	"github.com/matzehuels/layerank/pkg/dag"
	"github.com/matzehuels/layerank/pkg/netsimplex"
)

// MetaSearchSize is the graph metadata key read when RankOptions leaves the
// leave-edge search window unset.
const MetaSearchSize = "searchsize"

// RankOptions configures [RankNetworkSimplex].
type RankOptions struct {
	// Solver is passed to [netsimplex.Rank] for every component.
	Solver netsimplex.Options
	// Components ranks each weakly connected component on its own. When
	// false a disconnected graph fails with [netsimplex.ErrDisconnected].
	Components bool
}

// DefaultRankOptions returns options that rank to optimality, component by
// component, without balancing. The search window is left unset so the
// graph's "searchsize" metadata applies.
func DefaultRankOptions() RankOptions {
	solver := netsimplex.DefaultOptions()
	solver.SearchSize = 0
	return RankOptions{Solver: solver, Components: true}
}

// RankStats aggregates the solver statistics over all components.
type RankStats struct {
	netsimplex.Stats
	// Components is the number of components ranked.
	Components int
	// SelfLoops is the number of self loops ignored.
	SelfLoops int
}

// RankNetworkSimplex assigns rows to g with the network simplex method and
// writes them back with [dag.DAG.SetRows].
//
// Edge "minlen" and "weight" metadata become solver constraints; synthetic
// nodes are ranked as virtual nodes. Current rows are kept as the starting
// point when they already satisfy every edge, so re-ranking a ranked graph
// leaves every row and the total length unchanged. The solver may still
// report degenerate pivots while it finds an optimal tree for those rows.
// Self loops constrain nothing and are skipped.
//
// When opts.Solver.SearchSize is not positive, the graph's "searchsize"
// metadata is used if present.
//
// The graph must be acyclic; run [BreakCycles] first on untrusted input.
// On error g is left unchanged.
func RankNetworkSimplex(g *dag.DAG, opts RankOptions) (RankStats, error) {
	start := time.Now()
	var stats RankStats
	if err := g.ValidateEdges(); err != nil {
		return stats, err
	}
	solver := opts.Solver
	if solver.SearchSize <= 0 {
		if n, ok := g.Meta().Int(MetaSearchSize, 0); ok && n > 0 {
			solver.SearchSize = n
		}
	}

	var groups [][]*dag.Node
	if opts.Components {
		groups = components(g)
	} else {
		groups = [][]*dag.Node{g.Nodes()}
	}

	edges := g.Edges()
	rows := make(map[string]int, g.NodeCount())
	for i, nodes := range groups {
		sg, ids, err := buildSolverGraph(nodes, edges)
		if err != nil {
			return stats, err
		}
		s, err := netsimplex.Rank(sg, solver)
		if err != nil {
			if len(groups) > 1 {
				return stats, fmt.Errorf("component %d: %w", i, err)
			}
			return stats, err
		}
		for id, n := range ids {
			rows[id] = sg.Rank(n)
		}
		stats.Nodes += s.Nodes
		stats.Edges += s.Edges
		stats.Iterations += s.Iterations
		stats.Degenerate += s.Degenerate
		stats.Capped = stats.Capped || s.Capped
		stats.TotalLength += s.TotalLength
		stats.Components++
	}
	for _, e := range edges {
		if e.From == e.To {
			stats.SelfLoops++
		}
	}

	g.SetRows(rows)
	stats.Duration = time.Since(start)
	return stats, nil
}

// buildSolverGraph converts the nodes of one component and the edges between
// them into a solver graph. It returns the node index of every ID.
func buildSolverGraph(nodes []*dag.Node, edges []dag.Edge) (*netsimplex.Graph, map[string]int, error) {
	sg := netsimplex.NewGraph()
	ids := make(map[string]int, len(nodes))
	for _, n := range nodes {
		idx, err := sg.AddLabeledNode(n.ID, n.IsSynthetic())
		if err != nil {
			return nil, nil, err
		}
		sg.SetRank(idx, n.Row)
		ids[n.ID] = idx
	}
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		tail, okT := ids[e.From]
		head, okH := ids[e.To]
		if !okT || !okH {
			continue
		}
		if _, err := sg.AddEdge(tail, head, e.MinLen(), e.Weight()); err != nil {
			return nil, nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return sg, ids, nil
}

// components splits g into weakly connected components. Components are
// ordered by their first node and list nodes in insertion order.
func components(g *dag.DAG) [][]*dag.Node {
	nodes := g.Nodes()
	comp := make(map[string]int, len(nodes))
	count := 0
	for _, n := range nodes {
		if _, seen := comp[n.ID]; seen {
			continue
		}
		comp[n.ID] = count
		stack := []string{n.ID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, list := range [][]string{g.Children(id), g.Parents(id)} {
				for _, w := range list {
					if _, seen := comp[w]; !seen {
						comp[w] = count
						stack = append(stack, w)
					}
				}
			}
		}
		count++
	}

	groups := make([][]*dag.Node, count)
	for _, n := range nodes {
		groups[comp[n.ID]] = append(groups[comp[n.ID]], n)
	}
	return groups
}
