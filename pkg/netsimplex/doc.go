// Package netsimplex assigns integer ranks (layers) to the nodes of a directed
// graph with the network simplex method.
//
// # Overview
//
// Each edge carries a minimum length and a weight. Ranking finds integer
// ranks such that rank(head) - rank(tail) >= minlen for every edge while
// minimizing the sum of weight * (rank(head) - rank(tail)). This is the
// layer assignment step of Sugiyama-style layered drawing: short edges mean
// fewer subdivider nodes and a more compact layout.
//
// # Basic Usage
//
// Build a [Graph] with [Graph.AddNode] and [Graph.AddEdge], then call [Rank]:
//
//	g := netsimplex.NewGraph()
//	a, _ := g.AddNode(false)
//	b, _ := g.AddNode(false)
//	_, _ = g.AddEdge(a, b, 1, 1)
//	stats, err := netsimplex.Rank(g, netsimplex.DefaultOptions())
//
// Ranks are read back with [Graph.Rank] or [Graph.Ranks]. When the graph
// already carries ranks that satisfy every edge, they are used as the
// starting point; otherwise a longest-path ranking is computed first.
//
// # Algorithm
//
// The solver follows the classic four steps: an initial feasible ranking, a
// spanning tree of tight edges (slack zero) grown by merging tight subtrees
// smallest first, cut values for every tree edge, and a pivot loop that
// exchanges a tree edge with negative cut value for the non-tree edge of
// minimum slack crossing the same cut. DFS low/lim intervals make subtree
// membership an O(1) test and are renumbered incrementally after each pivot.
//
// # Balancing
//
// After the pivot loop one of three passes runs, selected by [BalanceMode]:
//
//   - [BalanceNone]: shift ranks so the smallest non-virtual rank is zero
//   - [BalanceTopBottom]: spread cost-indifferent nodes over sparse ranks
//   - [BalanceLeftRight]: center subtrees within the slack of zero cut edges
//
// # Errors
//
// [ErrDisconnected] is returned for graphs with more than one component and
// [ErrInternal] for cycles or failed consistency checks. [StatusOf] maps an
// error to the integer status 0, 1 or 2.
//
// # Concurrency
//
// A [Graph] must not be ranked or modified from several goroutines at once.
// Rank keeps all scratch state in a per-call session, so distinct graphs may
// be ranked concurrently.
package netsimplex
