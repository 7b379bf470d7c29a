// Package transform ranks a DAG and prepares it for layered drawing.
//
// # Overview
//
// Input graphs arrive with arbitrary structure and no rows. This package
// turns them into the canonical layered form that ordering and coordinate
// stages expect:
//
//   - Cycles are broken so a ranking exists
//   - Every node gets a row such that edges point downward by at least their
//     minlen, with short edges preferred
//   - Edges spanning several rows are split into unit-length segments
//
// [Normalize] applies the steps in order.
//
// # Ranking
//
// [RankNetworkSimplex] computes an optimal ranking: among all rankings that
// respect every edge's minlen, it minimizes the weighted sum of edge lengths.
// It converts the graph to a [netsimplex.Graph], ranks each weakly connected
// component, and writes the rows back.
//
// [AssignLayers] is the quick longest-path alternative. It is feasible but
// not optimal: every source is pulled to row 0.
//
// # Cycle Breaking
//
// [BreakCycles] detects and removes back edges with a depth-first search.
// Real-world graphs sometimes contain circular references, and ranking
// requires an acyclic graph.
//
// # Edge Subdivision
//
// [Subdivide] breaks long edges into chains of single-row hops by inserting
// subdivider nodes:
//
//	Before: app (row 0) → core (row 3)
//	After:  app → app_sub_1 → app_sub_2 → core
//
// # Usage
//
//	res, err := transform.Normalize(g, transform.DefaultNormalizeOptions())
//
// For fine-grained control, apply the steps individually:
//
//	transform.BreakCycles(g)
//	stats, err := transform.RankNetworkSimplex(g, transform.DefaultRankOptions())
//	transform.Subdivide(g)
//
// [netsimplex.Graph]: github.com/matzehuels/layerank/pkg/netsimplex.Graph
package transform
