// Package dag provides the string-keyed directed graph that layerank reads,
// ranks and writes back.
//
// # Overview
//
// A [DAG] holds nodes identified by unique string IDs, each carrying a Row
// (its rank), and directed edges between them. Ranking assigns rows so that
// every edge points downward by at least its minimum length; the layered
// drawing stages that follow read the result row by row.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "app"})
//	g.AddNode(dag.Node{ID: "lib"})
//	g.AddEdge(dag.Edge{From: "app", To: "lib", Meta: dag.Metadata{"minlen": 2}})
//
// Query the graph with [DAG.Children], [DAG.Parents], [DAG.NodesInRow] and
// related methods. Iteration always follows insertion order, so ranking the
// same input twice yields the same rows.
//
// # Edge Attributes
//
// Edges carry their ranking attributes in metadata, like Graphviz attributes:
// "minlen" (minimum row separation, default 1) and "weight" (cost factor of
// the edge length, default 1). [Edge.MinLen] and [Edge.Weight] read them;
// [DAG.ValidateEdges] rejects negative or non-integer values.
//
// # Node Types
//
//   - [NodeKindRegular]: original vertices from the input
//   - [NodeKindSubdivider]: synthetic nodes that break long edges into segments
//   - [NodeKindAuxiliary]: caller-supplied helper nodes
//
// Synthetic nodes are ranked as virtual nodes: they constrain the layout but
// are ignored when rows are normalized and balanced.
//
// # Validation
//
// [DAG.Validate] checks a ranked graph: every edge spans at least its minlen
// and no cycle exists. [DAG.ValidateLayered] checks the stricter shape left by
// subdivision, where every edge connects consecutive rows.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
//
// # Related Packages
//
// The [transform] subpackage ranks graphs and prepares them for drawing:
// cycle breaking, longest-path layering, network simplex ranking and edge
// subdivision.
//
// [transform]: github.com/matzehuels/layerank/pkg/dag/transform
package dag
