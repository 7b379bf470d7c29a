// Package pkg provides the core libraries for layerank, an optimal node
// ranking service for layered graph drawing.
//
// # Overview
//
// layerank assigns every node of a directed graph an integer rank (its row in
// a layered drawing) so that each edge points downward by at least its
// minimum length while the weighted sum of edge lengths is as small as
// possible. The pkg directory is organized into these areas:
//
//  1. [netsimplex] - The network simplex ranking solver
//  2. [dag] - Graph structure with row-aware nodes and edge metadata
//  3. [dag/transform] - Cycle breaking, ranking and edge subdivision
//  4. [pipeline] - Orchestration (rank → render) with caching
//  5. [io] and [render] - JSON node-link interchange and Graphviz output
//
// # Architecture
//
// The typical data flow through layerank:
//
//	node-link JSON
//	     ↓
//	[io] package (decode into a DAG)
//	     ↓
//	[dag/transform] package (break cycles, rank, subdivide)
//	     ↓
//	[netsimplex] package (solve each connected component)
//	     ↓
//	JSON/DOT/SVG/PNG/PDF output
//
// # Quick Start
//
//	g, _ := io.ReadJSON(r)
//	res, err := transform.Normalize(g, transform.DefaultNormalizeOptions())
//	if err != nil {
//	    return err
//	}
//	fmt.Println("total edge length:", res.Rank.TotalLength)
//
// The solver can also be driven directly:
//
//	sg := netsimplex.NewGraph()
//	a, _ := sg.AddNode(false)
//	b, _ := sg.AddNode(false)
//	_, _ = sg.AddEdge(a, b, 1, 1)
//	stats, err := netsimplex.Rank(sg, netsimplex.DefaultOptions())
//
// # Infrastructure
//
// [cache] - File, Redis and null caches for ranked graphs and renders.
//
// [observability] - Hooks for rank, cache and HTTP events. The [observability/prom]
// subpackage implements them with Prometheus collectors.
//
// [errors] - Coded errors shared by the CLI and the HTTP server.
//
// [buildinfo] - Version information stamped at link time.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/netsimplex/...         # Solver only
//	go test -run Example                 # Examples only
//
// [netsimplex]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/netsimplex
// [dag]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/dag/transform
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/observability/prom
// [errors]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/layerank/pkg/buildinfo
package pkg
