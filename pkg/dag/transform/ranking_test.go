package transform

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerank/pkg/dag"
	"github.com/matzehuels/layerank/pkg/netsimplex"
)

func newGraph(t *testing.T, ids []string, edges ...dag.Edge) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s->%s): %v", e.From, e.To, err)
		}
	}
	return g
}

func rowsOf(g *dag.DAG) map[string]int {
	rows := make(map[string]int)
	for _, n := range g.Nodes() {
		rows[n.ID] = n.Row
	}
	return rows
}

func TestRankNetworkSimplex_PullsSourceDown(t *testing.T) {
	// AssignLayers puts x at row 0; the optimal ranking moves it next to c.
	g := newGraph(t, []string{"a", "b", "c", "x"},
		dag.Edge{From: "a", To: "b"},
		dag.Edge{From: "b", To: "c"},
		dag.Edge{From: "x", To: "c"},
	)

	stats, err := RankNetworkSimplex(g, DefaultRankOptions())
	if err != nil {
		t.Fatalf("RankNetworkSimplex() error = %v", err)
	}

	want := map[string]int{"a": 0, "b": 1, "c": 2, "x": 1}
	for id, row := range want {
		if got := rowsOf(g)[id]; got != row {
			t.Errorf("row(%s) = %d, want %d", id, got, row)
		}
	}
	if stats.TotalLength != 3 {
		t.Errorf("TotalLength = %d, want 3", stats.TotalLength)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() after ranking = %v", err)
	}
}

func TestRankNetworkSimplex_Components(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "lonely", "c", "d"},
		dag.Edge{From: "a", To: "b"},
		dag.Edge{From: "c", To: "d", Meta: dag.Metadata{"minlen": 3}},
	)

	stats, err := RankNetworkSimplex(g, DefaultRankOptions())
	if err != nil {
		t.Fatalf("RankNetworkSimplex() error = %v", err)
	}
	if stats.Components != 3 {
		t.Errorf("Components = %d, want 3", stats.Components)
	}
	rows := rowsOf(g)
	if rows["a"] != 0 || rows["b"] != 1 || rows["lonely"] != 0 || rows["c"] != 0 || rows["d"] != 3 {
		t.Errorf("rows = %v", rows)
	}
}

func TestRankNetworkSimplex_DisconnectedWithoutComponents(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c"}, dag.Edge{From: "a", To: "b"})
	opts := DefaultRankOptions()
	opts.Components = false

	_, err := RankNetworkSimplex(g, opts)

	if !errors.Is(err, netsimplex.ErrDisconnected) {
		t.Errorf("error = %v, want ErrDisconnected", err)
	}
}

func TestRankNetworkSimplex_CycleLeavesRowsUnchanged(t *testing.T) {
	g := newGraph(t, []string{"a", "b"},
		dag.Edge{From: "a", To: "b"},
		dag.Edge{From: "b", To: "a"},
	)
	g.SetRows(map[string]int{"a": 4, "b": 4})

	_, err := RankNetworkSimplex(g, DefaultRankOptions())

	if !errors.Is(err, netsimplex.ErrCycle) {
		t.Fatalf("error = %v, want ErrCycle", err)
	}
	if rows := rowsOf(g); rows["a"] != 4 || rows["b"] != 4 {
		t.Errorf("rows changed on error: %v", rows)
	}
}

func TestRankNetworkSimplex_InvalidAttr(t *testing.T) {
	g := newGraph(t, []string{"a", "b"},
		dag.Edge{From: "a", To: "b", Meta: dag.Metadata{"minlen": "long"}})

	_, err := RankNetworkSimplex(g, DefaultRankOptions())

	if !errors.Is(err, dag.ErrInvalidEdgeAttr) {
		t.Errorf("error = %v, want ErrInvalidEdgeAttr", err)
	}
}

func TestRankNetworkSimplex_SelfLoopSkipped(t *testing.T) {
	g := newGraph(t, []string{"a", "b"},
		dag.Edge{From: "a", To: "b"},
		dag.Edge{From: "b", To: "b"},
	)

	stats, err := RankNetworkSimplex(g, DefaultRankOptions())
	if err != nil {
		t.Fatalf("RankNetworkSimplex() error = %v", err)
	}
	if stats.SelfLoops != 1 {
		t.Errorf("SelfLoops = %d, want 1", stats.SelfLoops)
	}
}

func TestRankNetworkSimplex_SyntheticNodesAreVirtual(t *testing.T) {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "v", Kind: dag.NodeKindAuxiliary})
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddEdge(dag.Edge{From: "v", To: "a"})

	if _, err := RankNetworkSimplex(g, DefaultRankOptions()); err != nil {
		t.Fatalf("RankNetworkSimplex() error = %v", err)
	}
	rows := rowsOf(g)
	if rows["a"] != 0 || rows["v"] != -1 {
		t.Errorf("rows = %v, want a=0 v=-1", rows)
	}
}

func TestRankNetworkSimplex_Idempotent(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c", "d", "x"},
		dag.Edge{From: "a", To: "b"},
		dag.Edge{From: "b", To: "c"},
		dag.Edge{From: "c", To: "d"},
		dag.Edge{From: "a", To: "x"},
		dag.Edge{From: "x", To: "d", Meta: dag.Metadata{"weight": 2}},
	)

	first, err := RankNetworkSimplex(g, DefaultRankOptions())
	if err != nil {
		t.Fatal(err)
	}
	before := rowsOf(g)
	second, err := RankNetworkSimplex(g, DefaultRankOptions())
	if err != nil {
		t.Fatal(err)
	}

	if second.Iterations != second.Degenerate {
		t.Errorf("second run Iterations = %d, Degenerate = %d; want only degenerate pivots",
			second.Iterations, second.Degenerate)
	}
	if second.TotalLength != first.TotalLength {
		t.Errorf("TotalLength changed: %d -> %d", first.TotalLength, second.TotalLength)
	}
	for id, row := range before {
		if got := rowsOf(g)[id]; got != row {
			t.Errorf("row(%s) changed: %d -> %d", id, row, got)
		}
	}
}

func TestRankNetworkSimplex_NotWorseThanLongestPath(t *testing.T) {
	edges := []dag.Edge{
		{From: "app", To: "api"},
		{From: "app", To: "cli"},
		{From: "api", To: "core"},
		{From: "cli", To: "core"},
		{From: "core", To: "util"},
		{From: "plugin", To: "util", Meta: dag.Metadata{"weight": 3}},
		{From: "app", To: "util"},
	}
	ids := []string{"app", "api", "cli", "core", "util", "plugin"}

	lp := newGraph(t, ids, edges...)
	AssignLayers(lp)
	ns := newGraph(t, ids, edges...)
	if _, err := RankNetworkSimplex(ns, DefaultRankOptions()); err != nil {
		t.Fatal(err)
	}

	if a, b := totalLength(ns), totalLength(lp); a > b {
		t.Errorf("network simplex length %d > longest path %d", a, b)
	}
	if rowsOf(ns)["plugin"] != rowsOf(ns)["util"]-1 {
		t.Errorf("plugin not pulled next to util: %v", rowsOf(ns))
	}
}

func TestRankNetworkSimplex_SearchSizeFromMetadata(t *testing.T) {
	tests := []struct {
		name   string
		meta   dag.Metadata
		option int
		want   string
	}{
		{"metadata when unset", dag.Metadata{MetaSearchSize: 7}, 0, "searchsize=7"},
		{"option wins", dag.Metadata{MetaSearchSize: 7}, 3, "searchsize=3"},
		{"solver default", nil, 0, "searchsize=30"},
		{"non-positive metadata ignored", dag.Metadata{MetaSearchSize: -2}, 0, "searchsize=30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := dag.New(tt.meta)
			for _, id := range []string{"a", "b", "c"} {
				_ = g.AddNode(dag.Node{ID: id})
			}
			_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
			_ = g.AddEdge(dag.Edge{From: "b", To: "c"})

			var buf bytes.Buffer
			opts := DefaultRankOptions()
			opts.Solver.SearchSize = tt.option
			opts.Solver.Logger = log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

			if _, err := RankNetworkSimplex(g, opts); err != nil {
				t.Fatalf("RankNetworkSimplex() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNormalize_Pipeline(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c"},
		dag.Edge{From: "a", To: "b"},
		dag.Edge{From: "b", To: "c"},
		dag.Edge{From: "a", To: "c", Meta: dag.Metadata{"minlen": 2}},
		dag.Edge{From: "c", To: "a"},
	)
	opts := DefaultNormalizeOptions()
	opts.Subdivide = true

	res, err := Normalize(g, opts)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if res.RemovedEdges != 1 {
		t.Errorf("RemovedEdges = %d, want 1", res.RemovedEdges)
	}
	if res.Subdividers != 1 {
		t.Errorf("Subdividers = %d, want 1", res.Subdividers)
	}
	if err := g.ValidateLayered(); err != nil {
		t.Errorf("ValidateLayered() = %v", err)
	}
}

func totalLength(g *dag.DAG) int {
	total := 0
	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		total += e.Weight() * (dst.Row - src.Row)
	}
	return total
}
