package transform

import (
	"fmt"

	"github.com/matzehuels/layerank/pkg/dag"
)

// Subdivide breaks edges that span multiple rows into sequences of single-row
// edges connected by synthetic subdivider nodes, and returns the number of
// subdividers added.
//
// Run Subdivide after ranking: ordering and coordinate stages downstream
// expect every edge to connect consecutive rows. For example:
//
//	Before: app (row 0) → core (row 3)  [spans 3 rows]
//	After:  app → app_sub_1 → app_sub_2 → core  [3 single-row edges]
//
// Each subdivider keeps a MasterID linking back to the source node.
// Edges with a span of zero or one row are left alone.
//
// # Node IDs
//
// Subdivider nodes get IDs of the form "master_sub_row" (e.g. "app_sub_1").
// On collision a numeric suffix is appended ("app_sub_1__2").
//
// # Edge Metadata
//
// Every segment carries the original weight with minlen 1, so re-ranking the
// subdivided graph reproduces the same rows. The final segment (entering the
// original target) also keeps the rest of the original edge metadata.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0

	var toRemove []dag.Edge
	for _, e := range g.Edges() {
		src, srcOK := g.Node(e.From)
		dst, dstOK := g.Node(e.To)
		if !srcOK || !dstOK || dst.Row <= src.Row+1 {
			continue
		}

		toRemove = append(toRemove, e)
		weight := e.Weight()
		prevID := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			prevID = addSubdivider(g, gen, prevID, src.EffectiveID(), row, weight)
			added++
		}
		meta := e.Meta.Clone()
		meta[dag.MetaMinLen] = 1
		if err := g.AddEdge(dag.Edge{From: prevID, To: dst.ID, Meta: meta}); err != nil {
			panic(err)
		}
	}

	for _, e := range toRemove {
		g.RemoveEdge(e.From, e.To)
	}
	return added
}

func addSubdivider(g *dag.DAG, gen *idGen, from, master string, row, weight int) string {
	id := gen.next(master, row)
	if err := g.AddNode(dag.Node{
		ID:       id,
		Row:      row,
		Kind:     dag.NodeKindSubdivider,
		MasterID: master,
	}); err != nil {
		panic(err)
	}
	meta := dag.Metadata{dag.MetaMinLen: 1, dag.MetaWeight: weight}
	if err := g.AddEdge(dag.Edge{From: from, To: id, Meta: meta}); err != nil {
		panic(err)
	}
	return id
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s_sub_%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
