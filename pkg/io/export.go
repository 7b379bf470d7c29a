package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/layerank/pkg/dag"
)

var kindToString = map[dag.NodeKind]string{
	dag.NodeKindSubdivider: "subdivider",
	dag.NodeKindAuxiliary:  "auxiliary",
}

type graph struct {
	Meta  dag.Metadata `json:"meta,omitempty"`
	Nodes []node       `json:"nodes"`
	Edges []edge       `json:"edges"`
}

type node struct {
	ID     string       `json:"id"`
	Row    *int         `json:"row,omitempty"`
	Kind   string       `json:"kind,omitempty"`
	Master string       `json:"master,omitempty"`
	Meta   dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	MinLen *int         `json:"minlen,omitempty"`
	Weight *int         `json:"weight,omitempty"`
	Meta   dag.Metadata `json:"meta,omitempty"`
}

// WriteJSON encodes a DAG as JSON and writes it to w.
// The output includes all nodes (with row, kind and metadata) and edges.
// Edge minlen and weight are lifted out of the edge metadata into their own
// fields. This format can be re-imported with [ReadJSON].
func WriteJSON(g *dag.DAG, w io.Writer) error {
	nodes := g.Nodes()
	edges := g.Edges()
	out := graph{
		Meta:  g.Meta(),
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}

	for i, n := range nodes {
		nd := node{ID: n.ID, Master: n.MasterID, Meta: n.Meta}
		if n.Row != 0 {
			row := n.Row
			nd.Row = &row
		}
		if s, ok := kindToString[n.Kind]; ok {
			nd.Kind = s
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		out.Edges[i] = exportEdge(e)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func exportEdge(e dag.Edge) edge {
	ed := edge{From: e.From, To: e.To}
	if len(e.Meta) == 0 {
		return ed
	}
	meta := e.Meta.Clone()
	if v, ok := liftInt(meta, dag.MetaMinLen); ok {
		ed.MinLen = &v
	}
	if v, ok := liftInt(meta, dag.MetaWeight); ok {
		ed.Weight = &v
	}
	if len(meta) > 0 {
		ed.Meta = meta
	}
	return ed
}

// liftInt removes key from meta when it holds a valid integer.
func liftInt(meta dag.Metadata, key string) (int, bool) {
	if _, present := meta[key]; !present {
		return 0, false
	}
	v, ok := meta.Int(key, 0)
	if !ok {
		return 0, false
	}
	delete(meta, key)
	return v, true
}

// ExportJSON writes a DAG to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
