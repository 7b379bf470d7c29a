package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/layerank/pkg/dag"
)

var kindFromString = map[string]dag.NodeKind{
	"subdivider": dag.NodeKindSubdivider,
	"auxiliary":  dag.NodeKindAuxiliary,
}

// ReadJSON decodes a JSON graph from r into a DAG.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "a"}, {"id": "b"}],
//	  "edges": [{"from": "a", "to": "b", "minlen": 2}]
//	}
//
// Each node must have an "id" field. Optional fields:
//   - row: integer starting rank (defaults to 0)
//   - kind: "subdivider" or "auxiliary" (defaults to normal node)
//   - master: ID of the node a subdivider was created for
//   - meta: object with arbitrary key-value pairs
//
// Each edge must have "from" and "to" fields that reference node IDs, and may
// carry "minlen", "weight" and "meta". minlen and weight are stored in the
// edge metadata under the same keys.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or invalid
//   - A node has an unknown kind or a duplicate ID
//   - An edge references an unknown node ID
//
// Cycles and invalid attribute values are not rejected here; ranking
// reports them.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(data.Meta)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, MasterID: n.Master, Meta: n.Meta}
		if n.Row != nil {
			nd.Row = *n.Row
		}
		if n.Kind != "" {
			k, ok := kindFromString[n.Kind]
			if !ok {
				return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
			}
			nd.Kind = k
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		meta := e.Meta
		if e.MinLen != nil || e.Weight != nil {
			meta = meta.Clone()
			if e.MinLen != nil {
				meta[dag.MetaMinLen] = *e.MinLen
			}
			if e.Weight != nil {
				meta[dag.MetaWeight] = *e.Weight
			}
		}
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Meta: meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// ImportJSON reads a JSON file at path and returns the decoded DAG.
//
// ImportJSON returns the same validation errors as [ReadJSON], wrapped with
// the file path.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
