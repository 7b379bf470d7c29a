// Package io provides JSON import and export for ranked graphs.
//
// # JSON Format
//
// The format has two required top-level arrays and optional graph metadata:
//
//	{
//	  "meta": {"searchsize": 30},
//	  "nodes": [
//	    {"id": "app"},
//	    {"id": "lib", "row": 1},
//	    {"id": "lib_sub_2", "kind": "subdivider"}
//	  ],
//	  "edges": [
//	    {"from": "app", "to": "lib", "minlen": 1, "weight": 4},
//	    {"from": "lib", "to": "lib_sub_2", "meta": {"label": "uses"}}
//	  ]
//	}
//
// Node rows are starting ranks on input and computed ranks on output. Edge
// minlen and weight default to 1 and map to the "minlen" and "weight" keys
// of the edge metadata, so graphs built in code and graphs read from JSON
// rank identically.
//
// Use [ReadJSON] / [ImportJSON] to decode and [WriteJSON] / [ExportJSON] to
// encode. Export followed by import reproduces nodes, rows, kinds, edges and
// all metadata.
package io
