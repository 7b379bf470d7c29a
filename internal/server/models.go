package server

import (
	"encoding/json"

	"github.com/matzehuels/layerank/pkg/buildinfo"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

// RankResponse is the JSON response for POST /v1/rank.
type RankResponse struct {
	RequestID string          `json:"request_id"`
	GraphHash string          `json:"graph_hash"`
	Graph     json.RawMessage `json:"graph"`
	Stats     pipeline.Stats  `json:"stats"`
	Cached    bool            `json:"cached"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
}

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}
