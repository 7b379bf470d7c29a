package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/matzehuels/layerank/pkg/buildinfo"
	"github.com/matzehuels/layerank/pkg/dag"
	lerrors "github.com/matzehuels/layerank/pkg/errors"
	lio "github.com/matzehuels/layerank/pkg/io"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

// handleRank handles POST /v1/rank.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	opts, g, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.runner.Rank(r.Context(), g, opts)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := lio.WriteJSON(res.Graph, &buf); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankResponse{
		RequestID: GetRequestID(r.Context()),
		GraphHash: res.GraphHash,
		Graph:     buf.Bytes(),
		Stats:     res.Stats,
		Cached:    res.Cached,
	})
}

// handleRender handles POST /v1/render.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, g, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	if err := pipeline.ValidateFormat(opts.Format); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	data, cached, err := s.runner.RenderWithCacheInfo(r.Context(), g, opts)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(opts.Format))
	w.Header().Set("X-Cache", cacheStatus(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

// decodeRequest parses the query options and the graph body. On failure it
// writes the error response and returns false.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Options, *dag.DAG, bool) {
	opts, err := parseOptions(r, s.defaults)
	if err != nil {
		s.writeFailure(w, r, err)
		return opts, nil, false
	}
	g, err := s.readGraph(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return opts, nil, false
	}
	return opts, g, true
}

func (s *Server) readGraph(r *http.Request) (*dag.DAG, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "application/json" {
			return nil, lerrors.New(lerrors.ErrCodeInvalidFormat, "content type must be application/json, got %q", ct)
		}
	}

	g, err := lio.ReadJSON(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, lerrors.New(lerrors.ErrCodeGraphTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, lerrors.Wrap(lerrors.ErrCodeInvalidGraph, err, "invalid graph")
	}
	if err := lerrors.ValidateGraphSize(g.NodeCount(), g.EdgeCount(), s.cfg.MaxNodes, s.cfg.MaxEdges); err != nil {
		return nil, err
	}
	for _, n := range g.Nodes() {
		if err := lerrors.ValidateNodeID(n.ID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// parseOptions overrides defaults with the request's query parameters.
func parseOptions(r *http.Request, defaults pipeline.Options) (pipeline.Options, error) {
	opts := defaults
	q := r.URL.Query()

	strs := map[string]*string{
		"ranker":  &opts.Ranker,
		"balance": &opts.Balance,
		"adjust":  &opts.Adjust,
		"format":  &opts.Format,
	}
	for name, dst := range strs {
		if q.Has(name) {
			*dst = q.Get(name)
		}
	}

	ints := map[string]*int{
		"max_iterations": &opts.MaxIterations,
		"search_size":    &opts.SearchSize,
	}
	for name, dst := range ints {
		if !q.Has(name) {
			continue
		}
		n, err := strconv.Atoi(q.Get(name))
		if err != nil {
			return opts, lerrors.New(lerrors.ErrCodeInvalidInput, "%s: not an integer: %q", name, q.Get(name))
		}
		*dst = n
	}

	bools := map[string]*bool{
		"break_cycles": &opts.BreakCycles,
		"subdivide":    &opts.Subdivide,
		"components":   &opts.Components,
		"refresh":      &opts.Refresh,
		"detailed":     &opts.Detailed,
		"edge_attrs":   &opts.EdgeAttrs,
	}
	for name, dst := range bools {
		if !q.Has(name) {
			continue
		}
		b, err := strconv.ParseBool(q.Get(name))
		if err != nil {
			return opts, lerrors.New(lerrors.ErrCodeInvalidInput, "%s: not a boolean: %q", name, q.Get(name))
		}
		*dst = b
	}

	if _, err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch lerrors.GetCode(err) {
	case lerrors.ErrCodeInvalidInput, lerrors.ErrCodeInvalidFormat,
		lerrors.ErrCodeInvalidGraph, lerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case lerrors.ErrCodeGraphDisconnected, lerrors.ErrCodeGraphCycle:
		return http.StatusUnprocessableEntity
	case lerrors.ErrCodeGraphTooLarge:
		return http.StatusRequestEntityTooLarge
	case lerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case lerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(lerrors.GetCode(err))
	msg := lerrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", GetRequestID(r.Context()))
		if code == "" {
			code = string(lerrors.ErrCodeInternal)
		}
		msg = http.StatusText(status)
	}
	writeError(w, r, status, code, msg)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		RequestID: GetRequestID(r.Context()),
		Error:     code,
		Message:   msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
