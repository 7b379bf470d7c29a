package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/layerank/pkg/cache"
	lio "github.com/matzehuels/layerank/pkg/io"
	"github.com/matzehuels/layerank/pkg/observability"
	"github.com/matzehuels/layerank/pkg/observability/prom"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

const chainGraph = `{
  "nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "x"}],
  "edges": [
    {"from": "a", "to": "b"},
    {"from": "b", "to": "c"},
    {"from": "x", "to": "c"}
  ]
}`

const cycleGraph = `{
  "nodes": [{"id": "a"}, {"id": "b"}],
  "edges": [{"from": "a", "to": "b"}, {"from": "b", "to": "a"}]
}`

const splitGraph = `{"nodes": [{"id": "a"}, {"id": "b"}], "edges": []}`

func newTestServer(t *testing.T, cfg Config, opts ...Option) *Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { _ = runner.Close() })
	return New(cfg, runner, append([]Option{WithLogger(logger)}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := do(t, s, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Build.Version)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestRank(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := do(t, s, http.MethodPost, "/v1/rank", chainGraph)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	assert.Equal(t, w.Header().Get(HeaderRequestID), resp.RequestID)
	assert.Equal(t, int64(3), resp.Stats.TotalLength)
	assert.Equal(t, 4, resp.Stats.Nodes)

	g, err := lio.ReadJSON(bytes.NewReader(resp.Graph))
	require.NoError(t, err)
	want := map[string]int{"a": 0, "b": 1, "c": 2, "x": 1}
	for id, row := range want {
		n, ok := g.Node(id)
		require.True(t, ok, id)
		assert.Equal(t, row, n.Row, "row(%s)", id)
	}

	w = do(t, s, http.MethodPost, "/v1/rank", chainGraph)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
}

func TestRankQueryOptions(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := do(t, s, http.MethodPost, "/v1/rank?ranker=longest-path&balance=tb", chainGraph)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	g, err := lio.ReadJSON(bytes.NewReader(resp.Graph))
	require.NoError(t, err)
	x, _ := g.Node("x")
	assert.Equal(t, 0, x.Row, "longest path keeps sources on row 0")
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	req := httptest.NewRequest(http.MethodPost, "/v1/rank", strings.NewReader(chainGraph))
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()

	s.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	var resp RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-42", resp.RequestID)
}

func TestRankErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNodes = 3

	tests := []struct {
		name   string
		target string
		body   string
		ctype  string
		status int
		code   string
	}{
		{"invalid json", "/v1/rank", "not json", "application/json", http.StatusBadRequest, "INVALID_GRAPH"},
		{"unknown edge endpoint", "/v1/rank", `{"nodes":[{"id":"a"}],"edges":[{"from":"a","to":"z"}]}`, "", http.StatusBadRequest, "INVALID_GRAPH"},
		{"wrong content type", "/v1/rank", cycleGraph, "text/plain", http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad balance", "/v1/rank?balance=diagonal", cycleGraph, "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad integer", "/v1/rank?max_iterations=lots", cycleGraph, "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad boolean", "/v1/rank?subdivide=maybe", cycleGraph, "", http.StatusBadRequest, "INVALID_INPUT"},
		{"cycle", "/v1/rank?break_cycles=false", cycleGraph, "", http.StatusUnprocessableEntity, "GRAPH_CYCLE"},
		{"disconnected", "/v1/rank?components=false", splitGraph, "", http.StatusUnprocessableEntity, "GRAPH_DISCONNECTED"},
		{"too many nodes", "/v1/rank", chainGraph, "", http.StatusRequestEntityTooLarge, "GRAPH_TOO_LARGE"},
	}

	s := newTestServer(t, cfg)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body))
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			w := httptest.NewRecorder()

			s.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.Equal(t, tt.code, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 16
	s := newTestServer(t, cfg)

	w := do(t, s, http.MethodPost, "/v1/rank", chainGraph)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, "GRAPH_TOO_LARGE", decodeError(t, w).Error)
}

func TestRender(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := do(t, s, http.MethodPost, "/v1/render?format=dot", chainGraph)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/vnd.graphviz", w.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Body.String(), `{ rank=same; "b"; "x"; }`)

	w = do(t, s, http.MethodPost, "/v1/render?format=dot", chainGraph)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = do(t, s, http.MethodPost, "/v1/render?format=json", chainGraph)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = do(t, s, http.MethodPost, "/v1/render?format=gif", chainGraph)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error)
}

func TestNotFoundAndMethod(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := do(t, s, http.MethodGet, "/v2/rank", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error)

	w = do(t, s, http.MethodGet, "/v1/rank", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)
	m := prom.New(prometheus.NewRegistry())
	observability.SetHTTPHooks(m)
	observability.SetRankHooks(m)
	s := newTestServer(t, DefaultConfig(), WithMetrics(m.Handler()))

	w := do(t, s, http.MethodPost, "/v1/rank", chainGraph)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `layerank_http_requests_total{code="200",method="POST",route="/v1/rank"} 1`)
	assert.Contains(t, body, `layerank_rank_runs_total{balance="none",status="success"} 1`)
}

func TestMetricsRouteAbsentByDefault(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := do(t, s, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestGetRequestID(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
	assert.Equal(t, "id-1", GetRequestID(WithRequestID(context.Background(), "id-1")))
	assert.Equal(t, "", GetRequestID(context.WithValue(context.Background(), requestIDKey, 7)))
}
