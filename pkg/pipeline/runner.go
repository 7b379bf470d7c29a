package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerank/pkg/cache"
	"github.com/matzehuels/layerank/pkg/dag"
	"github.com/matzehuels/layerank/pkg/dag/transform"
	lerrors "github.com/matzehuels/layerank/pkg/errors"
	lio "github.com/matzehuels/layerank/pkg/io"
	"github.com/matzehuels/layerank/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The cache is wrapped so hits and misses reach the observability hooks.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  cache.Instrument(c),
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedRank is the cache entry of one rank stage.
type cachedRank struct {
	Graph json.RawMessage `json:"graph"`
	Stats Stats           `json:"stats"`
}

// Rank ranks a copy of g. The input graph is never modified.
//
// Results are looked up by the content hash of g and the rank options;
// opts.Refresh skips the lookup but still stores the new result.
func (r *Runner) Rank(ctx context.Context, g *dag.DAG, opts Options) (*Result, error) {
	nopts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	r.applyLogger(&opts, &nopts)

	graphHash, err := HashGraph(g)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.RankKey(graphHash, opts.RankKeyOpts())

	if !opts.Refresh {
		if res, ok := r.lookupRank(ctx, key); ok {
			res.GraphHash = graphHash
			r.Logger.Debug("rank cache hit", "hash", graphHash[:12])
			return res, nil
		}
	}

	work := g.Clone()
	observability.Rank().OnRankStart(ctx, work.NodeCount(), work.EdgeCount())
	start := time.Now()
	nres, err := transform.Normalize(work, nopts)
	elapsed := time.Since(start)
	observability.Rank().OnRankComplete(ctx, observability.RankEvent{
		Nodes:      work.NodeCount(),
		Edges:      work.EdgeCount(),
		Iterations: nres.Rank.Iterations,
		Capped:     nres.Rank.Capped,
		Balance:    opts.Balance,
		Duration:   elapsed,
		Err:        err,
	})
	if err != nil {
		return nil, lerrors.FromRankError(err)
	}

	res := &Result{
		Graph:     work,
		GraphHash: graphHash,
		Stats: Stats{
			Nodes:        g.NodeCount(),
			Edges:        g.EdgeCount(),
			Iterations:   nres.Rank.Iterations,
			Capped:       nres.Rank.Capped,
			TotalLength:  nres.Rank.TotalLength,
			Components:   nres.Rank.Components,
			SelfLoops:    nres.Rank.SelfLoops,
			RemovedEdges: nres.RemovedEdges,
			Subdividers:  nres.Subdividers,
			MaxRow:       work.MaxRow(),
			Duration:     elapsed,
		},
	}
	r.Logger.Info("ranked graph",
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"iterations", res.Stats.Iterations,
		"length", res.Stats.TotalLength,
		"duration", elapsed)
	if res.Stats.Capped {
		r.Logger.Warn("iteration limit reached, ranking is feasible but may not be optimal",
			"max_iterations", opts.MaxIterations)
	}

	r.storeRank(ctx, key, res, opts.ttl())
	return res, nil
}

func (r *Runner) lookupRank(ctx context.Context, key string) (*Result, bool) {
	var entry cachedRank
	ok, err := cache.GetJSON(ctx, r.Cache, key, &entry)
	if err != nil {
		r.Logger.Debug("rank cache lookup failed", "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	g, err := lio.ReadJSON(bytes.NewReader(entry.Graph))
	if err != nil {
		_ = r.Cache.Delete(ctx, key)
		return nil, false
	}
	return &Result{Graph: g, Stats: entry.Stats, Cached: true}, true
}

func (r *Runner) storeRank(ctx context.Context, key string, res *Result, ttl time.Duration) {
	var buf bytes.Buffer
	if err := lio.WriteJSON(res.Graph, &buf); err != nil {
		r.Logger.Debug("serialize ranked graph", "err", err)
		return
	}
	entry := cachedRank{Graph: buf.Bytes(), Stats: res.Stats}
	if err := cache.SetJSON(ctx, r.Cache, key, entry, ttl); err != nil {
		r.Logger.Debug("rank cache store failed", "err", err)
	}
}

// RenderWithCacheInfo ranks g and renders it in opts.Format. The boolean
// reports whether the artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *dag.DAG, opts Options) ([]byte, bool, error) {
	opts.SetDefaults()
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}

	graphHash, err := HashGraph(g)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.RenderKey(graphHash, opts.RenderKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	res, err := r.Rank(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}
	data, err := RenderGraph(ctx, res.Graph, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, opts.ttl()); err != nil {
		r.Logger.Debug("render cache store failed", "err", err)
	}
	return data, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *dag.DAG, opts Options) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return data, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// HashGraph returns the content hash of g's JSON form.
func HashGraph(g *dag.DAG) (string, error) {
	h := cache.NewHasher()
	if err := lio.WriteJSON(g, h); err != nil {
		return "", fmt.Errorf("serialize graph for cache key: %w", err)
	}
	return h.Sum(), nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options, nopts *transform.NormalizeOptions) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if nopts.Rank.Solver.Logger == nil {
		nopts.Rank.Solver.Logger = opts.Logger
	}
}
