// Package pipeline runs the rank → render pipeline shared by the CLI and the
// HTTP service.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Rank: break cycles, assign optimal rows, optionally subdivide
//  2. Render: emit the ranked graph as JSON, DOT, SVG, PDF or PNG
//
// Both stages are cached. Keys combine the content hash of the input graph
// with every option that changes the output, so repeated requests for the
// same graph are served without re-ranking.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Balance = "tb"
//	res, err := runner.Rank(ctx, g, opts)
//	svg, err := runner.Render(ctx, g, opts)
package pipeline

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerank/pkg/cache"
	"github.com/matzehuels/layerank/pkg/dag"
	"github.com/matzehuels/layerank/pkg/dag/transform"
	lerrors "github.com/matzehuels/layerank/pkg/errors"
	"github.com/matzehuels/layerank/pkg/netsimplex"
	"github.com/matzehuels/layerank/pkg/render"
)

// Ranker names.
const (
	RankerNetworkSimplex = "network-simplex"
	RankerLongestPath    = "longest-path"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// TTLRank is how long ranking results and artifacts stay cached.
const TTLRank = 7 * 24 * time.Hour

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Rank options
	Ranker        string `json:"ranker,omitempty"`
	Balance       string `json:"balance,omitempty"`
	Adjust        string `json:"adjust,omitempty"`
	MaxIterations int    `json:"max_iterations"`
	SearchSize    int    `json:"search_size,omitempty"`
	BreakCycles   bool   `json:"break_cycles"`
	Subdivide     bool   `json:"subdivide,omitempty"`
	Components    bool   `json:"components"`
	Refresh       bool   `json:"refresh,omitempty"`

	// Render options
	Format    string `json:"format,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"`
	EdgeAttrs bool   `json:"edge_attrs,omitempty"`

	// Runtime options (not serialized)
	Logger    *log.Logger      `json:"-"`
	TTL       time.Duration    `json:"-"`
	Converter render.Converter `json:"-"`
}

// DefaultOptions ranks to optimality, component by component, with cycles
// broken and no balancing, and renders SVG.
func DefaultOptions() Options {
	return Options{
		Ranker:        RankerNetworkSimplex,
		Balance:       "none",
		Adjust:        "none",
		MaxIterations: math.MaxInt32,
		BreakCycles:   true,
		Components:    true,
		Format:        FormatSVG,
		TTL:           TTLRank,
	}
}

// Result contains the outputs of the rank stage.
type Result struct {
	// Graph is the ranked copy of the input graph.
	Graph *dag.DAG `json:"-"`

	// GraphHash is the content hash of the input graph.
	GraphHash string `json:"graph_hash"`

	Stats Stats `json:"stats"`

	// Cached reports that the result came from the cache.
	Cached bool `json:"cached"`
}

// Stats summarizes one rank stage.
type Stats struct {
	Nodes        int           `json:"nodes"`
	Edges        int           `json:"edges"`
	Iterations   int           `json:"iterations"`
	Capped       bool          `json:"capped"`
	TotalLength  int64         `json:"total_length"`
	Components   int           `json:"components"`
	SelfLoops    int           `json:"self_loops"`
	RemovedEdges int           `json:"removed_edges"`
	Subdividers  int           `json:"subdividers"`
	MaxRow       int           `json:"max_row"`
	Duration     time.Duration `json:"duration_ns"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return lerrors.New(lerrors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateRanker checks that a ranker name is valid.
func ValidateRanker(ranker string) error {
	switch ranker {
	case RankerNetworkSimplex, RankerLongestPath:
		return nil
	}
	return lerrors.New(lerrors.ErrCodeInvalidInput,
		"invalid ranker: %q (must be one of: network-simplex, longest-path)", ranker)
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills empty enum fields.
func (o *Options) SetDefaults() {
	if o.Ranker == "" {
		o.Ranker = RankerNetworkSimplex
	}
	if o.Balance == "" {
		o.Balance = "none"
	}
	if o.Adjust == "" {
		o.Adjust = "none"
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
}

// Validate checks the rank options and returns the equivalent transform
// options.
func (o *Options) Validate() (transform.NormalizeOptions, error) {
	o.SetDefaults()
	if err := ValidateRanker(o.Ranker); err != nil {
		return transform.NormalizeOptions{}, err
	}
	balance, err := netsimplex.ParseBalanceMode(o.Balance)
	if err != nil {
		return transform.NormalizeOptions{}, lerrors.FromRankError(err)
	}
	adjust, err := netsimplex.ParseAdjust(o.Adjust)
	if err != nil {
		return transform.NormalizeOptions{}, lerrors.FromRankError(err)
	}
	if o.MaxIterations < 0 {
		return transform.NormalizeOptions{}, lerrors.New(lerrors.ErrCodeInvalidInput,
			"max_iterations must not be negative (got %d)", o.MaxIterations)
	}

	nopts := transform.DefaultNormalizeOptions()
	nopts.BreakCycles = o.BreakCycles
	nopts.Subdivide = o.Subdivide
	nopts.LongestPath = o.Ranker == RankerLongestPath
	nopts.Rank.Components = o.Components
	nopts.Rank.Solver = netsimplex.Options{
		Balance:       balance,
		Adjust:        adjust,
		MaxIterations: o.MaxIterations,
		SearchSize:    o.SearchSize,
		Logger:        o.Logger,
	}
	return nopts, nil
}

// RankKeyOpts returns cache key options for the rank stage. Balance and
// adjust aliases ("tb", "top-bottom") produce the same key.
func (o *Options) RankKeyOpts() cache.RankKeyOpts {
	balance, adjust := o.Balance, o.Adjust
	if m, err := netsimplex.ParseBalanceMode(balance); err == nil {
		balance = m.String()
	}
	if a, err := netsimplex.ParseAdjust(adjust); err == nil {
		adjust = a.String()
	}
	return cache.RankKeyOpts{
		Ranker:        o.Ranker,
		Balance:       balance,
		Adjust:        adjust,
		MaxIterations: o.MaxIterations,
		SearchSize:    o.SearchSize,
		BreakCycles:   o.BreakCycles,
		Subdivide:     o.Subdivide,
		Components:    o.Components,
	}
}

// RenderKeyOpts returns cache key options for the render stage.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Rank:      o.RankKeyOpts(),
		Format:    o.Format,
		Detailed:  o.Detailed,
		EdgeAttrs: o.EdgeAttrs,
	}
}

func (o *Options) ttl() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return TTLRank
}
