package transform

import "github.com/matzehuels/layerank/pkg/dag"

// NormalizeOptions selects the steps run by [Normalize].
type NormalizeOptions struct {
	BreakCycles bool
	Rank        RankOptions
	// LongestPath ranks with [AssignLayers] instead of network simplex.
	LongestPath bool
	Subdivide   bool
}

// DefaultNormalizeOptions breaks cycles and ranks optimally without
// subdividing.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{BreakCycles: true, Rank: DefaultRankOptions()}
}

// NormalizeResult reports what [Normalize] changed.
type NormalizeResult struct {
	Rank         RankStats
	RemovedEdges int
	Subdividers  int
}

// Normalize breaks cycles, ranks and optionally subdivides g in place.
func Normalize(g *dag.DAG, opts NormalizeOptions) (NormalizeResult, error) {
	var res NormalizeResult
	if opts.BreakCycles {
		res.RemovedEdges = BreakCycles(g)
	}
	if opts.LongestPath {
		if err := g.ValidateEdges(); err != nil {
			return res, err
		}
		AssignLayers(g)
	} else {
		stats, err := RankNetworkSimplex(g, opts.Rank)
		if err != nil {
			return res, err
		}
		res.Rank = stats
	}
	if opts.Subdivide {
		res.Subdividers = Subdivide(g)
	}
	return res, nil
}
