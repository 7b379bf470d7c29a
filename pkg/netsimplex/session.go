package netsimplex

import (
	"time"

	"github.com/charmbracelet/log"
)

// Stats summarizes one call to [Rank].
type Stats struct {
	Nodes int
	Edges int
	// Iterations is the number of pivots performed.
	Iterations int
	// Degenerate counts the pivots whose entering edge was already tight.
	// They restructure the tree without moving any node.
	Degenerate int
	// Capped reports that the pivot loop stopped at Options.MaxIterations
	// while an improving pivot was still available.
	Capped bool
	// TotalLength is the weighted edge length of the final ranking.
	TotalLength int64
	Duration    time.Duration
}

// session owns all scratch state of one ranking run. Nothing in it outlives
// the call that created it.
type session struct {
	g    *Graph
	opts Options
	log  *log.Logger

	// per edge
	cut       []int
	treeIndex []int

	// per node
	priority []int
	par      []int
	low      []int
	lim      []int
	treeOut  [][]int
	treeIn   [][]int

	treeEdges   []int
	searchIndex int
	searchSize  int

	// enter-edge search state
	enter    int
	slack    int
	lowBound int
	limBound int
}

// Rank assigns an integer rank to every node of g so that each edge spans at
// least its minlen, minimizing the total weighted edge length.
//
// The returned error is nil on success (also when the iteration cap was
// reached), matches [ErrDisconnected] when g is not connected, and matches
// [ErrInternal] for cycles and failed consistency checks. After an error the
// ranks are feasible for the edges examined so far but must be discarded.
func Rank(g *Graph, opts Options) (Stats, error) {
	_, stats, err := run(g, opts)
	return stats, err
}

func run(g *Graph, opts Options) (*session, Stats, error) {
	start := time.Now()
	stats := Stats{Nodes: g.NodeCount(), Edges: g.EdgeCount()}
	if err := opts.Validate(); err != nil {
		return nil, stats, err
	}

	s, feasible := newSession(g, opts)
	s.debug("network simplex",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"maxiter", opts.MaxIterations,
		"searchsize", s.searchSize,
		"balance", opts.Balance)

	if !feasible {
		if err := s.initRank(); err != nil {
			return s, stats, err
		}
	}
	if stats.Nodes == 0 {
		return s, stats, nil
	}
	if err := s.feasibleTree(); err != nil {
		return s, stats, err
	}
	if opts.MaxIterations <= 0 {
		stats.TotalLength = g.TotalLength()
		stats.Duration = time.Since(start)
		return s, stats, nil
	}

	for {
		e := s.leaveEdge()
		if e < 0 {
			break
		}
		if stats.Iterations >= opts.MaxIterations {
			stats.Capped = true
			break
		}
		f := s.enterEdge(e)
		if f < 0 {
			return s, stats, internalf("no entering edge for tree edge %d", e)
		}
		if g.Slack(f) == 0 {
			stats.Degenerate++
		}
		if err := s.update(e, f); err != nil {
			return s, stats, err
		}
		stats.Iterations++
		if stats.Iterations%100 == 0 {
			s.debug("network simplex progress", "iterations", stats.Iterations)
		}
	}

	switch opts.Balance {
	case BalanceTopBottom:
		s.balanceTopBottom()
	case BalanceLeftRight:
		s.balanceLeftRight()
	default:
		s.normalize()
	}

	stats.TotalLength = g.TotalLength()
	stats.Duration = time.Since(start)
	s.debug("network simplex done",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"iterations", stats.Iterations,
		"degenerate", stats.Degenerate,
		"elapsed", stats.Duration.Round(time.Millisecond))
	return s, stats, nil
}

// newSession allocates scratch state and reports whether the current ranks
// already satisfy every constraint.
func newSession(g *Graph, opts Options) (*session, bool) {
	n, m := g.NodeCount(), g.EdgeCount()
	s := &session{
		g:          g,
		opts:       opts,
		log:        opts.Logger,
		cut:        make([]int, m),
		treeIndex:  make([]int, m),
		priority:   make([]int, n),
		par:        make([]int, n),
		low:        make([]int, n),
		lim:        make([]int, n),
		treeOut:    make([][]int, n),
		treeIn:     make([][]int, n),
		treeEdges:  make([]int, 0, max(n-1, 0)),
		searchSize: opts.searchSize(),
	}
	for e := range s.treeIndex {
		s.treeIndex[e] = -1
	}
	feasible := true
	for v := 0; v < n; v++ {
		s.par[v] = -1
		s.priority[v] = len(g.nodes[v].in)
		for _, e := range g.nodes[v].in {
			if g.Slack(e) < 0 {
				feasible = false
			}
		}
	}
	return s, feasible
}

func (s *session) isTree(e int) bool { return s.treeIndex[e] >= 0 }

func (s *session) debug(msg string, keyvals ...any) {
	if s.log != nil {
		s.log.Debug(msg, keyvals...)
	}
}

func (s *session) errorf(msg string, keyvals ...any) {
	if s.log != nil {
		s.log.Error(msg, keyvals...)
	}
}

// inside reports whether lim lies in the DFS interval [low, hi].
func inside(low, lim, hi int) bool { return low <= lim && lim <= hi }
